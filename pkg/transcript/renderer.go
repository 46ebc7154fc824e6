// Package transcript renders the archived conversation into a single ordered
// HTML document: pages merged and stable-sorted by effective timestamp, with
// date separators, sender grouping, reaction icons, and image substitution.
package transcript

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"chatarchiver/pkg/emoticons"
	"chatarchiver/pkg/graph"
	"chatarchiver/pkg/images"
	"chatarchiver/pkg/logger"
	"chatarchiver/pkg/pages"
)

// headerWindow is the largest gap between consecutive messages of one sender
// that still suppresses the second message's header
const headerWindow = 60000 * time.Millisecond

// IdentityClient resolves the archive owner's own identity
type IdentityClient interface {
	Me() (*graph.User, error)
}

// Renderer builds the transcript from the page store, the image index, and
// the emoticon catalog lookup
type Renderer struct {
	store       *pages.Store
	client      IdentityClient
	lookup      *emoticons.Lookup
	emoticonDir string
	logger      logger.Logger

	// now is overridable in tests for stable Today/Yesterday labels
	now func() time.Time
}

// NewRenderer creates a renderer. emoticonDir is the path icon references use
// inside the generated document.
func NewRenderer(store *pages.Store, client IdentityClient, lookup *emoticons.Lookup, emoticonDir string, log logger.Logger) *Renderer {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Renderer{
		store:       store,
		client:      client,
		lookup:      lookup,
		emoticonDir: emoticonDir,
		logger:      log,
		now:         time.Now,
	}
}

// renderState carries the grouping context across the single forward pass
type renderState struct {
	hasPrev          bool
	prevSenderKey    string
	prevTime         time.Time
	prevHadReactions bool
}

// Render produces the transcript at outPath as a full rebuild. Output is
// streamed message by message; transcripts can be arbitrarily long.
func (r *Renderer) Render(outPath string) error {
	me, err := r.client.Me()
	if err != nil {
		return fmt.Errorf("failed to resolve own identity: %w", err)
	}

	index, err := images.LoadIndex(r.store.Dir())
	if err != nil {
		return err
	}
	if index == nil {
		r.logger.Warn("No image index found, rendering without image substitution")
	}

	messages, err := r.store.ReadAll()
	if err != nil {
		return err
	}

	// Stable sort keeps page/file order for identical timestamps
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].EffectiveTimestamp().Before(messages[j].EffectiveTimestamp())
	})

	byID := make(map[string]*graph.Message, len(messages))
	for i := range messages {
		byID[messages[i].ID] = &messages[i]
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create transcript file: %w", err)
	}
	w := bufio.NewWriter(out)

	if _, err := w.WriteString(htmlHead); err != nil {
		out.Close()
		return fmt.Errorf("failed to write transcript: %w", err)
	}

	state := renderState{}
	rendered := 0
	for i := range messages {
		if r.writeMessage(w, &messages[i], me.ID, index, byID, &state) {
			rendered++
		}
	}

	if _, err := w.WriteString(htmlFooter); err != nil {
		out.Close()
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	if err := w.Flush(); err != nil {
		out.Close()
		return fmt.Errorf("failed to flush transcript: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close transcript: %w", err)
	}

	r.logger.InfoWithFields("Transcript rendered", map[string]interface{}{
		"messages": rendered,
		"total":    len(messages),
		"output":   outPath,
	})
	return nil
}

// writeMessage emits one message bubble and updates the grouping state.
// Returns false when the message was skipped.
func (r *Renderer) writeMessage(w *bufio.Writer, m *graph.Message, myID string, index map[string]string, byID map[string]*graph.Message, state *renderState) bool {
	sender, err := m.ResolveSender()
	if err != nil {
		r.logger.ErrorWithFields("Message sender undetermined, skipping", map[string]interface{}{
			"message_id": m.ID,
		})
		return false
	}

	ts := m.EffectiveTimestamp().Local()

	if !state.hasPrev || !sameDay(ts, state.prevTime) {
		fmt.Fprintf(w, "<div class=\"date-separator\">%s</div>\n", escapeText(r.dayLabel(ts)))
	}

	showHeader := !state.hasPrev ||
		sender.Key() != state.prevSenderKey ||
		ts.Sub(state.prevTime) > headerWindow

	side := "left"
	if user, ok := sender.(graph.UserSender); ok && user.ID == myID {
		side = "right"
	}

	spacing := "spaced"
	if !showHeader && !state.prevHadReactions {
		spacing = "collapsed"
	}

	fmt.Fprintf(w, "<div class=\"message %s %s\">\n", side, spacing)

	if showHeader {
		edited := ""
		if m.LastEditedDateTime != nil {
			edited = "<span class=\"edited\">Edited</span>"
		}
		fmt.Fprintf(w,
			"<div class=\"header\"><span class=\"sender\">%s</span><span class=\"timestamp\" data-timestamp=\"%d\">%s</span>%s</div>\n",
			escapeText(sender.Name()),
			ts.UnixMilli(),
			escapeText(ts.Format("15:04")),
			edited)
	}

	for i := range m.Attachments {
		r.writeAttachment(w, m, &m.Attachments[i], byID)
	}

	r.writeBody(w, m, index)
	r.writeReactions(w, m)

	w.WriteString("</div>\n")

	state.hasPrev = true
	state.prevSenderKey = sender.Key()
	state.prevTime = ts
	state.prevHadReactions = len(m.Reactions) > 0
	return true
}

// attachmentRef is the nested preview object encoded in an attachment's
// opaque content string
type attachmentRef struct {
	MessageID      string `json:"messageId"`
	MessagePreview string `json:"messagePreview"`
	MessageSender  *struct {
		User *graph.Identity `json:"user"`
	} `json:"messageSender"`
}

// writeAttachment renders one quoted attachment. Parse failures are logged
// and skipped; rendering continues.
func (r *Renderer) writeAttachment(w *bufio.Writer, owner *graph.Message, a *graph.Attachment, byID map[string]*graph.Message) {
	if a.Content == "" || a.Content == "null" {
		r.logger.ErrorWithFields("Attachment has no content, skipping", map[string]interface{}{
			"message_id":    owner.ID,
			"attachment_id": a.ID,
		})
		return
	}

	var ref attachmentRef
	if err := json.Unmarshal([]byte(a.Content), &ref); err != nil {
		r.logger.ErrorWithFields("Attachment content unparseable, skipping", map[string]interface{}{
			"message_id":    owner.ID,
			"attachment_id": a.ID,
			"error":         err.Error(),
		})
		return
	}

	ts := owner.EffectiveTimestamp().Local()
	if ref.MessageID != "" {
		if quoted, ok := byID[ref.MessageID]; ok {
			ts = quoted.EffectiveTimestamp().Local()
		}
	}

	name := "Unknown"
	if ref.MessageSender != nil && ref.MessageSender.User != nil && ref.MessageSender.User.DisplayName != "" {
		name = ref.MessageSender.User.DisplayName
	}

	fmt.Fprintf(w,
		"<div class=\"quote\"><div class=\"quote-meta\">%s <span data-timestamp=\"%d\">%s</span></div>%s</div>\n",
		escapeText(name),
		ts.UnixMilli(),
		escapeText(ts.Format("15:04")),
		escapeText(ref.MessagePreview))
}

// writeBody emits the message body: html bodies get image references swapped
// for harvested local files, text bodies are escaped
func (r *Renderer) writeBody(w *bufio.Writer, m *graph.Message, index map[string]string) {
	content := m.Body.Content
	if m.Body.ContentType == graph.ContentTypeHTML {
		if index != nil {
			content = graph.HostedContentPattern.ReplaceAllStringFunc(content, func(url string) string {
				if local, ok := index[url]; ok {
					return local
				}
				return url
			})
		}
	} else {
		content = escapeText(content)
	}
	fmt.Fprintf(w, "<div class=\"body\">%s</div>\n", content)
}

// writeReactions resolves each reaction against the catalog and emits its
// icon; unmatched shortcuts are logged and skipped
func (r *Renderer) writeReactions(w *bufio.Writer, m *graph.Message) {
	if len(m.Reactions) == 0 {
		return
	}

	w.WriteString("<div class=\"reactions\">")
	for _, reaction := range m.Reactions {
		shortcut := emoticons.ShortcutForReaction(reaction.DisplayName)
		e, ok := r.lookup.Find(shortcut)
		if !ok {
			r.logger.ErrorWithFields("No emoticon for reaction", map[string]interface{}{
				"message_id": m.ID,
				"reaction":   reaction.DisplayName,
				"shortcut":   shortcut,
			})
			continue
		}
		fmt.Fprintf(w, "<img src=\"%s\" alt=\"%s\">",
			escapeText(filepath.ToSlash(filepath.Join(r.emoticonDir, e.IconFilename()))),
			escapeText(shortcut))
	}
	w.WriteString("</div>\n")
}

// dayLabel formats a date separator: Today, Yesterday, or the full date
func (r *Renderer) dayLabel(ts time.Time) string {
	now := r.now().Local()
	if sameDay(ts, now) {
		return "Today"
	}
	if sameDay(ts, now.AddDate(0, 0, -1)) {
		return "Yesterday"
	}
	return ts.Format("Monday, January 2, 2006")
}

// sameDay reports whether two instants fall on the same local calendar day
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
