package archiver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatarchiver/pkg/config"
	"chatarchiver/pkg/graph"
	"chatarchiver/pkg/logger"
	"chatarchiver/pkg/pages"
	"chatarchiver/pkg/ratelimit"
)

type listResult struct {
	resp *graph.ListMessagesResponse
	err  error
}

type fakeClient struct {
	results []listResult
	calls   []string

	me    *graph.User
	meErr error

	downloads map[string][]byte
	dlCalls   int
}

func (f *fakeClient) ListMessages(url string) (*graph.ListMessagesResponse, error) {
	f.calls = append(f.calls, url)
	if len(f.results) == 0 {
		return nil, fmt.Errorf("unexpected request: %s", url)
	}
	next := f.results[0]
	f.results = f.results[1:]
	return next.resp, next.err
}

func (f *fakeClient) Me() (*graph.User, error) {
	if f.meErr != nil {
		return nil, f.meErr
	}
	if f.me != nil {
		return f.me, nil
	}
	return &graph.User{ID: "me", DisplayName: "Me"}, nil
}

func (f *fakeClient) GetJSON(url string, target interface{}) error {
	return fmt.Errorf("unexpected GetJSON: %s", url)
}

func (f *fakeClient) Download(url string) (io.ReadCloser, error) {
	f.dlCalls++
	data, ok := f.downloads[url]
	if !ok {
		return nil, fmt.Errorf("unexpected download: %s", url)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func newTestArchiver(t *testing.T, client *fakeClient) (*Archiver, *logger.TestLogger) {
	t.Helper()
	log := logger.NewTestLogger()

	dir := t.TempDir()
	store, err := pages.NewStore(dir, log)
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	cfg.Archive.TargetDir = dir
	cfg.Emoticons.Dir = filepath.Join(dir, "emoticons")

	return &Archiver{
		cfg:     cfg,
		client:  client,
		store:   store,
		limiter: ratelimit.NewTokenBucket(1000, time.Minute),
		logger:  log,
	}, log
}

func rawMessages(t *testing.T, msgs ...graph.Message) []json.RawMessage {
	t.Helper()
	var value []json.RawMessage
	for _, m := range msgs {
		raw, err := json.Marshal(m)
		require.NoError(t, err)
		value = append(value, raw)
	}
	return value
}

func textMessage(id, body string) graph.Message {
	return graph.Message{
		ID:              id,
		CreatedDateTime: time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC),
		From:            &graph.From{User: &graph.Identity{ID: "u1", DisplayName: "Ada"}},
		Body:            graph.ItemBody{ContentType: "text", Content: body},
	}
}

func TestNewWiresConfiguredHeaders(t *testing.T) {
	var gotUserAgent, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"value": []}`)
	}))
	defer server.Close()

	cfg := config.DefaultConfig()
	cfg.API.BaseURL = server.URL
	cfg.API.Token = "tok"
	cfg.Archive.TargetDir = t.TempDir()

	a, err := New(cfg, logger.NewTestLogger())
	require.NoError(t, err)

	_, err = a.Fetch("19:x")
	require.NoError(t, err)
	assert.Equal(t, cfg.API.UserAgent, gotUserAgent)
	assert.Equal(t, "Bearer tok", gotAuth)
}

func TestFetchFollowsNextLink(t *testing.T) {
	next := "https://graph.microsoft.com/v1.0/chats/19:x/messages?$skiptoken=abc"
	client := &fakeClient{results: []listResult{
		{resp: &graph.ListMessagesResponse{NextLink: next}},
		{resp: &graph.ListMessagesResponse{}},
	}}
	client.results[0].resp.Value = rawMessages(t, textMessage("m1", "one"), textMessage("m2", "two"))
	client.results[1].resp.Value = rawMessages(t, textMessage("m3", "three"))

	a, _ := newTestArchiver(t, client)

	written, err := a.Fetch("19:x")
	require.NoError(t, err)
	assert.Equal(t, 2, written)

	require.Len(t, client.calls, 2)
	assert.Equal(t, graph.MessagesURL(a.cfg.API.BaseURL, "19:x", a.cfg.Archive.PageSize), client.calls[0])
	assert.Equal(t, next, client.calls[1])

	names, err := a.store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"messages-00000.json", "messages-00001.json"}, names)
}

func TestFetchSkipsEmptyPages(t *testing.T) {
	client := &fakeClient{results: []listResult{
		{resp: &graph.ListMessagesResponse{NextLink: "https://next/1"}},
		{resp: &graph.ListMessagesResponse{NextLink: "https://next/2"}}, // empty value
		{resp: &graph.ListMessagesResponse{}},
	}}
	client.results[0].resp.Value = rawMessages(t, textMessage("m1", "one"))
	client.results[2].resp.Value = rawMessages(t, textMessage("m2", "two"))

	a, _ := newTestArchiver(t, client)

	written, err := a.Fetch("19:x")
	require.NoError(t, err)
	assert.Equal(t, 2, written)
	assert.Len(t, client.calls, 3)

	names, err := a.store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"messages-00000.json", "messages-00001.json"}, names)
}

func TestFetchContinuesNumberingAfterExistingPages(t *testing.T) {
	client := &fakeClient{results: []listResult{
		{resp: &graph.ListMessagesResponse{}},
	}}
	client.results[0].resp.Value = rawMessages(t, textMessage("m9", "later"))

	a, _ := newTestArchiver(t, client)
	require.NoError(t, a.store.Write(2, rawMessages(t, textMessage("m1", "earlier"))))

	written, err := a.Fetch("19:x")
	require.NoError(t, err)
	assert.Equal(t, 1, written)

	names, err := a.store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"messages-00002.json", "messages-00003.json"}, names)
}

func TestFetchWarnsOnCountWithoutNextLink(t *testing.T) {
	count := 120
	client := &fakeClient{results: []listResult{
		{resp: &graph.ListMessagesResponse{Count: &count}},
	}}
	client.results[0].resp.Value = rawMessages(t, textMessage("m1", "one"))

	a, log := newTestArchiver(t, client)

	_, err := a.Fetch("19:x")
	require.NoError(t, err)
	assert.True(t, log.HasMessage("WARN", "count but no next link"))
}

func TestFetchAbortsOnTransportError(t *testing.T) {
	client := &fakeClient{results: []listResult{
		{resp: &graph.ListMessagesResponse{NextLink: "https://next/1"}},
		{err: fmt.Errorf("connection reset")},
	}}
	client.results[0].resp.Value = rawMessages(t, textMessage("m1", "one"))

	a, _ := newTestArchiver(t, client)

	written, err := a.Fetch("19:x")
	assert.Error(t, err)
	assert.Equal(t, 1, written)

	// The page fetched before the failure stays on disk
	names, err := a.store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"messages-00000.json"}, names)
}

// stubLimiter denies the first n Allow calls and counts Waits
type stubLimiter struct {
	deny  int
	waits int
}

func (s *stubLimiter) Allow() bool {
	if s.deny > 0 {
		s.deny--
		return false
	}
	return true
}

func (s *stubLimiter) Wait()  { s.waits++ }
func (s *stubLimiter) Reset() {}

func TestFetchWaitsWhenRateLimited(t *testing.T) {
	client := &fakeClient{results: []listResult{
		{resp: &graph.ListMessagesResponse{}},
	}}
	client.results[0].resp.Value = rawMessages(t, textMessage("m1", "one"))

	a, _ := newTestArchiver(t, client)
	limiter := &stubLimiter{deny: 1}
	a.limiter = limiter

	_, err := a.Fetch("19:x")
	require.NoError(t, err)
	assert.Equal(t, 1, limiter.waits)
}

func TestFetchRequiresChatID(t *testing.T) {
	a, _ := newTestArchiver(t, &fakeClient{})
	_, err := a.Fetch("")
	assert.Error(t, err)
}

func TestRunFullPipeline(t *testing.T) {
	hosted := "https://graph.microsoft.com/v1.0/chats/19:x@thread.v2/messages/m1/hostedContents/aWQ/$value"
	png := []byte{0x89, 'P', 'N', 'G'}

	imgMsg := textMessage("m1", "")
	imgMsg.Body = graph.ItemBody{ContentType: "html", Content: `<p>look <img src="` + hosted + `"></p>`}

	client := &fakeClient{
		results: []listResult{
			{resp: &graph.ListMessagesResponse{NextLink: "https://next/1"}},
			{resp: &graph.ListMessagesResponse{}},
		},
		downloads: map[string][]byte{hosted: png},
	}
	client.results[0].resp.Value = rawMessages(t, imgMsg)
	client.results[1].resp.Value = rawMessages(t, textMessage("m2", "plain follow-up"))

	a, log := newTestArchiver(t, client)
	require.NoError(t, a.Run("19:x"))

	dir := a.cfg.Archive.TargetDir

	// Image downloaded once and indexed
	assert.Equal(t, 1, client.dlCalls)
	data, err := os.ReadFile(filepath.Join(dir, "image-00000"))
	require.NoError(t, err)
	assert.Equal(t, png, data)

	// Transcript references the local file instead of the hosted URL
	html, err := os.ReadFile(filepath.Join(dir, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), `<img src="image-00000">`)
	assert.NotContains(t, string(html), hosted)
	assert.Contains(t, string(html), "plain follow-up")

	// No emoticon catalog in a fresh archive dir
	assert.True(t, log.HasMessage("WARN", "Emoticon catalog unavailable"))
}

func TestRenderReturnsOutputPath(t *testing.T) {
	a, _ := newTestArchiver(t, &fakeClient{})
	require.NoError(t, a.store.Write(0, rawMessages(t, textMessage("m1", "hello"))))

	out, err := a.Render()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(a.cfg.Archive.TargetDir, "index.html"), out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "hello"))
}
