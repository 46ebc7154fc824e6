// Package archiver orchestrates the three pipeline stages: fetching message
// pages, harvesting hosted images, and rendering the HTML transcript. Each
// stage reads its input from the archive directory rather than from the
// previous stage in memory, so stages can be re-run independently.
package archiver

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"chatarchiver/pkg/config"
	"chatarchiver/pkg/emoticons"
	"chatarchiver/pkg/graph"
	"chatarchiver/pkg/images"
	"chatarchiver/pkg/logger"
	"chatarchiver/pkg/pages"
	"chatarchiver/pkg/ratelimit"
	"chatarchiver/pkg/transcript"
)

// Client is the Graph API surface the pipeline needs
type Client interface {
	ListMessages(url string) (*graph.ListMessagesResponse, error)
	Me() (*graph.User, error)
	GetJSON(url string, target interface{}) error
	Download(url string) (io.ReadCloser, error)
}

// Archiver drives the archive pipeline against one chat
type Archiver struct {
	cfg     *config.Config
	client  Client
	store   *pages.Store
	limiter ratelimit.Limiter
	logger  logger.Logger
}

// New creates an archiver wired against the live Graph API
func New(cfg *config.Config, log logger.Logger) (*Archiver, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	store, err := pages.NewStore(cfg.Archive.TargetDir, log)
	if err != nil {
		return nil, err
	}

	client := graph.NewClient(cfg.API.BaseURL, cfg.API.Token, cfg.API.Timeout, log)
	if cfg.API.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.API.UserAgent)
	}
	limiter := ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, time.Minute)

	return &Archiver{
		cfg:     cfg,
		client:  client,
		store:   store,
		limiter: limiter,
		logger:  log,
	}, nil
}

// Run executes the full pipeline for one chat
func (a *Archiver) Run(chatID string) error {
	if _, err := a.Fetch(chatID); err != nil {
		return err
	}
	if _, err := a.Harvest(); err != nil {
		return err
	}
	_, err := a.Render()
	return err
}

// Fetch walks the chat's message pages and persists each non-empty page
// verbatim. Numbering continues after the highest existing page file, so
// repeated runs append rather than overwrite. Any transport or API error
// aborts the walk; pages already written stay on disk.
func (a *Archiver) Fetch(chatID string) (int, error) {
	if chatID == "" {
		return 0, fmt.Errorf("chat ID is required")
	}

	index, err := a.store.NextIndex()
	if err != nil {
		return 0, err
	}

	url := graph.MessagesURL(a.cfg.API.BaseURL, chatID, a.cfg.Archive.PageSize)
	written := 0
	fetched := 0
	messages := 0

	a.logger.InfoWithFields("Fetching messages", map[string]interface{}{
		"chat_id":     chatID,
		"start_index": index,
	})

	for {
		if !a.limiter.Allow() {
			retryAfter := 60 / a.cfg.RateLimit.RequestsPerMinute
			if retryAfter < 1 {
				retryAfter = 1
			}
			logger.LogRateLimit("chat_messages", retryAfter)
			a.limiter.Wait()
		}

		resp, err := a.client.ListMessages(url)
		if err != nil {
			logger.LogPageFetch(chatID, fetched, 0, err)
			return written, fmt.Errorf("failed to fetch page %d: %w", fetched, err)
		}
		fetched++
		logger.LogPageFetch(chatID, fetched-1, len(resp.Value), nil)

		if len(resp.Value) > 0 {
			if err := a.store.Write(index, resp.Value); err != nil {
				return written, err
			}
			index++
			written++
			messages += len(resp.Value)
		} else {
			a.logger.DebugWithFields("Skipping empty page", map[string]interface{}{
				"page": fetched - 1,
			})
		}

		if resp.NextLink == "" {
			if resp.Count != nil {
				a.logger.WarnWithFields("Final page carried a count but no next link, stopping", map[string]interface{}{
					"count": *resp.Count,
				})
			}
			break
		}
		url = resp.NextLink
	}

	a.logger.InfoWithFields("Fetch complete", map[string]interface{}{
		"chat_id":       chatID,
		"pages_fetched": fetched,
		"pages_written": written,
		"messages":      messages,
	})
	return written, nil
}

// Harvest scans all persisted pages for hosted image references and downloads
// each distinct one into the archive directory
func (a *Archiver) Harvest() (*images.Report, error) {
	h := images.NewHarvester(a.store, a.client, a.logger)
	return h.Run()
}

// Render produces the HTML transcript from the persisted pages and image
// index, returning the output path
func (a *Archiver) Render() (string, error) {
	lookup := a.loadEmoticons()
	r := transcript.NewRenderer(a.store, a.client, lookup, a.cfg.Emoticons.Dir, a.logger)

	out := filepath.Join(a.cfg.Archive.TargetDir, transcript.TranscriptFilename)
	if err := r.Render(out); err != nil {
		return "", err
	}
	return out, nil
}

// loadEmoticons loads the local emoticon catalog. A missing catalog is not
// fatal; reactions just render without icons.
func (a *Archiver) loadEmoticons() *emoticons.Lookup {
	path := filepath.Join(a.cfg.Emoticons.Dir, emoticons.CatalogFilename)
	catalog, err := emoticons.LoadCatalog(path)
	if err != nil {
		a.logger.WithError(err).Warn("Emoticon catalog unavailable, reactions will render without icons")
		return emoticons.NewLookup(&emoticons.Catalog{})
	}
	return emoticons.NewLookup(catalog)
}

// FetchEmoticons refreshes the local emoticon catalog and icon assets
func (a *Archiver) FetchEmoticons() error {
	f := emoticons.NewFetcher(a.client, a.cfg.Emoticons, a.cfg.Retry, a.logger)
	return f.Run()
}
