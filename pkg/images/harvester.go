// Package images implements the image harvest stage: a full scan of all
// persisted pages that deduplicates embedded image references by URL,
// downloads each exactly once, and persists the URL-to-filename index.
package images

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"chatarchiver/internal/downloader"
	"chatarchiver/pkg/graph"
	"chatarchiver/pkg/logger"
	"chatarchiver/pkg/pages"
)

// Report summarizes one harvest pass. Failures are captured per URL so a
// single bad download neither aborts the scan nor corrupts the index entries
// of URLs that succeeded.
type Report struct {
	PagesScanned int               `json:"pages_scanned"`
	URLsSeen     int               `json:"urls_seen"`
	Downloaded   int               `json:"downloaded"`
	Failed       map[string]string `json:"failed,omitempty"`
	CompletedAt  time.Time         `json:"completed_at"`
}

// Harvester scans persisted pages for hosted-image URLs and downloads them
type Harvester struct {
	store  *pages.Store
	dl     *downloader.Downloader
	logger logger.Logger
}

// NewHarvester creates a harvester over the given page store and client
func NewHarvester(store *pages.Store, client downloader.Getter, log logger.Logger) *Harvester {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Harvester{
		store:  store,
		dl:     downloader.New(client, log),
		logger: log,
	}
}

// Run performs one full harvest pass: pages in page order, messages in page
// order, downloads in first-seen URL order. The index is written once at the
// end and fully replaces any prior index.
func (h *Harvester) Run() (*Report, error) {
	names, err := h.store.List()
	if err != nil {
		return nil, err
	}

	index := make(map[string]string)
	report := &Report{Failed: make(map[string]string)}
	next := 0

	for _, name := range names {
		messages, err := h.store.Read(name)
		if err != nil {
			return nil, err
		}
		report.PagesScanned++

		for i := range messages {
			h.harvestMessage(&messages[i], index, report, &next)
		}
	}

	if err := SaveIndex(h.store.Dir(), index); err != nil {
		return nil, err
	}
	if err := h.saveReport(report); err != nil {
		h.logger.WithError(err).Warn("Failed to write harvest report")
	}

	h.logger.InfoWithFields("Harvest completed", map[string]interface{}{
		"pages":      report.PagesScanned,
		"urls":       report.URLsSeen,
		"downloaded": report.Downloaded,
		"failed":     len(report.Failed),
	})
	return report, nil
}

// harvestMessage extracts and downloads image references from one message.
// Only rich bodies are scanned; each URL is attempted at most once per pass.
func (h *Harvester) harvestMessage(m *graph.Message, index map[string]string, report *Report, next *int) {
	if m.Body.ContentType != graph.ContentTypeHTML {
		return
	}

	for _, url := range graph.HostedContentPattern.FindAllString(m.Body.Content, -1) {
		if _, ok := index[url]; ok {
			continue
		}
		if _, ok := report.Failed[url]; ok {
			continue
		}

		report.URLsSeen++
		filename := Filename(*next)
		*next++

		if _, err := h.dl.Fetch(url, filepath.Join(h.store.Dir(), filename)); err != nil {
			report.Failed[url] = err.Error()
			logger.LogImageDownload(url, filename, false, err)
			continue
		}

		index[url] = filename
		report.Downloaded++
		logger.LogImageDownload(url, filename, true, nil)
	}
}

func (h *Harvester) saveReport(report *Report) error {
	report.CompletedAt = time.Now()

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode harvest report: %w", err)
	}
	return os.WriteFile(filepath.Join(h.store.Dir(), ReportFilename), data, 0644)
}
