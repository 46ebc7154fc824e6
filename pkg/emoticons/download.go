package emoticons

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"chatarchiver/internal/downloader"
	"chatarchiver/pkg/config"
	"chatarchiver/pkg/logger"
	"chatarchiver/pkg/retry"
)

// Client covers the HTTP operations the fetcher needs
type Client interface {
	GetJSON(url string, target interface{}) error
	Download(url string) (io.ReadCloser, error)
}

// Fetcher downloads the emoticon catalog and its icon assets. Unlike the
// archive core, asset downloads here are retried with backoff; the catalog is
// static CDN content.
type Fetcher struct {
	client   Client
	dl       *downloader.Downloader
	cfg      config.EmoticonsConfig
	retryCfg *retry.Config
	logger   logger.Logger
}

// NewFetcher creates a catalog fetcher
func NewFetcher(client Client, cfg config.EmoticonsConfig, retryCfg config.RetryConfig, log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.GetLogger()
	}

	var rc *retry.Config
	if retryCfg.Enabled {
		rc = &retry.Config{
			MaxAttempts: retryCfg.MaxAttempts,
			Backoff: &retry.ExponentialBackoff{
				BaseDelay:    retryCfg.BaseDelay,
				MaxDelay:     retryCfg.MaxDelay,
				Multiplier:   2.0,
				JitterFactor: 0.1,
			},
			RetryIf: retry.DefaultRetryIf,
			Logger:  log,
		}
	}

	return &Fetcher{
		client:   client,
		dl:       downloader.New(client, log),
		cfg:      cfg,
		retryCfg: rc,
		logger:   log,
	}
}

// Run fetches the catalog metadata and every icon not already on disk
func (f *Fetcher) Run() error {
	if err := os.MkdirAll(f.cfg.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create emoticon directory: %w", err)
	}

	var catalog Catalog
	if err := f.do(func() error {
		return f.client.GetJSON(f.cfg.CatalogURL, &catalog)
	}); err != nil {
		return fmt.Errorf("failed to fetch emoticon catalog: %w", err)
	}

	if err := f.saveCatalog(&catalog); err != nil {
		return err
	}

	downloaded, skipped, failed := 0, 0, 0
	for _, category := range catalog.Categories {
		for i := range category.Emoticons {
			e := &category.Emoticons[i]
			dest := filepath.Join(f.cfg.Dir, e.IconFilename())

			if _, err := os.Stat(dest); err == nil {
				skipped++
				continue
			}

			url := fmt.Sprintf("%s/%s", f.cfg.AssetBaseURL, e.IconFilename())
			if err := f.do(func() error {
				_, err := f.dl.Fetch(url, dest)
				return err
			}); err != nil {
				failed++
				f.logger.WithError(err).WithField("emoticon", e.ID).Error("Icon download failed")
				continue
			}
			downloaded++
		}
	}

	f.logger.InfoWithFields("Emoticon catalog fetched", map[string]interface{}{
		"downloaded": downloaded,
		"skipped":    skipped,
		"failed":     failed,
	})

	if failed > 0 {
		return fmt.Errorf("%d emoticon icon downloads failed", failed)
	}
	return nil
}

func (f *Fetcher) saveCatalog(catalog *Catalog) error {
	data, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode emoticon catalog: %w", err)
	}

	path := filepath.Join(f.cfg.Dir, CatalogFilename)
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write emoticon catalog: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename emoticon catalog: %w", err)
	}
	return nil
}

func (f *Fetcher) do(op retry.Operation) error {
	if f.retryCfg == nil {
		return op()
	}
	return retry.Do(op, f.retryCfg)
}
