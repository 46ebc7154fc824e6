// Package downloader copies remote binary assets to local files. Downloads
// run strictly one at a time; the pipeline has no concurrent network calls.
package downloader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"chatarchiver/pkg/logger"
)

// Getter performs a streamed authenticated GET of a binary asset
type Getter interface {
	Download(url string) (io.ReadCloser, error)
}

// Downloader streams remote assets into local files
type Downloader struct {
	client Getter
	logger logger.Logger
}

// New creates a Downloader using the given client
func New(client Getter, log logger.Logger) *Downloader {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Downloader{client: client, logger: log}
}

// Fetch downloads url into destPath. The body is streamed to a temp file and
// renamed into place only after the full stream completed, so destPath either
// holds the complete asset or does not exist.
func (d *Downloader) Fetch(url, destPath string) (int64, error) {
	start := time.Now()

	body, err := d.client.Download(url)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	tempPath := destPath + ".tmp"
	out, err := os.Create(tempPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file: %w", err)
	}

	written, err := io.Copy(out, body)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempPath)
		return 0, fmt.Errorf("failed to save asset data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempPath)
		return 0, fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempPath, destPath); err != nil {
		os.Remove(tempPath)
		return 0, fmt.Errorf("failed to rename temporary file: %w", err)
	}

	d.logger.DebugWithFields("asset downloaded", map[string]interface{}{
		"url":         url,
		"dest":        destPath,
		"size_bytes":  written,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return written, nil
}
