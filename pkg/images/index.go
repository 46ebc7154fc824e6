package images

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// IndexFilename is the URL-to-filename index persisted after a harvest
	IndexFilename = "images.json"

	// ReportFilename is the per-harvest summary written next to the index
	ReportFilename = "harvest-report.json"
)

// Filename returns the local filename assigned to the nth harvested image
func Filename(n int) string {
	return fmt.Sprintf("image-%05d", n)
}

// SaveIndex atomically writes the full URL-to-filename mapping, replacing any
// prior index. The index is never merged or appended.
func SaveIndex(dir string, index map[string]string) error {
	path := filepath.Join(dir, IndexFilename)
	tempPath := path + ".tmp"

	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary index file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(index); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode image index: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync index file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close index file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename index file: %w", err)
	}
	return nil
}

// LoadIndex reads the persisted index. A missing index is not an error; the
// renderer tolerates its absence.
func LoadIndex(dir string) (map[string]string, error) {
	data, err := os.ReadFile(filepath.Join(dir, IndexFilename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read image index: %w", err)
	}

	var index map[string]string
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to decode image index: %w", err)
	}
	return index, nil
}
