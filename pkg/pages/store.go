package pages

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"chatarchiver/pkg/graph"
	"chatarchiver/pkg/logger"
)

// pageFilePattern matches persisted page filenames and captures the numeric
// index. The index is zero-padded to at least five digits but may grow.
var pageFilePattern = regexp.MustCompile(`^messages-(\d{5,})\.json$`)

// Store persists and re-reads numbered raw message pages in one archive
// directory. The fetch stage is the sole writer.
type Store struct {
	dir    string
	logger logger.Logger
}

// NewStore creates a page store rooted at dir, creating it if needed
func NewStore(dir string, log logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &Store{dir: dir, logger: log}, nil
}

// Dir returns the archive directory path
func (s *Store) Dir() string {
	return s.dir
}

// Filename returns the page filename for a given index
func Filename(index int) string {
	return fmt.Sprintf("messages-%05d.json", index)
}

// List returns the persisted page filenames sorted ascending by embedded
// numeric index. The fixed-width zero padding makes the lexicographic sort on
// names agree with the numeric order, but indexes are compared numerically so
// pages past 99999 still sort correctly.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive directory: %w", err)
	}

	type page struct {
		name  string
		index int
	}
	var found []page
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := pageFilePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		index, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		found = append(found, page{name: entry.Name(), index: index})
	}

	sort.Slice(found, func(i, j int) bool { return found[i].index < found[j].index })

	names := make([]string, len(found))
	for i, p := range found {
		names[i] = p.name
	}
	return names, nil
}

// NextIndex returns the page index the next write should use: one past the
// highest existing index, or 0 for an empty directory. Prior runs' pages are
// never renumbered or overwritten.
func (s *Store) NextIndex() (int, error) {
	names, err := s.List()
	if err != nil {
		return 0, err
	}
	if len(names) == 0 {
		return 0, nil
	}

	last := pageFilePattern.FindStringSubmatch(names[len(names)-1])
	index, err := strconv.Atoi(last[1])
	if err != nil {
		return 0, fmt.Errorf("malformed page filename %q: %w", names[len(names)-1], err)
	}
	return index + 1, nil
}

// Write persists one page's raw value array pretty-printed, via a temp file
// and atomic rename so a partial write never leaves a readable page behind
func (s *Store) Write(index int, value []json.RawMessage) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode page %d: %w", index, err)
	}

	path := filepath.Join(s.dir, Filename(index))
	tempPath := path + ".tmp"

	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write page file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename page file: %w", err)
	}

	s.logger.DebugWithFields("page persisted", map[string]interface{}{
		"file":     Filename(index),
		"messages": len(value),
	})
	return nil
}

// Read decodes one persisted page into messages, preserving file order
func (s *Store) Read(name string) ([]graph.Message, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to read page %s: %w", name, err)
	}

	var messages []graph.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode page %s: %w", name, err)
	}
	return messages, nil
}

// ReadAll loads every page in order and concatenates the messages
func (s *Store) ReadAll() ([]graph.Message, error) {
	names, err := s.List()
	if err != nil {
		return nil, err
	}

	var all []graph.Message
	for _, name := range names {
		messages, err := s.Read(name)
		if err != nil {
			return nil, err
		}
		all = append(all, messages...)
	}
	return all, nil
}
