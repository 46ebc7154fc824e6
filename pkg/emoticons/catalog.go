// Package emoticons provides the read-only emoticon catalog lookup used to
// resolve reaction display names to icon files, plus the collaborator that
// downloads the catalog and its assets.
package emoticons

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// CatalogFilename is the catalog metadata file inside the emoticon directory
const CatalogFilename = "emoticons.json"

// Catalog is the externally supplied emoticon metadata structure
type Catalog struct {
	Categories []Category `json:"categories"`
}

// Category groups emoticons
type Category struct {
	Emoticons []Emoticon `json:"emoticons"`
}

// Emoticon is one catalog entry; Shortcuts are bracketed tokens like "(yes)"
type Emoticon struct {
	ID        string   `json:"id"`
	Etag      string   `json:"etag"`
	Shortcuts []string `json:"shortcuts"`
}

// IconFilename returns the asset filename for this emoticon
func (e *Emoticon) IconFilename() string {
	return fmt.Sprintf("%s_%s.png", e.ID, e.Etag)
}

// LoadCatalog reads the catalog metadata file
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read emoticon catalog: %w", err)
	}

	var catalog Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to decode emoticon catalog: %w", err)
	}
	return &catalog, nil
}

// Lookup is a read-only index over a catalog, constructed once and passed to
// the renderer
type Lookup struct {
	byShortcut map[string]*Emoticon
}

// NewLookup builds a lookup over the catalog. When the same shortcut appears
// in multiple emoticons, the first one in category order wins.
func NewLookup(catalog *Catalog) *Lookup {
	l := &Lookup{byShortcut: make(map[string]*Emoticon)}
	for ci := range catalog.Categories {
		for ei := range catalog.Categories[ci].Emoticons {
			e := &catalog.Categories[ci].Emoticons[ei]
			for _, shortcut := range e.Shortcuts {
				key := strings.ToLower(shortcut)
				if _, ok := l.byShortcut[key]; !ok {
					l.byShortcut[key] = e
				}
			}
		}
	}
	return l
}

// Find resolves a shortcut token case-insensitively
func (l *Lookup) Find(shortcut string) (*Emoticon, bool) {
	e, ok := l.byShortcut[strings.ToLower(shortcut)]
	return e, ok
}

// ShortcutForReaction derives the catalog shortcut token from a reaction's
// display name: lowercased and wrapped in parentheses, with "like" mapping to
// "(yes)" rather than "(like)".
func ShortcutForReaction(displayName string) string {
	name := strings.ToLower(displayName)
	if name == "like" {
		name = "yes"
	}
	return "(" + name + ")"
}
