package pages

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"chatarchiver/pkg/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), logger.NewTestLogger())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

func rawPage(t *testing.T, ids ...string) []json.RawMessage {
	t.Helper()
	var value []json.RawMessage
	for _, id := range ids {
		value = append(value, json.RawMessage(`{"id": "`+id+`"}`))
	}
	return value
}

func TestListReturnsNumericOrder(t *testing.T) {
	store := newTestStore(t)

	// Write out of order; filesystem listing order must not matter
	for _, index := range []int{2, 0, 10, 1} {
		if err := store.Write(index, rawPage(t, "m")); err != nil {
			t.Fatalf("Failed to write page %d: %v", index, err)
		}
	}

	names, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	want := []string{"messages-00000.json", "messages-00001.json", "messages-00002.json", "messages-00010.json"}
	if len(names) != len(want) {
		t.Fatalf("Expected %d pages, got %d", len(want), len(names))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Page %d: expected %s, got %s", i, want[i], names[i])
		}
	}
}

func TestListIgnoresForeignFiles(t *testing.T) {
	store := newTestStore(t)

	if err := store.Write(0, rawPage(t, "m")); err != nil {
		t.Fatalf("Failed to write page: %v", err)
	}
	for _, name := range []string{"images.json", "index.html", "messages-abc.json", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(store.Dir(), name), []byte("{}"), 0644); err != nil {
			t.Fatalf("Failed to create file %s: %v", name, err)
		}
	}

	names, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(names) != 1 || names[0] != "messages-00000.json" {
		t.Errorf("Expected only the page file, got %v", names)
	}
}

func TestNextIndexEmptyDirectory(t *testing.T) {
	store := newTestStore(t)

	index, err := store.NextIndex()
	if err != nil {
		t.Fatalf("NextIndex failed: %v", err)
	}
	if index != 0 {
		t.Errorf("Expected index 0 for empty directory, got %d", index)
	}
}

func TestNextIndexContinuesAfterExistingPages(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 3; i++ {
		if err := store.Write(i, rawPage(t, "m")); err != nil {
			t.Fatalf("Failed to write page %d: %v", i, err)
		}
	}

	index, err := store.NextIndex()
	if err != nil {
		t.Fatalf("NextIndex failed: %v", err)
	}
	if index != 3 {
		t.Errorf("Expected next index 3, got %d", index)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	store := newTestStore(t)

	value := []json.RawMessage{
		json.RawMessage(`{"id": "1", "body": {"contentType": "text", "content": "hello"}}`),
		json.RawMessage(`{"id": "2", "body": {"contentType": "html", "content": "<p>hi</p>"}}`),
	}
	if err := store.Write(0, value); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	messages, err := store.Read("messages-00000.json")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(messages))
	}
	if messages[0].ID != "1" || messages[1].ID != "2" {
		t.Errorf("Message order not preserved: %s, %s", messages[0].ID, messages[1].ID)
	}
	if messages[1].Body.Content != "<p>hi</p>" {
		t.Errorf("Body content not preserved: %q", messages[1].Body.Content)
	}
}

func TestWriteIsPrettyPrinted(t *testing.T) {
	store := newTestStore(t)

	if err := store.Write(0, rawPage(t, "1")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(store.Dir(), "messages-00000.json"))
	if err != nil {
		t.Fatalf("Failed to read page file: %v", err)
	}
	if string(data[:2]) != "[\n" {
		t.Errorf("Expected indented JSON array, got %q", string(data[:20]))
	}
}

func TestReadAllConcatenatesInPageOrder(t *testing.T) {
	store := newTestStore(t)

	if err := store.Write(1, rawPage(t, "c", "d")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := store.Write(0, rawPage(t, "a", "b")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	all, err := store.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}

	var ids []string
	for _, m := range all {
		ids = append(ids, m.ID)
	}
	want := []string{"a", "b", "c", "d"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("Expected order %v, got %v", want, ids)
		}
	}
}
