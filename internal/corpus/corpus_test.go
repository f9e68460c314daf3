package corpus

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeArtifact(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing artifact: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeArtifact(t, `[
		{"id": "doc-1", "content": "Go is a statically typed language.", "metadata": {"original_url": "https://example.com/go"}},
		{"id": "doc-2", "content": "Pelicans are large water birds.", "metadata": {}}
	]`)

	items, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	if items[0].ID != "doc-1" {
		t.Errorf("items[0].ID = %q", items[0].ID)
	}
	if got := items[0].OriginalURL(); got != "https://example.com/go" {
		t.Errorf("OriginalURL() = %q", got)
	}
	if got := items[1].OriginalURL(); got != "" {
		t.Errorf("OriginalURL() = %q, want empty for missing key", got)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_CorruptJSON(t *testing.T) {
	path := writeArtifact(t, `{"not": "an array"`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for corrupt artifact")
	}
}

func TestLoad_EmptyCorpus(t *testing.T) {
	path := writeArtifact(t, `[]`)

	_, err := Load(path)
	if !errors.Is(err, ErrEmptyCorpus) {
		t.Fatalf("Load() = %v, want ErrEmptyCorpus", err)
	}
}

func TestOriginalURL_NilMetadata(t *testing.T) {
	it := Item{ID: "x", Content: "y"}
	if got := it.OriginalURL(); got != "" {
		t.Errorf("OriginalURL() = %q, want empty", got)
	}
}
