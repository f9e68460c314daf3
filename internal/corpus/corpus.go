// Package corpus loads the prepared document corpus artifact.
//
// The corpus is produced by an external preparation stage (crawling and
// chunking are out of scope) and arrives as a JSON array of content items.
// Items are immutable once loaded; the indexer consumes them in file order.
package corpus

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrEmptyCorpus indicates the artifact parsed successfully but contains no items.
var ErrEmptyCorpus = errors.New("corpus contains no items")

// MetadataOriginalURL is the metadata key carrying source attribution.
// Items without it are indexed with an empty source URL.
const MetadataOriginalURL = "original_url"

// Item is a single corpus record awaiting embedding.
type Item struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

// OriginalURL returns the item's source attribution, or "" when absent.
func (it Item) OriginalURL() string {
	if it.Metadata == nil {
		return ""
	}
	if u, ok := it.Metadata[MetadataOriginalURL].(string); ok {
		return u
	}
	return ""
}

// Load reads and parses a corpus artifact.
//
// A missing or corrupt artifact is a startup-fatal condition for the index
// command; errors carry enough context for the operator to locate the file.
func Load(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading corpus artifact %q: %w", path, err)
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parsing corpus artifact %q: %w", path, err)
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptyCorpus, path)
	}

	return items, nil
}
