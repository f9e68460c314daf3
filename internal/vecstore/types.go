// Package vecstore implements the similarity-searchable vector index on
// PostgreSQL + pgvector.
//
// Each named collection is a dedicated table with a fixed-dimension vector
// column and an HNSW cosine index, plus a row in the collections registry
// recording its dimension and metric. CreateOrReplace is a deliberate
// reset-on-build operation: it drops any existing data under the name.
// Rebuilding must not run concurrently with live query traffic against the
// same collection; no read-during-rebuild consistency is provided.
//
// Store is safe for concurrent use by multiple goroutines.
package vecstore

import "errors"

// Sentinel errors checked with errors.Is().
var (
	// ErrUnavailable indicates the vector store cannot be reached.
	ErrUnavailable = errors.New("vector store unavailable")

	// ErrInvalidCollection indicates a malformed collection name.
	ErrInvalidCollection = errors.New("invalid collection name")

	// ErrUnknownCollection indicates the collection has not been created.
	ErrUnknownCollection = errors.New("unknown collection")

	// ErrDimensionMismatch indicates a vector's length disagrees with the
	// collection's fixed dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Metric is a vector distance metric.
type Metric string

// MetricCosine is the only supported metric. Scores are cosine similarity
// in [-1, 1], higher is more similar.
const MetricCosine Metric = "cosine"

// ContentTypeText marks plain-text payload content.
const ContentTypeText = "text"

// Payload is the document data stored alongside each vector and returned
// with every search hit.
type Payload struct {
	ID          string         `json:"id"`
	Content     string         `json:"content"`
	ContentType string         `json:"content_type"`
	SourceURL   string         `json:"source_url"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Point is an index-resident record. ID is index-local identity (the
// indexer assigns insertion ordinals); Payload.ID carries the corpus
// document id.
type Point struct {
	ID      uint64
	Vector  []float32
	Payload Payload
}

// Result is a single search hit. Results are ephemeral, produced fresh per
// query, ordered by descending Score with ties broken by point id.
type Result struct {
	Payload Payload
	Score   float32
}
