// Package embed generates dense vector embeddings for corpus documents and
// user queries.
//
// The Gemini embedding model embeds documents and queries asymmetrically
// (different task types) while keeping both in the same vector space, so
// cosine similarity between a query vector and a document vector is
// meaningful. Callers declare their intent per call; the client maps it to
// the provider task type.
//
// The client performs exactly one provider call per invocation and no
// internal retries; retry and throttling policy belongs to callers
// (the indexer rate-limits batch embedding, the agent retries transient
// generation failures).
package embed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"google.golang.org/genai"
)

// ErrEmptyInput indicates the caller provided blank text.
// Returned before any provider call is made.
var ErrEmptyInput = errors.New("input text is empty")

// Intent selects the provider's embedding mode.
type Intent string

const (
	// IntentDocument embeds corpus content for indexing.
	IntentDocument Intent = "document"

	// IntentQuery embeds a user query for search.
	IntentQuery Intent = "query"
)

// taskType maps an Intent to the Gemini embedding task type.
func (in Intent) taskType() string {
	if in == IntentQuery {
		return "RETRIEVAL_QUERY"
	}
	return "RETRIEVAL_DOCUMENT"
}

// Client wraps a Genkit embedder with intent-aware task types.
//
// The result vector length is determined by the provider (truncated to
// dimension when configured) and is NOT validated here; dimension
// enforcement is the vector store's responsibility at insert time.
type Client struct {
	embedder  ai.Embedder
	dimension int32 // requested output dimensionality; 0 = provider default
	logger    *slog.Logger
}

// New creates an embedding client.
//
// dimension > 0 requests truncated output from the provider
// (gemini-embedding-001 supports this via Matryoshka Representation
// Learning); 0 keeps the model's native dimensionality.
func New(embedder ai.Embedder, dimension int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		embedder:  embedder,
		dimension: int32(dimension), // #nosec G115 -- config validation bounds dimension to [128, 3072]
		logger:    logger,
	}
}

// Embed converts text into a vector using the given intent.
//
// Whitespace-only text fails with ErrEmptyInput without contacting the
// provider.
func (c *Client) Embed(ctx context.Context, text string, intent Intent) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	cfg := &genai.EmbedContentConfig{
		TaskType: intent.taskType(),
	}
	if c.dimension > 0 {
		dim := c.dimension
		cfg.OutputDimensionality = &dim
	}

	resp, err := c.embedder.Embed(ctx, &ai.EmbedRequest{
		Input:   []*ai.Document{ai.DocumentFromText(text, nil)},
		Options: cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding text (%s): %w", intent, err)
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding returned (%s)", intent)
	}

	vec := resp.Embeddings[0].Embedding
	c.logger.Debug("embedded text", "intent", string(intent), "text_length", len(text), "dimension", len(vec))
	return vec, nil
}
