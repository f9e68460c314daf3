// Package retrieval turns a user query into a formatted context block
// drawn from the vector store.
//
// The package exposes two surfaces: a structured Search method returning
// (string, error) for direct callers and tests, and a Genkit tool named
// search_vector_db for the model. Only the tool adapter collapses errors
// into text, since the model cannot handle a Go error value.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/pelican0/pelican/internal/embed"
	"github.com/pelican0/pelican/internal/vecstore"
)

// ToolName is the tool identifier the model uses to call retrieval.
const ToolName = "search_vector_db"

// toolDescription tells the model when to reach for retrieval.
const toolDescription = "Search the knowledge base and return the top matching documents. " +
	"Use this for any question about indexed content: programs, courses, admissions, curriculum, or policies. " +
	"Returns: result blocks with relevance score, source URL, and document text."

// sourceFallback stands in for documents indexed without attribution.
const sourceFallback = "Unknown"

// contentFallback stands in for documents with an empty stored body.
const contentFallback = "No content found"

// Embedder converts a query into a vector. Satisfied by *embed.Client.
type Embedder interface {
	Embed(ctx context.Context, text string, intent embed.Intent) ([]float32, error)
}

// Searcher runs k-NN queries against a collection. Satisfied by
// *vecstore.Store.
type Searcher interface {
	Search(ctx context.Context, name string, vector []float32, k, efSearch int) ([]vecstore.Result, error)
}

// Tool retrieves and formats context for a query.
type Tool struct {
	embedder   Embedder
	searcher   Searcher
	collection string
	topK       int
	efSearch   int
	timeout    time.Duration
	logger     *slog.Logger
}

// Config holds Tool construction parameters.
type Config struct {
	Embedder   Embedder
	Searcher   Searcher
	Collection string
	TopK       int
	EfSearch   int
	// Timeout bounds a single end-to-end search (embed + k-NN).
	// Zero means no per-call deadline beyond the caller's context.
	Timeout time.Duration
	Logger  *slog.Logger
}

// New creates a retrieval Tool.
func New(cfg Config) (*Tool, error) {
	if cfg.Embedder == nil {
		return nil, fmt.Errorf("retrieval: embedder is required")
	}
	if cfg.Searcher == nil {
		return nil, fmt.Errorf("retrieval: searcher is required")
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("retrieval: collection is required")
	}
	if cfg.TopK < 1 {
		return nil, fmt.Errorf("retrieval: top-k must be positive, got %d", cfg.TopK)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Tool{
		embedder:   cfg.Embedder,
		searcher:   cfg.Searcher,
		collection: cfg.Collection,
		topK:       cfg.TopK,
		efSearch:   cfg.EfSearch,
		timeout:    cfg.Timeout,
		logger:     logger,
	}, nil
}

// Search embeds the query, runs k-NN search, and formats the results.
//
// An empty result set returns the not-found sentinel with a nil error:
// finding nothing is an answer, not a failure. Errors are returned as
// errors; collapsing them into text is the tool adapter's job.
func (t *Tool) Search(ctx context.Context, query string) (string, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	vector, err := t.embedder.Embed(ctx, query, embed.IntentQuery)
	if err != nil {
		return "", fmt.Errorf("embedding query: %w", err)
	}

	results, err := t.searcher.Search(ctx, t.collection, vector, t.topK, t.efSearch)
	if err != nil {
		return "", fmt.Errorf("searching %q: %w", t.collection, err)
	}

	if len(results) == 0 {
		t.logger.Debug("no results", "query", query)
		return NotFoundMessage(query), nil
	}

	t.logger.Debug("search succeeded",
		"query", query, "results", len(results), "top_score", results[0].Score)
	return formatResults(results), nil
}

// NotFoundMessage returns the exact sentinel for a query with no relevant
// results. Downstream grounding checks match this string verbatim.
func NotFoundMessage(query string) string {
	return "No relevant information found for: " + query
}

// formatResults renders result blocks in rank order.
func formatResults(results []vecstore.Result) string {
	blocks := make([]string, len(results))
	for i, r := range results {
		content := r.Payload.Content
		if content == "" {
			content = contentFallback
		}
		source := r.Payload.SourceURL
		if source == "" {
			source = sourceFallback
		}
		blocks[i] = fmt.Sprintf("Result %d (Score: %.3f):\nSource: %s\n%s\n",
			i+1, r.Score, source, content)
	}
	return strings.Join(blocks, "\n")
}

// searchInput is the tool's model-facing parameter schema.
type searchInput struct {
	Query string `json:"query" jsonschema_description:"The user question to search the knowledge base with"`
}

// Register defines the search_vector_db tool on the Genkit instance.
//
// The returned tool never fails: errors are collapsed into a text message
// so the model can read, and relay, what went wrong instead of the
// generation aborting mid-turn.
func (t *Tool) Register(g *genkit.Genkit) ai.Tool {
	return genkit.DefineTool(g, ToolName, toolDescription,
		func(tc *ai.ToolContext, in searchInput) (string, error) {
			out, err := t.Search(tc.Context, in.Query)
			if err != nil {
				t.logger.Warn("search failed", "query", in.Query, "error", err)
				return fmt.Sprintf("Error during vector DB search: %v", err), nil
			}
			return out, nil
		})
}
