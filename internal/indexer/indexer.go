// Package indexer builds vector collections from corpus items.
//
// A build is a full rebuild: the target collection is reset, every corpus
// item is embedded and upserted, and per-item failures are isolated so one
// bad item never aborts the run. The returned BatchResult accounts for
// every input item exactly once.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/pelican0/pelican/internal/corpus"
	"github.com/pelican0/pelican/internal/embed"
	"github.com/pelican0/pelican/internal/vecstore"
)

// Embedder converts text into vectors. Consumer-side interface, satisfied
// by *embed.Client.
type Embedder interface {
	Embed(ctx context.Context, text string, intent embed.Intent) ([]float32, error)
}

// VectorStore persists points into named collections. Consumer-side
// interface, satisfied by *vecstore.Store.
type VectorStore interface {
	CreateOrReplace(ctx context.Context, name string, dim int, metric vecstore.Metric) error
	Upsert(ctx context.Context, name string, points []vecstore.Point) error
}

// ErrNoItems indicates a build was requested with an empty corpus.
var ErrNoItems = errors.New("indexer: no items to index")

// ItemError records a single item that could not be indexed.
type ItemError struct {
	ID  string
	Err error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("item %q: %v", e.ID, e.Err)
}

// BatchResult summarizes a build: which items were indexed, which were
// skipped as unembeddable, and which failed with errors. Every input item
// lands in exactly one of the three lists.
type BatchResult struct {
	Succeeded []string
	Skipped   []string
	Failed    []ItemError
}

// Total returns the number of items accounted for.
func (r *BatchResult) Total() int {
	return len(r.Succeeded) + len(r.Skipped) + len(r.Failed)
}

// ErrorPreview formats up to n failures for operator-facing summaries.
// Returns "" when nothing failed.
func (r *BatchResult) ErrorPreview(n int) string {
	if len(r.Failed) == 0 {
		return ""
	}
	if n > len(r.Failed) {
		n = len(r.Failed)
	}

	var b strings.Builder
	for i := range n {
		fmt.Fprintf(&b, "  - %s\n", r.Failed[i].Error())
	}
	if rest := len(r.Failed) - n; rest > 0 {
		fmt.Fprintf(&b, "  ... and %d more\n", rest)
	}
	return b.String()
}

// Builder embeds corpus items and writes them into a vector collection.
type Builder struct {
	embedder  Embedder
	store     VectorStore
	limiter   *rate.Limiter
	dimension int
	batchSize int
	logger    *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithBatchSize sets how many points are buffered before each upsert.
func WithBatchSize(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.batchSize = n
		}
	}
}

// WithLimiter throttles embedding calls, typically to stay inside the
// provider's requests-per-minute quota. Nil means no throttling.
func WithLimiter(l *rate.Limiter) Option {
	return func(b *Builder) {
		b.limiter = l
	}
}

// New creates a Builder. dimension is the fixed vector size of the target
// collection; every embedding must match it.
func New(embedder Embedder, store VectorStore, dimension int, logger *slog.Logger, opts ...Option) *Builder {
	if logger == nil {
		logger = slog.Default()
	}

	b := &Builder{
		embedder:  embedder,
		store:     store,
		dimension: dimension,
		batchSize: 100,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build resets the named collection and indexes every item into it.
//
// Items with empty content are skipped. An item whose embedding fails, or
// whose vector does not match the collection dimension, is recorded in
// Failed and the build continues. Build returns a non-nil error only for
// fatal conditions: empty input, collection reset failure, or context
// cancellation. Even then the BatchResult reflects progress so far.
func (b *Builder) Build(ctx context.Context, collection string, items []corpus.Item) (*BatchResult, error) {
	result := &BatchResult{}

	if len(items) == 0 {
		return result, ErrNoItems
	}

	if err := b.store.CreateOrReplace(ctx, collection, b.dimension, vecstore.MetricCosine); err != nil {
		return result, fmt.Errorf("resetting collection %q: %w", collection, err)
	}

	// Build id correlates the log lines of one run across sub-batches.
	logger := b.logger.With("build_id", uuid.NewString())
	logger.Info("index build started",
		"collection", collection, "items", len(items), "dimension", b.dimension)

	var (
		pending []vecstore.Point
		ordinal uint64
		staged  []string // item ids matching pending, flushed together
	)

	flush := func() {
		if len(pending) == 0 {
			return
		}
		if err := b.store.Upsert(ctx, collection, pending); err != nil {
			// The whole sub-batch is rejected; each staged item fails.
			for _, id := range staged {
				result.Failed = append(result.Failed, ItemError{ID: id, Err: err})
			}
			logger.Warn("sub-batch upsert failed",
				"collection", collection, "items", len(staged), "error", err)
		} else {
			result.Succeeded = append(result.Succeeded, staged...)
		}
		pending = pending[:0]
		staged = staged[:0]
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			flush()
			return result, fmt.Errorf("index build interrupted: %w", err)
		}

		if strings.TrimSpace(item.Content) == "" {
			result.Skipped = append(result.Skipped, item.ID)
			logger.Debug("skipping empty item", "id", item.ID)
			continue
		}

		if b.limiter != nil {
			if err := b.limiter.Wait(ctx); err != nil {
				flush()
				return result, fmt.Errorf("index build interrupted: %w", err)
			}
		}

		vector, err := b.embedder.Embed(ctx, item.Content, embed.IntentDocument)
		if err != nil {
			result.Failed = append(result.Failed, ItemError{ID: item.ID, Err: err})
			logger.Warn("embedding failed", "id", item.ID, "error", err)
			continue
		}
		if len(vector) != b.dimension {
			result.Failed = append(result.Failed, ItemError{
				ID:  item.ID,
				Err: fmt.Errorf("embedding has dimension %d, want %d", len(vector), b.dimension),
			})
			continue
		}

		pending = append(pending, vecstore.Point{
			ID:     ordinal,
			Vector: vector,
			Payload: vecstore.Payload{
				ID:          item.ID,
				Content:     item.Content,
				ContentType: vecstore.ContentTypeText,
				SourceURL:   item.OriginalURL(),
				Metadata:    item.Metadata,
			},
		})
		staged = append(staged, item.ID)
		ordinal++

		if len(pending) >= b.batchSize {
			flush()
		}
	}
	flush()

	logger.Info("index build finished",
		"collection", collection,
		"succeeded", len(result.Succeeded),
		"skipped", len(result.Skipped),
		"failed", len(result.Failed))

	return result, nil
}
