package vecstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// collectionNamePattern restricts collection names to safe SQL identifier
// characters. Collection names become table names, so this whitelist is the
// injection gate for every identifier interpolated into DDL and queries.
var collectionNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)

// tablePrefix namespaces collection tables away from the registry and
// schema_migrations.
const tablePrefix = "vec_"

// MaxEfSearch bounds the HNSW search effort tunable.
const MaxEfSearch = 1000

// Store manages named vector collections in PostgreSQL.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New creates a Store backed by the given connection pool.
// The pool must have pgvector types registered (see database.Open).
func New(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}
}

// validateName checks a collection name against the identifier whitelist.
func validateName(name string) error {
	if !collectionNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidCollection, name)
	}
	return nil
}

// tableName returns the SQL table name for a validated collection name.
func tableName(name string) string {
	return tablePrefix + name
}

// dimension looks up a collection's fixed dimension from the registry.
func (s *Store) dimension(ctx context.Context, name string) (int, error) {
	var dim int
	err := s.pool.QueryRow(ctx,
		`SELECT dimension FROM collections WHERE name = $1`, name).Scan(&dim)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCollection, name)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: reading collection registry: %v", ErrUnavailable, err)
	}
	return dim, nil
}

// CreateOrReplace idempotently (re)initializes a named collection with a
// fixed dimension and metric, destroying any existing data under that name.
//
// This is the reset-on-build policy: a full rebuild replaces the collection
// wholesale rather than migrating it incrementally.
func (s *Store) CreateOrReplace(ctx context.Context, name string, dim int, metric Metric) error {
	if err := validateName(name); err != nil {
		return err
	}
	if dim < 1 {
		return fmt.Errorf("%w: dimension must be positive, got %d", ErrDimensionMismatch, dim)
	}
	if metric != MetricCosine {
		return fmt.Errorf("unsupported metric %q (only %q)", metric, MetricCosine)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	table := tableName(name)

	// Identifiers cannot be parameterized; table derives from the validated
	// name and dim is a checked int.
	stmts := []string{
		fmt.Sprintf(`DROP TABLE IF EXISTS %s`, table),
		fmt.Sprintf(`CREATE TABLE %s (
			id BIGINT PRIMARY KEY,
			embedding vector(%d) NOT NULL,
			payload JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, table, dim),
		fmt.Sprintf(`CREATE INDEX %s_embedding_idx ON %s USING hnsw (embedding vector_cosine_ops)`, table, table),
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("initializing collection %q: %w", name, err)
		}
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO collections (name, dimension, metric)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE
		SET dimension = EXCLUDED.dimension,
		    metric = EXCLUDED.metric,
		    created_at = now()`,
		name, dim, string(metric)); err != nil {
		return fmt.Errorf("registering collection %q: %w", name, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing collection reset %q: %w", name, err)
	}

	s.logger.Info("collection created", "collection", name, "dimension", dim, "metric", string(metric))
	return nil
}

// Upsert inserts or overwrites points by point id.
//
// Every vector is checked against the collection's fixed dimension before
// anything is written: a mismatch fails with ErrDimensionMismatch and
// leaves the collection unchanged. Callers skip the offending item and
// continue; they must not abort their batch.
func (s *Store) Upsert(ctx context.Context, name string, points []Point) error {
	if err := validateName(name); err != nil {
		return err
	}
	if len(points) == 0 {
		return nil
	}

	dim, err := s.dimension(ctx, name)
	if err != nil {
		return err
	}
	for _, p := range points {
		if len(p.Vector) != dim {
			return fmt.Errorf("%w: point %d has dimension %d, collection %q expects %d",
				ErrDimensionMismatch, p.ID, len(p.Vector), name, dim)
		}
	}

	batch := &pgx.Batch{}
	sql := fmt.Sprintf(`
		INSERT INTO %s (id, embedding, payload)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET embedding = EXCLUDED.embedding,
		    payload = EXCLUDED.payload`, tableName(name))

	for _, p := range points {
		payloadJSON, err := json.Marshal(p.Payload)
		if err != nil {
			return fmt.Errorf("marshaling payload for point %d: %w", p.ID, err)
		}
		batch.Queue(sql, int64(p.ID), pgvector.NewVector(p.Vector), payloadJSON) // #nosec G115 -- point ids are small insertion ordinals
	}

	br := s.pool.SendBatch(ctx, batch)
	defer func() { _ = br.Close() }()

	for range points {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upserting into %q: %w", name, err)
		}
	}

	s.logger.Debug("points upserted", "collection", name, "count", len(points))
	return nil
}

// Search returns up to k results ordered by descending cosine similarity.
//
// efSearch tunes HNSW search effort: higher values never decrease recall
// for the same index state, at the cost of latency. Ties in score resolve
// by point id (insertion order), so repeated identical queries return
// identical rankings.
func (s *Store) Search(ctx context.Context, name string, vector []float32, k, efSearch int) ([]Result, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if k < 1 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	if efSearch < k {
		efSearch = k
	}
	if efSearch > MaxEfSearch {
		efSearch = MaxEfSearch
	}

	dim, err := s.dimension(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(vector) != dim {
		return nil, fmt.Errorf("%w: query vector has dimension %d, collection %q expects %d",
			ErrDimensionMismatch, len(vector), name, dim)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// SET LOCAL scopes the effort tunable to this transaction. The value
	// cannot be parameterized but is a bounded int.
	if _, err := tx.Exec(ctx, fmt.Sprintf(`SET LOCAL hnsw.ef_search = %d`, efSearch)); err != nil {
		return nil, fmt.Errorf("setting search effort: %w", err)
	}

	rows, err := tx.Query(ctx, fmt.Sprintf(`
		SELECT payload, 1 - (embedding <=> $1) AS score
		FROM %s
		ORDER BY embedding <=> $1, id
		LIMIT $2`, tableName(name)),
		pgvector.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", name, err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var payloadJSON []byte
		var score float64
		if err := rows.Scan(&payloadJSON, &score); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}

		var payload Payload
		if err := json.Unmarshal(payloadJSON, &payload); err != nil {
			return nil, fmt.Errorf("parsing result payload: %w", err)
		}

		results = append(results, Result{Payload: payload, Score: float32(score)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading search results: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("finishing search: %w", err)
	}

	s.logger.Debug("search completed", "collection", name, "k", k, "ef_search", efSearch, "results", len(results))
	return results, nil
}

// Count returns the number of points in a collection.
func (s *Store) Count(ctx context.Context, name string) (int, error) {
	if err := validateName(name); err != nil {
		return 0, err
	}
	if _, err := s.dimension(ctx, name); err != nil {
		return 0, err
	}

	var count int64
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, tableName(name))).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting points in %q: %w", name, err)
	}
	return int(count), nil
}
