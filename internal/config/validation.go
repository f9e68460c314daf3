package config

import (
	"fmt"
	"os"
	"regexp"
)

// collectionNamePattern restricts collection names to safe SQL identifier
// characters. The vector store re-validates before emitting DDL; this check
// fails fast at startup with a clearer message.
var collectionNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	// API key validation (required for all AI operations).
	// Genkit reads the key directly from the environment; we only verify presence.
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required\n"+
			"Get your API key at: https://ai.google.dev/gemini-api/docs/api-key",
			ErrMissingAPIKey)
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}

	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedderModel)
	}

	// gemini-embedding-001 supports output dimensionality between 128 and 3072
	if c.Dimension < 128 || c.Dimension > 3072 {
		return fmt.Errorf("%w: must be between 128 and 3072, got %d", ErrInvalidDimension, c.Dimension)
	}

	if !collectionNamePattern.MatchString(c.Collection) {
		return fmt.Errorf("%w: %q must match %s", ErrInvalidCollection, c.Collection, collectionNamePattern)
	}

	if c.TopK < 1 || c.TopK > 10 {
		return fmt.Errorf("%w: must be between 1 and 10, got %d", ErrInvalidTopK, c.TopK)
	}

	// ef_search must be at least top-k for HNSW to return k candidates
	if c.EfSearch < c.TopK || c.EfSearch > 1000 {
		return fmt.Errorf("%w: must be between top_k (%d) and 1000, got %d", ErrInvalidEfSearch, c.TopK, c.EfSearch)
	}

	if c.BatchSize < 1 || c.BatchSize > 1000 {
		return fmt.Errorf("%w: must be between 1 and 1000, got %d", ErrInvalidBatchSize, c.BatchSize)
	}

	// PostgreSQL configuration validation
	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host cannot be empty", ErrInvalidPostgresHost)
	}

	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d", ErrInvalidPostgresPort, c.PostgresPort)
	}

	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: database name cannot be empty", ErrInvalidPostgresDBName)
	}

	return nil
}
