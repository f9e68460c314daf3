// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.pelican/config.yaml)
//  3. Default values (sensible defaults for quick start)
//
// Main configuration categories:
//   - AI: chat model, embedder model, embedding dimension
//   - Retrieval: collection name, top-k, HNSW ef_search, query timeout
//   - Index: sub-batch size, embedding call rate limit
//   - Storage: PostgreSQL connection (see storage.go)
//
// Security: sensitive data (passwords) are never logged; the config
// directory uses 0750 permissions.
//
// Error Handling:
//   - Uses sentinel errors for Go-idiomatic error checking with errors.Is()
//   - Wrap with context using fmt.Errorf("%w: details", ErrXxx)
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates a required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidDimension indicates the embedding dimension is out of range.
	ErrInvalidDimension = errors.New("invalid embedding dimension")

	// ErrInvalidCollection indicates the collection name is invalid.
	ErrInvalidCollection = errors.New("invalid collection name")

	// ErrInvalidTopK indicates the retrieval top-k value is out of range.
	ErrInvalidTopK = errors.New("invalid top-k")

	// ErrInvalidEfSearch indicates the HNSW ef_search value is out of range.
	ErrInvalidEfSearch = errors.New("invalid ef_search")

	// ErrInvalidBatchSize indicates the index batch size is out of range.
	ErrInvalidBatchSize = errors.New("invalid batch size")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")
)

const (
	// DefaultGeminiModel is the default chat model for the agent.
	DefaultGeminiModel = "gemini-2.5-flash"

	// DefaultGeminiEmbedderModel is the default Gemini embedder model.
	// gemini-embedding-001 outputs 3072 dimensions by default, but supports
	// truncation to 768 via OutputDimensionality (Matryoshka Representation
	// Learning). The vector index is created with DefaultDimension columns.
	DefaultGeminiEmbedderModel = "gemini-embedding-001"

	// DefaultDimension is the embedding dimension for new collections.
	// The embedding client requests exactly this OutputDimensionality, so
	// vectors and vector(n) columns always agree.
	DefaultDimension = 768

	// DefaultCollection is the default vector collection name.
	DefaultCollection = "gemini_vectors"

	// DefaultTopK is the number of passages retrieved per query.
	// Retrieval breadth is intentionally small to keep grounding context tight.
	DefaultTopK = 3

	// DefaultEfSearch is the default HNSW search effort. Higher values trade
	// latency for recall.
	DefaultEfSearch = 128
)

// Config stores application configuration.
// SECURITY: sensitive fields are explicitly masked in MarshalJSON().
// When adding new sensitive fields (passwords, API keys, tokens), update
// MarshalJSON.
type Config struct {
	// AI model configuration
	ModelName     string `mapstructure:"model_name" json:"model_name"`
	EmbedderModel string `mapstructure:"embedder_model" json:"embedder_model"`
	Dimension     int    `mapstructure:"dimension" json:"dimension"`
	MaxTurns      int    `mapstructure:"max_turns" json:"max_turns"`

	// Retrieval configuration
	Collection     string `mapstructure:"collection" json:"collection"`
	TopK           int    `mapstructure:"top_k" json:"top_k"`
	EfSearch       int    `mapstructure:"ef_search" json:"ef_search"`
	QueryTimeoutMS int    `mapstructure:"query_timeout_ms" json:"query_timeout_ms"`

	// Index build configuration
	BatchSize      int     `mapstructure:"batch_size" json:"batch_size"`
	EmbedRate      float64 `mapstructure:"embed_rate" json:"embed_rate"` // embedding calls per second during a build
	EmbedRateBurst int     `mapstructure:"embed_rate_burst" json:"embed_rate_burst"`

	// Storage configuration (see storage.go for DSN/URL builders)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".pelican")

	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".") // Also support current directory

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use default values
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."},
			"config_name", "config.yaml")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL overrides individual postgres_* settings when set
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	// AI defaults
	v.SetDefault("model_name", DefaultGeminiModel)
	v.SetDefault("embedder_model", DefaultGeminiEmbedderModel)
	v.SetDefault("dimension", DefaultDimension)
	v.SetDefault("max_turns", 5)

	// Retrieval defaults
	v.SetDefault("collection", DefaultCollection)
	v.SetDefault("top_k", DefaultTopK)
	v.SetDefault("ef_search", DefaultEfSearch)
	v.SetDefault("query_timeout_ms", 10_000)

	// Index build defaults. embed_rate 10/s mirrors the provider's free-tier
	// budget; burst 1 keeps batch embedding strictly sequential.
	v.SetDefault("batch_size", 100)
	v.SetDefault("embed_rate", 10.0)
	v.SetDefault("embed_rate_burst", 1)

	// PostgreSQL defaults (matching docker-compose.yml)
	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "pelican")
	v.SetDefault("postgres_password", "pelican_dev_password")
	v.SetDefault("postgres_db_name", "pelican")
	v.SetDefault("postgres_ssl_mode", "disable")
}

// bindEnvVariables binds environment overrides explicitly.
//
// NOTE: GEMINI_API_KEY is read directly by Genkit, not via Viper.
// Validation checks its presence in cfg.Validate().
func bindEnvVariables(v *viper.Viper) {
	// Helper to panic on unexpected bind errors (hardcoded strings can't fail).
	// If this panics, it's a BUG in our code, not a runtime error.
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("model_name", "PELICAN_MODEL_NAME")
	mustBind("embedder_model", "PELICAN_EMBEDDER_MODEL")
	mustBind("collection", "PELICAN_COLLECTION")
	mustBind("top_k", "PELICAN_TOP_K")
	mustBind("ef_search", "PELICAN_EF_SEARCH")
}

// maskedValue is the placeholder for masked sensitive data.
// Full-width blocks (U+2588) avoid substring matching against real secrets.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging.
// Secrets of 8 chars or fewer are fully masked to prevent substring attacks;
// longer secrets keep the first and last 2 characters for debug utility.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field masking.
//
// Sensitive fields masked:
//   - PostgresPassword
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.PostgresPassword = maskSecret(a.PostgresPassword)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// FullModelName returns the provider-qualified model name for Genkit.
// Example: "googleai/gemini-2.5-flash". A name already containing "/" is
// returned as-is.
func (c *Config) FullModelName() string {
	for _, r := range c.ModelName {
		if r == '/' {
			return c.ModelName
		}
	}
	return "googleai/" + c.ModelName
}
