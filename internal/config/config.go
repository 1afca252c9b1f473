package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/recurzes/taskstore/internal/deduplication"
	"github.com/recurzes/taskstore/internal/embedding"
	"github.com/recurzes/taskstore/internal/ingest"
	"github.com/recurzes/taskstore/internal/storage"
)

// Config holds the top-level application configuration. It aggregates the
// per-package configs so a single file or environment can drive all of them.
type Config struct {
	// StoragePath is the SQLite database file path
	// Default: tasks.db
	StoragePath string

	// EmbeddingModel is the OpenAI embedding model to use
	// Default: text-embedding-3-small
	EmbeddingModel string

	// Dimensions is the embedding vector dimensionality
	// Every stored vector and every query vector must match it
	// Default: 1536
	Dimensions int

	// APIKey is the OpenAI API key. Usually supplied via OPENAI_API_KEY
	APIKey string

	// BaseURL overrides the OpenAI API endpoint (for proxies and tests)
	BaseURL string

	// DistanceThreshold is the cosine distance below which a candidate
	// is rejected as a duplicate
	// Default: 0.1
	DistanceThreshold float64

	// EmbedConcurrency is the number of concurrent embedding requests
	// during batch ingestion
	// Default: 4
	EmbedConcurrency int

	// RequestsPerSecond rate-limits embedding API calls (0 = unlimited)
	RequestsPerSecond float64

	// RequestTimeout is the per-request timeout for embedding calls
	// Default: 30s
	RequestTimeout time.Duration

	// MaxRetries is the number of retries for transient embedding failures
	// Default: 3
	MaxRetries int
}

// Default returns the default application configuration.
func Default() Config {
	return Config{
		StoragePath:       "tasks.db",
		EmbeddingModel:    embedding.DefaultModel,
		Dimensions:        embedding.DefaultDimensions,
		DistanceThreshold: deduplication.DefaultConfig().DistanceThreshold,
		EmbedConcurrency:  4,
		RequestsPerSecond: 0,
		RequestTimeout:    30 * time.Second,
		MaxRetries:        3,
	}
}

// Validate checks if the configuration has valid values.
func (c Config) Validate() error {
	if c.StoragePath == "" {
		return fmt.Errorf("storage_path cannot be empty")
	}
	if c.EmbeddingModel == "" {
		return fmt.Errorf("embedding_model cannot be empty")
	}
	if c.Dimensions < 1 {
		return fmt.Errorf("dimensions must be positive (got %d)", c.Dimensions)
	}
	if c.Dimensions > 4096 {
		return fmt.Errorf("dimensions too large (got %d, max 4096)", c.Dimensions)
	}
	dedupCfg := deduplication.Config{DistanceThreshold: c.DistanceThreshold}
	if err := dedupCfg.Validate(); err != nil {
		return err
	}
	if c.EmbedConcurrency < 1 {
		return fmt.Errorf("embed_concurrency must be at least 1 (got %d)", c.EmbedConcurrency)
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second cannot be negative (got %g)", c.RequestsPerSecond)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive (got %s)", c.RequestTimeout)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative (got %d)", c.MaxRetries)
	}
	return nil
}

// String returns a human-readable representation of the config.
// The API key is never included.
func (c Config) String() string {
	return fmt.Sprintf(
		"Config{StoragePath: %s, Model: %s, Dimensions: %d, Threshold: %.3f, "+
			"Concurrency: %d, RPS: %g, Timeout: %s, Retries: %d}",
		c.StoragePath, c.EmbeddingModel, c.Dimensions, c.DistanceThreshold,
		c.EmbedConcurrency, c.RequestsPerSecond, c.RequestTimeout, c.MaxRetries,
	)
}

// StorageConfig derives the storage layer configuration.
func (c Config) StorageConfig() *storage.Config {
	return &storage.Config{
		Path:       c.StoragePath,
		Dimensions: c.Dimensions,
	}
}

// EmbeddingConfig derives the embedding gateway configuration.
func (c Config) EmbeddingConfig() embedding.Config {
	return embedding.Config{
		APIKey:            c.APIKey,
		BaseURL:           c.BaseURL,
		Model:             c.EmbeddingModel,
		Dimensions:        c.Dimensions,
		Timeout:           c.RequestTimeout,
		MaxRetries:        c.MaxRetries,
		RequestsPerSecond: c.RequestsPerSecond,
		MaxConcurrent:     int64(c.EmbedConcurrency),
	}
}

// DedupConfig derives the deduplication policy configuration.
func (c Config) DedupConfig() deduplication.Config {
	return deduplication.Config{DistanceThreshold: c.DistanceThreshold}
}

// IngestConfig derives the ingestion pipeline configuration.
func (c Config) IngestConfig() ingest.Config {
	return ingest.Config{EmbedConcurrency: c.EmbedConcurrency}
}

// FromEnv creates a Config from environment variables, falling back to
// defaults.
//
// Environment variables:
//   - TASKSTORE_DB: SQLite database path (default: tasks.db)
//   - TASKSTORE_EMBEDDING_MODEL: embedding model name (default: text-embedding-3-small)
//   - TASKSTORE_DIMENSIONS: embedding dimensionality (default: 1536)
//   - TASKSTORE_DEDUP_THRESHOLD: duplicate distance threshold (default: 0.1)
//   - TASKSTORE_EMBED_CONCURRENCY: concurrent embedding requests (default: 4)
//   - TASKSTORE_EMBED_RPS: embedding requests per second, 0 for unlimited (default: 0)
//   - TASKSTORE_REQUEST_TIMEOUT_SECONDS: per-request timeout (default: 30)
//   - TASKSTORE_MAX_RETRIES: retries for transient failures (default: 3)
//   - OPENAI_API_KEY: OpenAI API key
//   - OPENAI_BASE_URL: OpenAI endpoint override
//
// Returns an error if any environment variable has an invalid value.
func FromEnv() (Config, error) {
	cfg := Default()

	if err := parseEnvString("TASKSTORE_DB", &cfg.StoragePath); err != nil {
		return cfg, err
	}
	if err := parseEnvString("TASKSTORE_EMBEDDING_MODEL", &cfg.EmbeddingModel); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("TASKSTORE_DIMENSIONS", &cfg.Dimensions); err != nil {
		return cfg, err
	}
	if err := parseEnvFloat("TASKSTORE_DEDUP_THRESHOLD", &cfg.DistanceThreshold); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("TASKSTORE_EMBED_CONCURRENCY", &cfg.EmbedConcurrency); err != nil {
		return cfg, err
	}
	if err := parseEnvFloat("TASKSTORE_EMBED_RPS", &cfg.RequestsPerSecond); err != nil {
		return cfg, err
	}
	if err := parseEnvDuration("TASKSTORE_REQUEST_TIMEOUT_SECONDS", &cfg.RequestTimeout, time.Second); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("TASKSTORE_MAX_RETRIES", &cfg.MaxRetries); err != nil {
		return cfg, err
	}
	if err := parseEnvString("OPENAI_API_KEY", &cfg.APIKey); err != nil {
		return cfg, err
	}
	if err := parseEnvString("OPENAI_BASE_URL", &cfg.BaseURL); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration from environment: %w", err)
	}
	return cfg, nil
}

// parseEnvString parses a string from an environment variable
func parseEnvString(key string, dest *string) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	*dest = value
	return nil
}

// parseEnvInt parses an int from an environment variable
func parseEnvInt(key string, dest *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvFloat parses a float from an environment variable
func parseEnvFloat(key string, dest *float64) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvDuration parses a duration from an environment variable,
// interpreting the value as a count of the given unit
func parseEnvDuration(key string, dest *time.Duration, unit time.Duration) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = time.Duration(parsed) * unit
	return nil
}
