package deduplication

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds configuration for the deduplication policy
type Config struct {
	// DistanceThreshold is the cosine distance below which a candidate
	// is considered a duplicate of its nearest existing task.
	// Lower values = more aggressive inserting (fewer rejections)
	// Higher values = more aggressive deduplication (more rejections)
	// Default: 0.1
	DistanceThreshold float64
}

// DefaultConfig returns the default deduplication configuration
//
// The 0.1 threshold is deliberately tight: embeddings of rephrasings
// of the same task ("Submit quarterly report" vs "Submit the quarterly
// report") land well inside it, while related-but-distinct tasks stay
// outside.
func DefaultConfig() Config {
	return Config{
		DistanceThreshold: 0.1,
	}
}

// Validate checks if the configuration has valid values
func (c Config) Validate() error {
	if c.DistanceThreshold < 0 || c.DistanceThreshold > 2 {
		return fmt.Errorf("distance_threshold must be between 0 and 2 (got %v)",
			c.DistanceThreshold)
	}
	return nil
}

// String returns a human-readable representation of the config
func (c Config) String() string {
	return fmt.Sprintf("Config{DistanceThreshold: %.3f}", c.DistanceThreshold)
}

// ConfigFromEnv creates a Config from environment variables, falling
// back to defaults.
//
// Environment variables:
//   - TASKSTORE_DEDUP_THRESHOLD: cosine distance threshold (default: 0.1)
//
// Returns an error if a variable has an invalid value.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if err := parseEnvFloat("TASKSTORE_DEDUP_THRESHOLD", &cfg.DistanceThreshold); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration from environment: %w", err)
	}
	return cfg, nil
}

// parseEnvFloat parses a float64 from an environment variable
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
