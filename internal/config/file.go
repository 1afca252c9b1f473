package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFile represents the structure of taskstore.yaml
type ConfigFile struct {
	// Database file path
	StoragePath string `yaml:"storage_path"`

	// Embedding settings
	Embedding EmbeddingFileConfig `yaml:"embedding"`

	// Deduplication settings
	Deduplication DedupFileConfig `yaml:"deduplication"`

	// Ingestion settings
	Ingestion IngestFileConfig `yaml:"ingestion"`
}

// EmbeddingFileConfig defines embedding settings in the config file.
type EmbeddingFileConfig struct {
	Model             string  `yaml:"model"`
	Dimensions        int     `yaml:"dimensions"`
	BaseURL           string  `yaml:"base_url"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	MaxRetries        *int    `yaml:"max_retries"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// DedupFileConfig defines deduplication settings in the config file.
type DedupFileConfig struct {
	DistanceThreshold *float64 `yaml:"distance_threshold"`
}

// IngestFileConfig defines ingestion settings in the config file.
type IngestFileConfig struct {
	EmbedConcurrency int `yaml:"embed_concurrency"`
}

// LoadFile loads configuration from a YAML file, layered on top of the
// environment. Settings in the file override environment values; the API
// key always comes from the environment.
func LoadFile(path string) (Config, error) {
	cfg, err := FromEnv()
	if err != nil {
		return cfg, err
	}

	// If file doesn't exist, return the environment-derived config
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	var file ConfigFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}

	cfg = file.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return cfg, nil
}

// apply overlays the file settings onto a base config. Zero values in the
// file leave the base untouched; pointer fields distinguish "absent" from
// an explicit zero.
func (cf ConfigFile) apply(cfg Config) Config {
	if cf.StoragePath != "" {
		cfg.StoragePath = cf.StoragePath
	}
	if cf.Embedding.Model != "" {
		cfg.EmbeddingModel = cf.Embedding.Model
	}
	if cf.Embedding.Dimensions > 0 {
		cfg.Dimensions = cf.Embedding.Dimensions
	}
	if cf.Embedding.BaseURL != "" {
		cfg.BaseURL = cf.Embedding.BaseURL
	}
	if cf.Embedding.TimeoutSeconds > 0 {
		cfg.RequestTimeout = time.Duration(cf.Embedding.TimeoutSeconds) * time.Second
	}
	if cf.Embedding.MaxRetries != nil {
		cfg.MaxRetries = *cf.Embedding.MaxRetries
	}
	if cf.Embedding.RequestsPerSecond > 0 {
		cfg.RequestsPerSecond = cf.Embedding.RequestsPerSecond
	}
	if cf.Deduplication.DistanceThreshold != nil {
		cfg.DistanceThreshold = *cf.Deduplication.DistanceThreshold
	}
	if cf.Ingestion.EmbedConcurrency > 0 {
		cfg.EmbedConcurrency = cf.Ingestion.EmbedConcurrency
	}
	return cfg
}
