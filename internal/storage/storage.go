// Package storage defines the task store contract and its factory.
// The durable backend lives in the sqlite subpackage.
package storage

import (
	"context"
	"time"

	"github.com/recurzes/taskstore/internal/storage/sqlite"
	"github.com/recurzes/taskstore/internal/types"
)

// Sentinel errors shared by all storage backends. They are defined in
// the sqlite package (the owning backend) and re-exported here so
// callers can errors.Is against the interface package alone.
var (
	// ErrStoreClosed is returned by any operation after Close
	ErrStoreClosed = sqlite.ErrStoreClosed

	// ErrInvalidArgument is returned for bad query or insert parameters
	// (k < 1, limit < 1, wrong embedding dimensionality)
	ErrInvalidArgument = sqlite.ErrInvalidArgument

	// ErrPersistence wraps underlying storage write failures. An insert
	// that fails with this error left no partially visible record.
	ErrPersistence = sqlite.ErrPersistence
)

// Storage defines the interface for task storage backends
type Storage interface {
	// AddTask persists a task and its embedding, assigning ID and
	// CreatedAt. The insert is all-or-nothing: a task is never visible
	// with only some fields durable, and it is queryable by FindSimilar
	// the moment AddTask returns.
	AddTask(ctx context.Context, task *types.Task) (*types.Task, error)

	// FindSimilar returns up to k tasks ordered ascending by cosine
	// distance to the query vector, ties broken by smaller ID. An empty
	// store returns an empty slice, not an error.
	FindSimilar(ctx context.Context, embedding []float32, k int) ([]*types.Task, error)

	// GetRecentTasks returns up to limit tasks, most recently created
	// first (ties broken by larger ID).
	GetRecentTasks(ctx context.Context, limit int) ([]*types.Task, error)

	// CountTasks returns the number of stored tasks
	CountTasks(ctx context.Context) (int, error)

	// Ingestion run history
	RecordIngestionRun(ctx context.Context, run *types.IngestionRun) error
	GetIngestionRuns(ctx context.Context, limit int) ([]*types.IngestionRun, error)

	// PruneIngestionRuns deletes run summaries started before cutoff and
	// returns how many were removed
	PruneIngestionRuns(ctx context.Context, cutoff time.Time) (int, error)

	// Lifecycle
	Close() error
}

// Config holds database configuration
type Config struct {
	// Path is the SQLite database file path.
	// Default: "tasks.db" (the source system's local fallback).
	// Special value ":memory:" creates an in-memory database (useful for tests).
	Path string

	// Dimensions is the embedding dimensionality every stored vector
	// must have. Default: 1536.
	Dimensions int
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Path:       "tasks.db",
		Dimensions: 1536,
	}
}

// NewStorage creates a new SQLite storage backend
func NewStorage(ctx context.Context, cfg *Config) (Storage, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Path == "" {
		cfg.Path = "tasks.db"
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = 1536
	}

	return sqlite.New(cfg.Path, cfg.Dimensions)
}
