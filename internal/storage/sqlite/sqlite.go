// Package sqlite implements the task store on a local SQLite database.
//
// Embeddings are persisted per row as a BLOB in the internal/vector
// wire format. Similarity queries decode each row's vector and compute
// cosine distance in-process — a linear scan, which matches the scale
// this store is built for (hundreds of tasks extracted from email, not
// millions of documents). Writers serialize through IMMEDIATE
// transactions so every insert is fully visible before AddTask
// returns; readers never observe a half-written record.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	_ "github.com/mattn/go-sqlite3"
)

// Sentinel errors for the storage contract
var (
	// ErrStoreClosed is returned by any operation after Close
	ErrStoreClosed = errors.New("task store is closed")

	// ErrInvalidArgument is returned for bad query or insert parameters
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrPersistence wraps underlying storage write failures
	ErrPersistence = errors.New("persistence failure")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db         *sql.DB
	dimensions int
	closed     atomic.Bool
}

// New creates a new SQLite storage backend. The parent directory is
// created if missing, the schema is applied, and every stored vector
// is required to have exactly dimensions components.
func New(path string, dimensions int) (*SQLiteStorage, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be positive (got %d)", ErrInvalidArgument, dimensions)
	}

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// WAL mode for better concurrency between the writer and similarity scans
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{
		db:         db,
		dimensions: dimensions,
	}, nil
}

// Dimensions returns the embedding dimensionality this store enforces
func (s *SQLiteStorage) Dimensions() int {
	return s.dimensions
}

// Close releases the underlying database. Subsequent operations on
// this store return ErrStoreClosed.
func (s *SQLiteStorage) Close() error {
	if s.closed.Swap(true) {
		return ErrStoreClosed
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// checkOpen fails fast once the store has been closed
func (s *SQLiteStorage) checkOpen() error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	return nil
}
