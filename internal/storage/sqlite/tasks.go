package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/recurzes/taskstore/internal/types"
	"github.com/recurzes/taskstore/internal/vector"
)

// AddTask persists a task and its embedding.
//
// The single timestamp captured here is both stored and returned, so
// the caller's view of created_at always matches the database row.
func (s *SQLiteStorage) AddTask(ctx context.Context, task *types.Task) (*types.Task, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if err := task.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if len(task.Embedding) != s.dimensions {
		return nil, fmt.Errorf("%w: embedding has %d dimensions, store requires %d",
			ErrInvalidArgument, len(task.Embedding), s.dimensions)
	}

	createdAt := time.Now().UTC()

	// Acquire a dedicated connection so BEGIN IMMEDIATE and COMMIT run
	// on the same connection. IMMEDIATE takes the write lock up front,
	// serializing inserts across concurrent pipelines; readers see the
	// pre-insert or post-insert state, never a partial row.
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to acquire connection: %v", ErrPersistence, err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return nil, fmt.Errorf("%w: failed to begin transaction: %v", ErrPersistence, err)
	}

	committed := false
	defer func() {
		if !committed {
			// Rollback with a fresh context so cleanup happens even if ctx is canceled
			_, _ = conn.ExecContext(context.Background(), "ROLLBACK")
		}
	}()

	var emailContext sql.NullString
	if task.EmailContext != "" {
		emailContext = sql.NullString{String: task.EmailContext, Valid: true}
	}

	var id int64
	err = conn.QueryRowContext(ctx, `
		INSERT INTO tasks (name, priority, due_date, created_at, email_context, embedding)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`, task.Name, task.Priority, task.DueDate, createdAt, emailContext,
		vector.Encode(task.Embedding)).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to insert task: %v", ErrPersistence, err)
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return nil, fmt.Errorf("%w: failed to commit: %v", ErrPersistence, err)
	}
	committed = true

	return &types.Task{
		ID:           id,
		Name:         task.Name,
		Priority:     task.Priority,
		DueDate:      task.DueDate,
		CreatedAt:    createdAt,
		EmailContext: task.EmailContext,
		Embedding:    task.Embedding,
	}, nil
}

// FindSimilar returns the k nearest tasks to the query vector by
// cosine distance, ascending, ties broken by smaller id. The distance
// ordering is computed in Go rather than SQL so the tie-break holds
// regardless of row order.
func (s *SQLiteStorage) FindSimilar(ctx context.Context, embedding []float32, k int) ([]*types.Task, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be >= 1 (got %d)", ErrInvalidArgument, k)
	}
	if len(embedding) != s.dimensions {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, store requires %d",
			ErrInvalidArgument, len(embedding), s.dimensions)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, priority, due_date, created_at, email_context, embedding
		FROM tasks
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to scan tasks: %v", ErrPersistence, err)
	}
	defer rows.Close()

	results := make([]*types.Task, 0, k)
	for rows.Next() {
		task, stored, err := scanTask(rows)
		if err != nil {
			return nil, err
		}

		d, err := vector.CosineDistance(embedding, stored)
		if err != nil {
			// A stored row with the wrong dimensionality means the
			// database was written by a differently configured store.
			return nil, fmt.Errorf("task %d: %w", task.ID, err)
		}
		task.SimilarityDistance = &d
		task.Embedding = stored
		results = append(results, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: row iteration failed: %v", ErrPersistence, err)
	}

	// Stable over ascending-id input, so equal distances keep insertion order.
	sort.SliceStable(results, func(i, j int) bool {
		return *results[i].SimilarityDistance < *results[j].SimilarityDistance
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// GetRecentTasks returns up to limit tasks, most recently created first
func (s *SQLiteStorage) GetRecentTasks(ctx context.Context, limit int) ([]*types.Task, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be >= 1 (got %d)", ErrInvalidArgument, limit)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, priority, due_date, created_at, email_context, embedding
		FROM tasks
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query recent tasks: %v", ErrPersistence, err)
	}
	defer rows.Close()

	var results []*types.Task
	for rows.Next() {
		task, stored, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		task.Embedding = stored
		results = append(results, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: row iteration failed: %v", ErrPersistence, err)
	}
	return results, nil
}

// CountTasks returns the number of stored tasks
func (s *SQLiteStorage) CountTasks(ctx context.Context) (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks").Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: failed to count tasks: %v", ErrPersistence, err)
	}
	return count, nil
}

// scanTask reads one task row plus its decoded embedding
func scanTask(rows *sql.Rows) (*types.Task, []float32, error) {
	var (
		task         types.Task
		emailContext sql.NullString
		blob         []byte
	)
	if err := rows.Scan(&task.ID, &task.Name, &task.Priority, &task.DueDate,
		&task.CreatedAt, &emailContext, &blob); err != nil {
		return nil, nil, fmt.Errorf("%w: failed to scan task row: %v", ErrPersistence, err)
	}
	if emailContext.Valid {
		task.EmailContext = emailContext.String
	}

	stored, err := vector.Decode(blob)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: task %d has corrupt embedding: %v", ErrPersistence, task.ID, err)
	}
	return &task, stored, nil
}
