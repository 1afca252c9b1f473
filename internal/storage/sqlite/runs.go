package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/recurzes/taskstore/internal/types"
)

// RecordIngestionRun stores a pipeline run summary
func (s *SQLiteStorage) RecordIngestionRun(ctx context.Context, run *types.IngestionRun) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := run.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	var runErr sql.NullString
	if run.Error != "" {
		runErr = sql.NullString{String: run.Error, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ingestion_runs (id, started_at, finished_at, total_count, accepted_count, rejected_count, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.StartedAt.UTC(), run.FinishedAt.UTC(), run.TotalCount,
		run.AcceptedCount, run.RejectedCount, runErr)
	if err != nil {
		return fmt.Errorf("%w: failed to record ingestion run: %v", ErrPersistence, err)
	}
	return nil
}

// GetIngestionRuns returns up to limit run summaries, newest first
func (s *SQLiteStorage) GetIngestionRuns(ctx context.Context, limit int) ([]*types.IngestionRun, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be >= 1 (got %d)", ErrInvalidArgument, limit)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, total_count, accepted_count, rejected_count, error
		FROM ingestion_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query ingestion runs: %v", ErrPersistence, err)
	}
	defer rows.Close()

	var results []*types.IngestionRun
	for rows.Next() {
		var (
			run    types.IngestionRun
			runErr sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.TotalCount,
			&run.AcceptedCount, &run.RejectedCount, &runErr); err != nil {
			return nil, fmt.Errorf("%w: failed to scan run row: %v", ErrPersistence, err)
		}
		if runErr.Valid {
			run.Error = runErr.String
		}
		results = append(results, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: row iteration failed: %v", ErrPersistence, err)
	}
	return results, nil
}

// PruneIngestionRuns deletes run summaries that started before cutoff and
// returns how many were removed. Task rows are never touched.
func (s *SQLiteStorage) PruneIngestionRuns(ctx context.Context, cutoff time.Time) (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM ingestion_runs WHERE started_at < ?
	`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("%w: failed to prune ingestion runs: %v", ErrPersistence, err)
	}
	pruned, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to count pruned runs: %v", ErrPersistence, err)
	}
	return int(pruned), nil
}
