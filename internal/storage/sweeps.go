package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hoanghai1803/newswire/internal/models"
)

// RecordSweep persists a finished sweep run, assigning an ID when it has
// none.
func (s *Store) RecordSweep(ctx context.Context, run *models.SweepRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	categories, err := json.Marshal(run.Categories)
	if err != nil {
		return fmt.Errorf("encoding sweep categories: %w", err)
	}

	var failed *string
	if len(run.FailedSources) > 0 {
		b, err := json.Marshal(run.FailedSources)
		if err != nil {
			return fmt.Errorf("encoding failed sources: %w", err)
		}
		failed = nullableString(string(b))
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sweep_runs (id, categories, fetched, stored, failed_sources, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, string(categories), run.Fetched, run.Stored, failed,
		formatTime(run.StartedAt), formatTime(run.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("recording sweep: %w", err)
	}
	return nil
}

// RecentSweeps returns up to limit sweep runs, most recent first.
func (s *Store) RecentSweeps(ctx context.Context, limit int) ([]models.SweepRun, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, categories, fetched, stored, failed_sources, started_at, finished_at
		 FROM sweep_runs
		 ORDER BY started_at DESC, rowid DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing sweeps: %w", err)
	}
	defer rows.Close()

	runs := []models.SweepRun{}
	for rows.Next() {
		var (
			run        models.SweepRun
			categories string
			failed     sql.NullString
			startedAt  string
			finishedAt string
		)
		if err := rows.Scan(&run.ID, &categories, &run.Fetched, &run.Stored, &failed, &startedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("scanning sweep: %w", err)
		}
		if err := json.Unmarshal([]byte(categories), &run.Categories); err != nil {
			return nil, fmt.Errorf("decoding sweep categories: %w", err)
		}
		if failed.Valid {
			if err := json.Unmarshal([]byte(failed.String), &run.FailedSources); err != nil {
				return nil, fmt.Errorf("decoding failed sources: %w", err)
			}
		}
		run.StartedAt = parseTime(startedAt)
		run.FinishedAt = parseTime(finishedAt)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sweeps: %w", err)
	}
	return runs, nil
}
