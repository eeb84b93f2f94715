package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Add enqueues a conversion. When the same source already has an active job
// that job is returned together with ErrDuplicate.
func (s *Store) Add(ctx context.Context, spec Spec) (*Job, error) {
	source := strings.TrimSpace(spec.SourcePath)
	if source == "" {
		return nil, errors.New("source path is required")
	}
	if abs, err := filepath.Abs(source); err == nil {
		source = abs
	}

	existing, err := s.activeBySource(ctx, source)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, fmt.Errorf("%w: %s is job #%d (%s)", ErrDuplicate, source, existing.ID, existing.Status)
	}

	now := timestamp(time.Now())
	res, err := s.execWithRetry(ctx,
		`INSERT INTO jobs (
            source_path, output_dir, status, model, max_chars, max_duration, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		source,
		nullableString(spec.OutputDir),
		StatusPending,
		spec.Model,
		spec.MaxChars,
		spec.MaxDuration,
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.Get(ctx, id)
}

// Get fetches a job by identifier. A missing job yields nil without error.
func (s *Store) Get(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// List returns jobs in insertion order, optionally filtered by status.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// ClaimNext marks the oldest ready pending job as processing and returns it.
// It returns nil when nothing is ready.
func (s *Store) ClaimNext(ctx context.Context) (*Job, error) {
	now := time.Now()
	var job *Job
	err := retryOnBusy(ctx, func() error {
		row := s.db.QueryRowContext(ctx,
			`UPDATE jobs
             SET status = ?, attempts = attempts + 1, updated_at = ?
             WHERE id = (
                 SELECT id FROM jobs
                 WHERE status = ? AND not_before <= ?
                 ORDER BY id
                 LIMIT 1
             )
             RETURNING `+jobColumns,
			StatusProcessing,
			timestamp(now),
			StatusPending,
			now.UnixMilli(),
		)
		var scanErr error
		job, scanErr = scanJob(row)
		return scanErr
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}
	return job, nil
}

func (s *Store) activeBySource(ctx context.Context, source string) (*Job, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE source_path = ? AND status IN (?, ?) ORDER BY id LIMIT 1`,
		source, StatusPending, StatusProcessing,
	)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active job: %w", err)
	}
	return job, nil
}
