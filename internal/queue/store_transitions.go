package queue

import (
	"context"
	"fmt"
	"time"
)

// Outcome records what a finished conversion produced.
type Outcome struct {
	OutputPath    string
	CorrelationID string
	Cues          int
}

// Complete marks a processing job as completed.
func (s *Store) Complete(ctx context.Context, id int64, outcome Outcome) error {
	return s.transition(ctx, id,
		`UPDATE jobs
         SET status = ?, output_path = ?, correlation_id = ?, cue_count = ?,
             error_kind = NULL, error_message = NULL, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusCompleted,
		nullableString(outcome.OutputPath),
		nullableString(outcome.CorrelationID),
		outcome.Cues,
		timestamp(time.Now()),
		id,
		StatusProcessing,
	)
}

// Fail marks a processing job as failed for good.
func (s *Store) Fail(ctx context.Context, id int64, kind, message, correlationID string) error {
	return s.transition(ctx, id,
		`UPDATE jobs
         SET status = ?, error_kind = ?, error_message = ?, correlation_id = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusFailed,
		nullableString(kind),
		nullableString(message),
		nullableString(correlationID),
		timestamp(time.Now()),
		id,
		StatusProcessing,
	)
}

// Requeue returns a processing job to pending, not to be claimed before
// notBefore. The failure is kept for display until the next attempt ends.
func (s *Store) Requeue(ctx context.Context, id int64, kind, message string, notBefore time.Time) error {
	return s.transition(ctx, id,
		`UPDATE jobs
         SET status = ?, error_kind = ?, error_message = ?, not_before = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusPending,
		nullableString(kind),
		nullableString(message),
		notBefore.UnixMilli(),
		timestamp(time.Now()),
		id,
		StatusProcessing,
	)
}

// Release hands an interrupted processing job back to pending without
// charging the attempt.
func (s *Store) Release(ctx context.Context, id int64) error {
	return s.transition(ctx, id,
		`UPDATE jobs
         SET status = ?, attempts = MAX(attempts - 1, 0), updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusPending,
		timestamp(time.Now()),
		id,
		StatusProcessing,
	)
}

// RetryFailed moves failed jobs back to pending with a fresh attempt budget.
// With no ids every failed job is retried.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	query := `UPDATE jobs
        SET status = ?, attempts = 0, not_before = 0, error_kind = NULL, error_message = NULL, updated_at = ?
        WHERE status = ?`
	args := []any{StatusPending, timestamp(time.Now()), StatusFailed}
	if len(ids) > 0 {
		query += ` AND id IN (` + makePlaceholders(len(ids)) + `)`
		args = append(args, int64Args(ids)...)
	}
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry failed jobs: %w", err)
	}
	return res.RowsAffected()
}

// ResetProcessing returns jobs left processing by an interrupted runner to
// pending. The interrupted attempt is not counted.
func (s *Store) ResetProcessing(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs
         SET status = ?, attempts = MAX(attempts - 1, 0), updated_at = ?
         WHERE status = ?`,
		StatusPending,
		timestamp(time.Now()),
		StatusProcessing,
	)
	if err != nil {
		return 0, fmt.Errorf("reset processing jobs: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) transition(ctx context.Context, id int64, query string, args ...any) error {
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update job %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update job %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("update job %d: job is not processing", id)
	}
	return nil
}
