package queue

import (
	"context"
	"fmt"
	"time"
)

// BeginSubmission moves a queued task to submitting. Exclusivity rides on the
// conditional update: only one caller can win the queued -> submitting row
// change, so a concurrent submit of the same task gets ErrAlreadySubmitting
// rather than a second attempt.
func (s *Store) BeginSubmission(ctx context.Context, id int64) (*Task, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE submission_tasks SET status = ?, error_message = NULL, updated_at = ?
        WHERE id = ? AND status = ?`,
		StatusSubmitting,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		StatusQueued,
	)
	if err != nil {
		return nil, fmt.Errorf("begin submission: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("begin submission: %w", err)
	}
	if affected == 0 {
		task, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		switch task.Status {
		case StatusSubmitting:
			return nil, fmt.Errorf("%w: task %d", ErrAlreadySubmitting, id)
		case StatusLocked:
			return nil, fmt.Errorf("%w: %d", ErrTaskLocked, id)
		default:
			return nil, fmt.Errorf("%w: task %d is %s, not %s",
				ErrIllegalTransition, id, task.Status, StatusQueued)
		}
	}
	return s.GetByID(ctx, id)
}

// MarkSubmitted records a successful external acknowledgement. The attempt
// count is cumulative across retries.
func (s *Store) MarkSubmitted(ctx context.Context, id int64, resultCode string) (*Task, error) {
	return s.finishSubmission(ctx, id, StatusSubmitted, resultCode, "")
}

// MarkFailed records a rejected or timed-out submission attempt. The task
// returns to an editable state; resubmission is an explicit user action.
func (s *Store) MarkFailed(ctx context.Context, id int64, resultCode, message string) (*Task, error) {
	return s.finishSubmission(ctx, id, StatusFailed, resultCode, message)
}

func (s *Store) finishSubmission(ctx context.Context, id int64, to Status, resultCode, message string) (*Task, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE submission_tasks
        SET status = ?, attempts = attempts + 1, last_result_code = ?, error_message = ?, updated_at = ?
        WHERE id = ? AND status = ?`,
		to,
		nullableString(resultCode),
		nullableString(message),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		StatusSubmitting,
	)
	if err != nil {
		return nil, fmt.Errorf("finish submission: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("finish submission: %w", err)
	}
	if affected == 0 {
		task, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: task %d is %s, not %s",
			ErrIllegalTransition, id, task.Status, StatusSubmitting)
	}
	return s.GetByID(ctx, id)
}

// Lock finalizes a submitted task after its backup snapshot is written. From
// here the task is read-only.
func (s *Store) Lock(ctx context.Context, id int64, backupRef string) (*Task, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE submission_tasks SET status = ?, backup_ref = ?, updated_at = ?
        WHERE id = ? AND status = ?`,
		StatusLocked,
		nullableString(backupRef),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		StatusSubmitted,
	)
	if err != nil {
		return nil, fmt.Errorf("lock task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("lock task: %w", err)
	}
	if affected == 0 {
		task, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: task %d is %s, not %s",
			ErrIllegalTransition, id, task.Status, StatusSubmitted)
	}
	return s.GetByID(ctx, id)
}

// RetryFailed moves failed tasks back to queued for another attempt. Attempt
// counts are preserved. With no ids, every failed task requeues.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	if len(ids) == 0 {
		res, err := s.execWithRetry(
			ctx,
			`UPDATE submission_tasks SET status = ?, error_message = NULL, updated_at = ?
            WHERE status = ?`,
			StatusQueued,
			time.Now().UTC().Format(time.RFC3339Nano),
			StatusFailed,
		)
		if err != nil {
			return 0, fmt.Errorf("retry failed tasks: %w", err)
		}
		return res.RowsAffected()
	}

	args := make([]any, 0, len(ids)+3)
	args = append(args, StatusQueued, time.Now().UTC().Format(time.RFC3339Nano))
	for _, id := range ids {
		args = append(args, id)
	}
	args = append(args, StatusFailed)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE submission_tasks SET status = ?, error_message = NULL, updated_at = ?
        WHERE id IN (`+makePlaceholders(len(ids))+`) AND status = ?`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("retry selected tasks: %w", err)
	}
	return res.RowsAffected()
}

// Promote moves a corrected draft task to queued once its record has no
// error-level issues left.
func (s *Store) Promote(ctx context.Context, id int64) (*Task, error) {
	task, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.Status != StatusDraft {
		return nil, fmt.Errorf("%w: task %d is %s, not %s",
			ErrIllegalTransition, id, task.Status, StatusDraft)
	}
	rec, err := task.Record()
	if err != nil {
		return nil, err
	}
	if !rec.Submittable() {
		return nil, fmt.Errorf("task %d still has error-level issues", id)
	}
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE submission_tasks SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		StatusQueued,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		StatusDraft,
	); err != nil {
		return nil, fmt.Errorf("promote task: %w", err)
	}
	return s.GetByID(ctx, id)
}
