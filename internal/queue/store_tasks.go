package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dmhmr/internal/validate"
)

const exDateLayout = "2006-01-02"

// Add accepts a validated record into the queue. Records free of error-level
// issues enter as queued; records still carrying errors enter as draft and
// stay editable until corrected.
func (s *Store) Add(ctx context.Context, rec *validate.Record) (*Task, error) {
	if rec == nil {
		return nil, errors.New("record is nil")
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}

	status := StatusDraft
	if rec.Submittable() {
		status = StatusQueued
	}

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO submission_tasks (
            status, source_path, template, type_tag, asset_id, client_id,
            ex_date, record_json, attempts, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		status,
		nullableString(rec.Source),
		rec.Template,
		rec.TypeTag,
		rec.AssetID(),
		nullableString(rec.Header.ClientID),
		rec.ExDate().Format(exDateLayout),
		string(payload),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a submission task by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM submission_tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// List returns tasks filtered by status, or all tasks when no statuses are
// given, ordered by id.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Task, error) {
	query := `SELECT ` + taskColumns + ` FROM submission_tasks`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// UpdateRecord replaces the record snapshot of an editable task. Submitted,
// locked, and in-flight tasks are refused: once DMH has accepted a record the
// stored snapshot must stay byte-for-byte what was sent, or the backup would
// diverge from it. A corrected record that became submittable moves from
// draft back to queued.
func (s *Store) UpdateRecord(ctx context.Context, id int64, rec *validate.Record) (*Task, error) {
	task, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch task.Status {
	case StatusLocked:
		return nil, fmt.Errorf("%w: %d", ErrTaskLocked, id)
	case StatusSubmitted:
		return nil, fmt.Errorf("%w: task %d accepted by DMH, awaiting backup", ErrTaskLocked, id)
	case StatusSubmitting:
		return nil, fmt.Errorf("%w: task %d", ErrAlreadySubmitting, id)
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}

	status := task.Status
	if status == StatusDraft && rec.Submittable() {
		status = StatusQueued
	}

	err = s.execWithoutResultRetry(
		ctx,
		`UPDATE submission_tasks
        SET status = ?, asset_id = ?, client_id = ?, ex_date = ?, record_json = ?, updated_at = ?
        WHERE id = ?`,
		status,
		rec.AssetID(),
		nullableString(rec.Header.ClientID),
		rec.ExDate().Format(exDateLayout),
		string(payload),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("update task record: %w", err)
	}
	return s.GetByID(ctx, id)
}

// Remove deletes tasks by id. Tasks only ever leave the queue through this
// explicit path.
func (s *Store) Remove(ctx context.Context, ids ...int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	res, err := s.execWithRetry(
		ctx,
		`DELETE FROM submission_tasks WHERE id IN (`+makePlaceholders(len(ids))+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("remove tasks: %w", err)
	}
	return res.RowsAffected()
}

// Clear deletes all tasks in the given statuses, or every task when none are
// given.
func (s *Store) Clear(ctx context.Context, statuses ...Status) (int64, error) {
	query := `DELETE FROM submission_tasks`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("clear tasks: %w", err)
	}
	return res.RowsAffected()
}

// HealthSummary describes aggregated queue counts per lifecycle state.
type HealthSummary struct {
	Total      int
	Draft      int
	Queued     int
	Submitting int
	Submitted  int
	Failed     int
	Locked     int
}

// Health returns aggregate counts across the queue.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT status, COUNT(1) FROM submission_tasks GROUP BY status`)
	if err != nil {
		return HealthSummary{}, fmt.Errorf("queue health: %w", err)
	}
	defer rows.Close()

	var summary HealthSummary
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return HealthSummary{}, fmt.Errorf("scan health row: %w", err)
		}
		summary.Total += count
		switch Status(status) {
		case StatusDraft:
			summary.Draft = count
		case StatusQueued:
			summary.Queued = count
		case StatusSubmitting:
			summary.Submitting = count
		case StatusSubmitted:
			summary.Submitted = count
		case StatusFailed:
			summary.Failed = count
		case StatusLocked:
			summary.Locked = count
		}
	}
	return summary, rows.Err()
}
