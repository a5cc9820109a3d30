package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"dmhmr/internal/validate"
)

// Status represents the lifecycle of a submission task.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusQueued     Status = "queued"
	StatusSubmitting Status = "submitting"
	StatusSubmitted  Status = "submitted"
	StatusFailed     Status = "failed"
	StatusLocked     Status = "locked"
)

var allStatuses = []Status{
	StatusDraft,
	StatusQueued,
	StatusSubmitting,
	StatusSubmitted,
	StatusFailed,
	StatusLocked,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Legal lifecycle transitions. Anything absent here is a programming error,
// not a runtime condition to surface to the user.
var transitions = map[Status][]Status{
	StatusDraft:      {StatusQueued},
	StatusQueued:     {StatusSubmitting},
	StatusSubmitting: {StatusSubmitted, StatusFailed},
	StatusSubmitted:  {StatusLocked},
	StatusFailed:     {StatusQueued},
	StatusLocked:     {},
}

// CanTransition reports whether from -> to is a legal lifecycle step.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ErrIllegalTransition indicates a lifecycle step the transition table does
// not allow.
var ErrIllegalTransition = errors.New("illegal status transition")

// ErrAlreadySubmitting indicates a submit request for a task that already has
// an attempt in flight. The request is rejected, not queued.
var ErrAlreadySubmitting = errors.New("submission already in flight")

// ErrTaskLocked indicates an attempt to modify or resubmit a locked task.
var ErrTaskLocked = errors.New("task is locked")

// ErrTaskNotFound indicates the task id does not exist in the queue.
var ErrTaskNotFound = errors.New("task not found")

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether the status admits no further transitions.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// Task is one validated record tracked through the submission lifecycle,
// persisted in SQLite. The record snapshot is stored as JSON; identity keys
// are denormalized into columns for listing and duplicate lookups.
type Task struct {
	ID             int64
	Status         Status
	Source         string
	Template       string
	TypeTag        string
	AssetID        string
	ClientID       string
	ExDate         time.Time
	RecordJSON     string
	Attempts       int
	LastResultCode string
	ErrorMessage   string
	BackupRef      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Record decodes the stored validated-record snapshot.
func (t *Task) Record() (*validate.Record, error) {
	var rec validate.Record
	if err := json.Unmarshal([]byte(t.RecordJSON), &rec); err != nil {
		return nil, fmt.Errorf("decode task %d record: %w", t.ID, err)
	}
	return &rec, nil
}

// Editable reports whether the task's record may still be changed. The record
// freezes the moment DMH accepts it: submitted tasks only await their backup
// snapshot, which must capture exactly what was sent. In-flight submissions
// and locked tasks are read-only for the same reason.
func (t *Task) Editable() bool {
	switch t.Status {
	case StatusSubmitting, StatusSubmitted, StatusLocked:
		return false
	}
	return true
}
