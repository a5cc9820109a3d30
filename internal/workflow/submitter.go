package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"dmhmr/internal/backup"
	"dmhmr/internal/config"
	"dmhmr/internal/logging"
	"dmhmr/internal/queue"
	"dmhmr/internal/services"
	"dmhmr/internal/services/dmh"
	"dmhmr/internal/validate"
)

// Submitter drives queued tasks through the external submission and the
// post-success backup. Per-task exclusivity is enforced by the store's
// queued -> submitting transition; the submitter adds the timeout and the
// terminal bookkeeping.
type Submitter struct {
	cfg     *config.Config
	store   *queue.Store
	client  dmh.Client
	backups *backup.Writer
	logger  *slog.Logger
}

// NewSubmitter wires the submission side of the workflow.
func NewSubmitter(cfg *config.Config, store *queue.Store, client dmh.Client, logger *slog.Logger) *Submitter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Submitter{
		cfg:     cfg,
		store:   store,
		client:  client,
		backups: backup.NewWriter(cfg.Paths.BackupDir),
		logger:  logger,
	}
}

func (s *Submitter) submitTimeout() time.Duration {
	timeout := time.Duration(s.cfg.Workflow.SubmitTimeout) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return timeout
}

// Submit pushes one queued task through a single submission attempt. On
// success the record is marked accepted, snapshotted, and locked. On
// rejection or timeout the task lands in failed with a cause code and stays
// editable; retrying is an explicit user action.
func (s *Submitter) Submit(ctx context.Context, id int64) (*queue.Task, error) {
	ctx = services.WithStage(services.WithTaskID(ctx, id), "submit")

	task, err := s.store.BeginSubmission(ctx, id)
	if err != nil {
		return nil, err
	}

	rec, err := task.Record()
	if err != nil {
		_, markErr := s.store.MarkFailed(ctx, id, "error", err.Error())
		if markErr != nil {
			return nil, markErr
		}
		return nil, err
	}

	logger := logging.WithContext(ctx, s.logger)
	logger.Info("submitting record",
		logging.Int64(logging.FieldTaskID, task.ID),
		logging.String(logging.FieldAssetID, task.AssetID),
		logging.Int("attempt", task.Attempts+1),
	)

	submitCtx, cancel := context.WithTimeout(ctx, s.submitTimeout())
	defer cancel()

	resp, err := s.client.Submit(submitCtx, dmh.BuildRequest(rec))
	if err != nil {
		cause := services.SubmissionCause(err)
		failed, markErr := s.store.MarkFailed(ctx, id, cause, err.Error())
		if markErr != nil {
			return nil, markErr
		}
		logger.Warn("submission failed",
			logging.Int64(logging.FieldTaskID, task.ID),
			logging.String("cause", cause),
			logging.Error(err),
		)
		return failed, err
	}
	if !resp.Success {
		message := resp.Message
		if message == "" {
			message = fmt.Sprintf("DMH rejected record with code %s", resp.Code)
		}
		failed, markErr := s.store.MarkFailed(ctx, id, resp.Code, message)
		if markErr != nil {
			return nil, markErr
		}
		logger.Warn("submission rejected",
			logging.Int64(logging.FieldTaskID, task.ID),
			logging.String("code", resp.Code),
		)
		return failed, nil
	}

	task, err = s.store.MarkSubmitted(ctx, id, resp.Code)
	if err != nil {
		return nil, err
	}

	key := validate.DuplicateKey{
		AssetID:  task.AssetID,
		ClientID: task.ClientID,
		ExDate:   task.ExDate,
		TypeTag:  task.TypeTag,
	}
	if _, err := s.store.Accept(ctx, key); err != nil {
		logger.Warn("recording accepted key failed",
			logging.Int64(logging.FieldTaskID, task.ID),
			logging.Error(err),
		)
	}

	return s.finalizeBackup(ctx, logger, task, rec)
}

// finalizeBackup writes the snapshot and locks the task. A backup failure
// never rolls back the submitted state: DMH already holds the data. The task
// stays in submitted so the backup alone can be retried.
func (s *Submitter) finalizeBackup(ctx context.Context, logger *slog.Logger, task *queue.Task, rec *validate.Record) (*queue.Task, error) {
	ref, err := s.backups.Write(rec, backup.Metadata{
		SubmittedAt: time.Now().UTC(),
		Attempts:    task.Attempts,
		ResultCode:  task.LastResultCode,
		TaskID:      task.ID,
	})
	if err != nil {
		logger.Error("backup write failed after successful submission",
			logging.Int64(logging.FieldTaskID, task.ID),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run 'dmhmr backup retry' once the backup directory is reachable"),
		)
		return task, err
	}

	locked, err := s.store.Lock(ctx, task.ID, ref.Name)
	if err != nil {
		return nil, err
	}
	logger.Info("record locked",
		logging.Int64(logging.FieldTaskID, locked.ID),
		logging.String("backup", ref.Name),
	)
	return locked, nil
}

// SubmitQueued submits every queued task, at most cfg.DMH.ConcurrentLimit
// records in flight across distinct tasks. Cancellation stops scheduling;
// attempts already in flight run to their terminal state.
func (s *Submitter) SubmitQueued(ctx context.Context) (int, int, error) {
	tasks, err := s.store.List(ctx, queue.StatusQueued)
	if err != nil {
		return 0, 0, err
	}
	if len(tasks) == 0 {
		return 0, 0, nil
	}

	limit := s.cfg.DMH.ConcurrentLimit
	if limit <= 0 {
		limit = 1
	}
	if limit > len(tasks) {
		limit = len(tasks)
	}

	workCtx := context.WithoutCancel(ctx)
	jobs := make(chan int64)
	outcomes := make(chan bool, len(tasks))
	var wg sync.WaitGroup
	for i := 0; i < limit; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				task, err := s.Submit(workCtx, id)
				ok := err == nil && task != nil &&
					(task.Status == queue.StatusSubmitted || task.Status == queue.StatusLocked)
				outcomes <- ok
			}
		}()
	}

scheduling:
	for _, task := range tasks {
		select {
		case <-ctx.Done():
			break scheduling
		case jobs <- task.ID:
		}
	}
	close(jobs)
	wg.Wait()
	close(outcomes)

	submitted, failed := 0, 0
	for ok := range outcomes {
		if ok {
			submitted++
		} else {
			failed++
		}
	}
	return submitted, failed, ctx.Err()
}

// RetryBackup rewrites the snapshot for a submitted-but-unlocked task and
// locks it. Used after a backup destination outage.
func (s *Submitter) RetryBackup(ctx context.Context, id int64) (*queue.Task, error) {
	task, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.Status != queue.StatusSubmitted {
		return nil, fmt.Errorf("%w: task %d is %s, not %s",
			queue.ErrIllegalTransition, id, task.Status, queue.StatusSubmitted)
	}
	rec, err := task.Record()
	if err != nil {
		return nil, err
	}
	return s.finalizeBackup(ctx, logging.WithContext(ctx, s.logger), task, rec)
}
