package workflow_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"dmhmr/internal/backup"
	"dmhmr/internal/config"
	"dmhmr/internal/logging"
	"dmhmr/internal/queue"
	"dmhmr/internal/services"
	"dmhmr/internal/services/dmh"
	"dmhmr/internal/testsupport"
	"dmhmr/internal/validate"
	"dmhmr/internal/workflow"
)

type fakeClient struct {
	mu    sync.Mutex
	resp  dmh.Response
	err   error
	calls int
}

func (f *fakeClient) Login(context.Context) error { return nil }

func (f *fakeClient) Submit(context.Context, dmh.Request) (dmh.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.resp, f.err
}

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func queueOneTask(t *testing.T, cfg *config.Config, store *queue.Store) *queue.Task {
	t.Helper()
	pipeline := newPipeline(t, cfg, store)
	path := writeAnnouncement(t, cfg.Paths.DownloadDir, "notice.csv", mitCSV)
	outcome, err := pipeline.Process(context.Background(), path, "asx_mit_notice", validate.Header{ClientID: "AURR"})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	return outcome.Task
}

func TestSubmitSuccessLocksAndBacksUp(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	task := queueOneTask(t, cfg, store)

	client := &fakeClient{resp: dmh.Response{Success: true, Code: "OK"}}
	submitter := workflow.NewSubmitter(cfg, store, client, logging.NewNop())

	done, err := submitter.Submit(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if done.Status != queue.StatusLocked {
		t.Fatalf("status = %s, want locked", done.Status)
	}
	if done.Attempts != 1 || done.LastResultCode != "OK" {
		t.Fatalf("unexpected bookkeeping: attempts=%d code=%s", done.Attempts, done.LastResultCode)
	}
	if done.BackupRef != "ABC123_AURR_15Jan2025_EST" {
		t.Fatalf("backup ref = %q", done.BackupRef)
	}

	snapshot, err := backup.NewWriter(cfg.Paths.BackupDir).Read(done.BackupRef)
	if err != nil {
		t.Fatalf("reading backup: %v", err)
	}
	if snapshot.Metadata.TaskID != done.ID || snapshot.Metadata.Attempts != 1 {
		t.Fatalf("unexpected snapshot metadata: %+v", snapshot.Metadata)
	}

	rec, err := done.Record()
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	exists, err := store.Exists(context.Background(), validate.DuplicateKey{
		AssetID:  rec.AssetID(),
		ClientID: "AURR",
		ExDate:   rec.ExDate(),
		TypeTag:  rec.TypeTag,
	})
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Fatal("submitted key should be in accepted records")
	}
}

func TestSubmitRejectionMovesToFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	task := queueOneTask(t, cfg, store)

	client := &fakeClient{resp: dmh.Response{Success: false, Code: "DUP", Message: "already exists"}}
	submitter := workflow.NewSubmitter(cfg, store, client, logging.NewNop())

	failed, err := submitter.Submit(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("rejection should not be an error: %v", err)
	}
	if failed.Status != queue.StatusFailed {
		t.Fatalf("status = %s, want failed", failed.Status)
	}
	if failed.LastResultCode != "DUP" || failed.Attempts != 1 {
		t.Fatalf("unexpected bookkeeping: %+v", failed)
	}
	if !failed.Editable() {
		t.Fatal("failed task must remain editable")
	}
}

func TestSubmitTimeoutRecordsCause(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	task := queueOneTask(t, cfg, store)

	client := &fakeClient{err: services.Wrap(services.ErrTimeout, "dmh", "submit", "submission timed out", context.DeadlineExceeded)}
	submitter := workflow.NewSubmitter(cfg, store, client, logging.NewNop())

	failed, err := submitter.Submit(context.Background(), task.ID)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if failed.Status != queue.StatusFailed {
		t.Fatalf("status = %s, want failed", failed.Status)
	}
	if failed.LastResultCode != "timeout" {
		t.Fatalf("cause = %q, want timeout", failed.LastResultCode)
	}
}

func TestSubmitSecondCallerRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	task := queueOneTask(t, cfg, store)

	if _, err := store.BeginSubmission(context.Background(), task.ID); err != nil {
		t.Fatalf("BeginSubmission failed: %v", err)
	}

	client := &fakeClient{resp: dmh.Response{Success: true, Code: "OK"}}
	submitter := workflow.NewSubmitter(cfg, store, client, logging.NewNop())

	_, err := submitter.Submit(context.Background(), task.ID)
	if !errors.Is(err, queue.ErrAlreadySubmitting) {
		t.Fatalf("expected ErrAlreadySubmitting, got %v", err)
	}
	if client.callCount() != 0 {
		t.Fatalf("no submission should have been sent, got %d", client.callCount())
	}
}

func TestBackupFailureDoesNotRevertSubmitted(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	task := queueOneTask(t, cfg, store)

	// Replace the backup directory with a plain file so the write fails.
	if err := os.RemoveAll(cfg.Paths.BackupDir); err != nil {
		t.Fatalf("remove backup dir: %v", err)
	}
	if err := os.WriteFile(cfg.Paths.BackupDir, []byte("blocker"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}

	client := &fakeClient{resp: dmh.Response{Success: true, Code: "OK"}}
	submitter := workflow.NewSubmitter(cfg, store, client, logging.NewNop())

	got, err := submitter.Submit(context.Background(), task.ID)
	if !errors.Is(err, backup.ErrBackupIO) {
		t.Fatalf("expected ErrBackupIO, got %v", err)
	}
	if got.Status != queue.StatusSubmitted {
		t.Fatalf("backup failure must not revert submission, status = %s", got.Status)
	}

	// Destination restored; retrying only the backup completes the lock.
	if err := os.Remove(cfg.Paths.BackupDir); err != nil {
		t.Fatalf("remove blocker: %v", err)
	}
	if err := os.MkdirAll(cfg.Paths.BackupDir, 0o755); err != nil {
		t.Fatalf("restore backup dir: %v", err)
	}

	locked, err := submitter.RetryBackup(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("RetryBackup failed: %v", err)
	}
	if locked.Status != queue.StatusLocked {
		t.Fatalf("status = %s, want locked", locked.Status)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.BackupDir, locked.BackupRef+".json")); err != nil {
		t.Fatalf("backup artifact missing: %v", err)
	}
}

func TestSubmitQueuedProcessesAll(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.DMH.ConcurrentLimit = 2
	store := testsupport.MustOpenStore(t, cfg)
	pipeline := newPipeline(t, cfg, store)
	ctx := context.Background()

	sources := map[string]string{
		"a_notice.csv": "ASX Code,AAA111\nEx Date,15/01/2025\nPay Date,31/01/2025\n",
		"b_notice.csv": "ASX Code,BBB222\nEx Date,15/01/2025\nPay Date,31/01/2025\n",
		"c_notice.csv": "ASX Code,CCC333\nEx Date,15/01/2025\nPay Date,31/01/2025\n",
	}
	for name, content := range sources {
		path := writeAnnouncement(t, cfg.Paths.DownloadDir, name, content)
		if _, err := pipeline.Process(ctx, path, "asx_mit_notice", validate.Header{ClientID: "AURR"}); err != nil {
			t.Fatalf("Process %s failed: %v", name, err)
		}
	}

	client := &fakeClient{resp: dmh.Response{Success: true, Code: "OK"}}
	submitter := workflow.NewSubmitter(cfg, store, client, logging.NewNop())

	submitted, failed, err := submitter.SubmitQueued(ctx)
	if err != nil {
		t.Fatalf("SubmitQueued failed: %v", err)
	}
	if submitted != 3 || failed != 0 {
		t.Fatalf("submitted=%d failed=%d, want 3/0", submitted, failed)
	}
	if client.callCount() != 3 {
		t.Fatalf("expected 3 submissions, got %d", client.callCount())
	}

	locked, err := store.List(ctx, queue.StatusLocked)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(locked) != 3 {
		t.Fatalf("expected 3 locked tasks, got %d", len(locked))
	}
}
