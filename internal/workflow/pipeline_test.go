package workflow_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"dmhmr/internal/config"
	"dmhmr/internal/logging"
	"dmhmr/internal/queue"
	"dmhmr/internal/template"
	"dmhmr/internal/testsupport"
	"dmhmr/internal/validate"
	"dmhmr/internal/workflow"
)

const vanguardCSV = "ASX Code,VAS\n" +
	"Ex Date,15/01/2025\n" +
	"Pay Date,31/01/2025\n" +
	"Domestic Income,0.02\n" +
	"Foreign Income,0.01\n" +
	"Domestic Dividends,0.005\n"

const mitCSV = "ASX Code,ABC123\n" +
	"Ex Date,15/01/2025\n" +
	"Pay Date,31/01/2025\n"

func newPipeline(t *testing.T, cfg *config.Config, store *queue.Store) *workflow.Pipeline {
	t.Helper()
	registry, err := template.NewRegistry(template.Builtins()...)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	return workflow.NewPipeline(cfg, registry, store, logging.NewNop())
}

func writeAnnouncement(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestProcessQueuesCleanRecord(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	pipeline := newPipeline(t, cfg, store)

	path := writeAnnouncement(t, cfg.Paths.DownloadDir, "vanguard_jan.csv", vanguardCSV)
	outcome, err := pipeline.Process(context.Background(), path, "", validate.Header{ClientID: "AURR"})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if outcome.Template != "vanguard_au" {
		t.Fatalf("matched template = %s", outcome.Template)
	}
	if outcome.Task.Status != queue.StatusQueued {
		t.Fatalf("task status = %s, want queued", outcome.Task.Status)
	}
	if total := outcome.Record.Fields["TOTAL"]; !total.Valid || total.Number != 0.035 {
		t.Fatalf("derived total missing: %+v", total)
	}
}

func TestProcessStoresDraftForIncompleteDocument(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	pipeline := newPipeline(t, cfg, store)

	path := writeAnnouncement(t, cfg.Paths.DownloadDir, "partial.csv", "ASX Code,ABC123\nEx Date,15/01/2025\n")
	outcome, err := pipeline.Process(context.Background(), path, "asx_mit_notice", validate.Header{})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if outcome.Task.Status != queue.StatusDraft {
		t.Fatalf("task status = %s, want draft", outcome.Task.Status)
	}
	if len(outcome.Record.Errors()) == 0 {
		t.Fatal("expected error-level issues on draft record")
	}
}

func TestProcessUnknownTemplate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	pipeline := newPipeline(t, cfg, store)

	path := writeAnnouncement(t, cfg.Paths.DownloadDir, "doc.csv", mitCSV)
	if _, err := pipeline.Process(context.Background(), path, "no_such_template", validate.Header{}); err == nil {
		t.Fatal("expected error for unknown template")
	}
}

func TestProcessFlagsDuplicateOnSecondRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	pipeline := newPipeline(t, cfg, store)
	ctx := context.Background()

	path := writeAnnouncement(t, cfg.Paths.DownloadDir, "notice.csv", mitCSV)
	first, err := pipeline.Process(ctx, path, "asx_mit_notice", validate.Header{ClientID: "AURR"})
	if err != nil {
		t.Fatalf("first Process failed: %v", err)
	}
	key := validate.DuplicateKey{
		AssetID:  first.Record.AssetID(),
		ClientID: "AURR",
		ExDate:   first.Record.ExDate(),
		TypeTag:  first.Record.TypeTag,
	}
	if _, err := store.Accept(ctx, key); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}

	second, err := pipeline.Process(ctx, path, "asx_mit_notice", validate.Header{ClientID: "AURR"})
	if err != nil {
		t.Fatalf("second Process failed: %v", err)
	}
	warnings := second.Record.Warnings()
	found := false
	for _, w := range warnings {
		if w.Code == validate.CodePossibleDuplicate {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected duplicate warning, got %v", warnings)
	}
	if second.Task.Status != queue.StatusQueued {
		t.Fatalf("duplicate warning must not block queueing, status = %s", second.Task.Status)
	}
}

func TestRunBatchProcessesFolder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.BatchWorkers = 2
	store := testsupport.MustOpenStore(t, cfg)
	pipeline := newPipeline(t, cfg, store)

	writeAnnouncement(t, cfg.Paths.DownloadDir, "vanguard_jan.csv", vanguardCSV)
	writeAnnouncement(t, cfg.Paths.DownloadDir, "mit_notice.csv", mitCSV)
	writeAnnouncement(t, cfg.Paths.DownloadDir, "partial_notice.csv", "ASX Code,XYZ789\n")
	writeAnnouncement(t, cfg.Paths.DownloadDir, "notes.txt", "ignored")

	summary, err := pipeline.RunBatch(context.Background(), cfg.Paths.DownloadDir, validate.Header{ClientID: "AURR"})
	if err != nil {
		t.Fatalf("RunBatch failed: %v", err)
	}
	if summary.Scanned != 3 {
		t.Fatalf("scanned = %d, want 3 (txt ignored)", summary.Scanned)
	}
	if summary.Queued != 2 || summary.Drafts != 1 || summary.Failed != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	tasks, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(tasks))
	}
}

func TestRunBatchCancelledBeforeScheduling(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	pipeline := newPipeline(t, cfg, store)

	writeAnnouncement(t, cfg.Paths.DownloadDir, "vanguard_jan.csv", vanguardCSV)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := pipeline.RunBatch(ctx, cfg.Paths.DownloadDir, validate.Header{})
	if !workflow.IsCancelled(err) {
		t.Fatalf("expected cancellation error, got %v", err)
	}
	if !summary.Cancelled {
		t.Fatal("summary should report cancellation")
	}

	tasks, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	for _, task := range tasks {
		if task.Status == queue.StatusSubmitting {
			t.Fatalf("no task may be left in-flight after cancellation: %+v", task)
		}
	}
}
