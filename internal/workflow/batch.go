package workflow

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"dmhmr/internal/logging"
	"dmhmr/internal/validate"
)

// Supported announcement file extensions for folder scans.
var batchExtensions = map[string]struct{}{
	".pdf":  {},
	".xlsx": {},
	".xls":  {},
	".xlsm": {},
	".csv":  {},
}

// BatchResult is the outcome of one file in a batch run.
type BatchResult struct {
	Source  string
	Outcome *Outcome
	Err     error
}

// BatchSummary aggregates a batch run.
type BatchSummary struct {
	Scanned   int
	Queued    int
	Drafts    int
	Failed    int
	Cancelled bool
	Results   []BatchResult
}

// RunBatch parses every supported file in dir through a bounded worker pool.
// Cancellation stops scheduling new files immediately; files already being
// parsed run to completion so no record is left half-processed. File-level
// failures are collected, never fatal for the batch.
func (p *Pipeline) RunBatch(ctx context.Context, dir string, header validate.Header) (BatchSummary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return BatchSummary{}, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := batchExtensions[strings.ToLower(filepath.Ext(entry.Name()))]; !ok {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)

	workers := p.cfg.Workflow.BatchWorkers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(files) {
		workers = len(files)
	}

	summary := BatchSummary{Scanned: len(files)}
	if len(files) == 0 {
		return summary, nil
	}

	// In-flight files finish on an uncancelled context; ctx only gates
	// scheduling.
	workCtx := context.WithoutCancel(ctx)

	jobs := make(chan string)
	results := make(chan BatchResult, len(files))
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				suggested := p.registry.SuggestForFile(filepath.Base(path))
				outcome, err := p.Process(workCtx, path, suggested, header)
				results <- BatchResult{Source: path, Outcome: outcome, Err: err}
			}
		}()
	}

scheduling:
	for _, path := range files {
		select {
		case <-ctx.Done():
			summary.Cancelled = true
			break scheduling
		case jobs <- path:
		}
	}
	close(jobs)
	wg.Wait()
	close(results)

	for res := range results {
		summary.Results = append(summary.Results, res)
		switch {
		case res.Err != nil:
			summary.Failed++
			p.logger.Error("batch file failed",
				logging.String(logging.FieldSourceFile, res.Source),
				logging.Error(res.Err),
			)
		case res.Outcome.Record.Submittable():
			summary.Queued++
		default:
			summary.Drafts++
		}
	}
	sort.Slice(summary.Results, func(i, j int) bool {
		return summary.Results[i].Source < summary.Results[j].Source
	})

	if summary.Cancelled {
		return summary, ctx.Err()
	}
	return summary, nil
}

// IsCancelled reports whether a batch run ended because its context was
// cancelled rather than because of a file failure.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
