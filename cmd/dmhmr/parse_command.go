package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dmhmr/internal/queue"
	"dmhmr/internal/validate"
	"dmhmr/internal/workflow"
)

func newParseCommand(ctx *commandContext) *cobra.Command {
	var templateName string
	var header validate.Header

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Extract and queue a single announcement file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(ctx, cmd, args[0], templateName, header)
		},
	}

	cmd.Flags().StringVarP(&templateName, "template", "t", "", "Template name (default: best match by score)")
	registerHeaderFlags(cmd, &header)
	return cmd
}

// runParse is shared by `parse` and `queue add`: both push one file through
// the extraction pipeline into the task store.
func runParse(ctx *commandContext, cmd *cobra.Command, path, templateName string, header validate.Header) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}
	registry, err := ctx.loadRegistry()
	if err != nil {
		return err
	}

	return ctx.withLockedStore(func(store *queue.Store) error {
		pipeline := workflow.NewPipeline(cfg, registry, store, logger)
		outcome, err := pipeline.Process(cmd.Context(), path, templateName, header)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Task %d (%s) from template %s\n",
			outcome.Task.ID, outcome.Task.Status, outcome.Template)
		printTable(out,
			[]string{"Field", "Value", "Status"},
			recordFieldRows(outcome.Record),
			[]columnAlignment{alignLeft, alignRight, alignLeft},
		)
		for _, line := range issueLines(outcome.Record.Issues) {
			fmt.Fprintln(out, line)
		}
		if outcome.Task.Status == queue.StatusDraft {
			fmt.Fprintf(out, "Record has errors; stored as draft. Fix and run 'dmhmr queue promote %d'\n", outcome.Task.ID)
		}
		return nil
	})
}
