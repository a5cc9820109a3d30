package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dmhmr/internal/queue"
	"dmhmr/internal/validate"
	"dmhmr/internal/workflow"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var header validate.Header

	cmd := &cobra.Command{
		Use:   "batch [dir]",
		Short: "Extract and queue every announcement in a folder",
		Long: "Parses every supported file (.pdf, .xlsx, .xls, .csv) in the given " +
			"directory, or the configured download directory when omitted. Each " +
			"file is matched against the template registry by filename hint and " +
			"content score.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			dir := cfg.Paths.DownloadDir
			if len(args) == 1 {
				dir = args[0]
			}

			return ctx.withLockedStore(func(store *queue.Store) error {
				pipeline := workflow.NewPipeline(cfg, registry, store, logger)
				summary, err := pipeline.RunBatch(cmd.Context(), dir, header)
				if err != nil && !workflow.IsCancelled(err) {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Scanned %d files: %d queued, %d drafts, %d failed\n",
					summary.Scanned, summary.Queued, summary.Drafts, summary.Failed)
				for _, result := range summary.Results {
					if result.Err != nil {
						fmt.Fprintf(out, "  %s: %v\n", result.Source, result.Err)
					}
				}
				if summary.Cancelled {
					fmt.Fprintln(out, "Batch cancelled before all files were scheduled")
				}
				return nil
			})
		},
	}

	registerHeaderFlags(cmd, &header)
	return cmd
}
