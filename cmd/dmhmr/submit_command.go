package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"dmhmr/internal/queue"
	"dmhmr/internal/services/dmh"
	"dmhmr/internal/workflow"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var submitAll bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "submit [id]",
		Short: "Submit queued records to DMH",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if submitAll == (len(args) == 1) {
				return errors.New("specify a task id or --all, not both")
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			var client dmh.Client
			if dryRun {
				client = dmh.Noop{}
			} else {
				client, err = dmh.NewClient(cfg)
				if err != nil {
					return err
				}
			}

			return ctx.withLockedStore(func(store *queue.Store) error {
				submitter := workflow.NewSubmitter(cfg, store, client, logger)
				out := cmd.OutOrStdout()

				if submitAll {
					submitted, failed, err := submitter.SubmitQueued(cmd.Context())
					if err != nil && !workflow.IsCancelled(err) {
						return err
					}
					fmt.Fprintf(out, "Submitted %d tasks, %d failed\n", submitted, failed)
					if err != nil {
						fmt.Fprintln(out, "Submission run cancelled; remaining queued tasks were not attempted")
					}
					return nil
				}

				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid task id %q", args[0])
				}

				task, err := submitter.Submit(cmd.Context(), id)
				if err != nil {
					if task != nil && task.Status == queue.StatusSubmitted {
						// DMH accepted but the backup snapshot failed.
						fmt.Fprintf(out, "Task %d submitted but not locked: %v\n", id, err)
						fmt.Fprintf(out, "Run 'dmhmr backup retry %d' once the backup destination is reachable\n", id)
						return nil
					}
					return err
				}

				switch task.Status {
				case queue.StatusLocked:
					fmt.Fprintf(out, "Task %d submitted and locked (backup %s)\n", id, task.BackupRef)
				case queue.StatusFailed:
					fmt.Fprintf(out, "Task %d rejected by DMH [%s]: %s\n", id, task.LastResultCode, task.ErrorMessage)
					fmt.Fprintf(out, "Fix the record and run 'dmhmr queue retry %d'\n", id)
				default:
					fmt.Fprintf(out, "Task %d finished in state %s\n", id, task.Status)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&submitAll, "all", false, "Submit every queued task")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run the lifecycle without contacting DMH")
	return cmd
}
