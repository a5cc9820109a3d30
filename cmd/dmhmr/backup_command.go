package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"dmhmr/internal/backup"
	"dmhmr/internal/queue"
	"dmhmr/internal/services/dmh"
	"dmhmr/internal/workflow"
)

func newBackupCommand(ctx *commandContext) *cobra.Command {
	backupCmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage submission backup snapshots",
	}

	backupCmd.AddCommand(newBackupRetryCommand(ctx))
	backupCmd.AddCommand(newBackupShowCommand(ctx))

	return backupCmd
}

func newBackupRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <id>",
		Short: "Rewrite the snapshot for a submitted task and lock it",
		Long: "A task stays in the submitted state when DMH accepted the record " +
			"but the backup snapshot could not be written. Once the backup " +
			"destination is reachable again, retry writes the snapshot and " +
			"completes the lock.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			return ctx.withLockedStore(func(store *queue.Store) error {
				// The backup retry never contacts DMH.
				submitter := workflow.NewSubmitter(cfg, store, dmh.Noop{}, logger)
				task, err := submitter.RetryBackup(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Task %d locked (backup %s)\n", task.ID, task.BackupRef)
				return nil
			})
		},
	}
}

func newBackupShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print a backup snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			snapshot, err := backup.NewWriter(cfg.Paths.BackupDir).Read(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Snapshot %s\n", snapshot.Name)
			fmt.Fprintf(out, "  Task:      %d\n", snapshot.Metadata.TaskID)
			fmt.Fprintf(out, "  Submitted: %s\n", formatTaskTime(snapshot.Metadata.SubmittedAt))
			fmt.Fprintf(out, "  Attempts:  %d\n", snapshot.Metadata.Attempts)
			fmt.Fprintf(out, "  Result:    %s\n", snapshot.Metadata.ResultCode)
			printTable(out,
				[]string{"Field", "Value", "Status"},
				recordFieldRows(snapshot.Record),
				[]columnAlignment{alignLeft, alignRight, alignLeft})
			return nil
		},
	}
}
