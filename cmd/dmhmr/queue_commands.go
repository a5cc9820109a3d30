package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"dmhmr/internal/queue"
	"dmhmr/internal/validate"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage submission tasks",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueAddCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueShowCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueuePromoteCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))

	return queueCmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show task counts per lifecycle state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				health, err := store.Health(cmd.Context())
				if err != nil {
					return err
				}
				if health.Total == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				rows := [][]string{
					{string(queue.StatusDraft), strconv.Itoa(health.Draft)},
					{string(queue.StatusQueued), strconv.Itoa(health.Queued)},
					{string(queue.StatusSubmitting), strconv.Itoa(health.Submitting)},
					{string(queue.StatusSubmitted), strconv.Itoa(health.Submitted)},
					{string(queue.StatusFailed), strconv.Itoa(health.Failed)},
					{string(queue.StatusLocked), strconv.Itoa(health.Locked)},
					{"total", strconv.Itoa(health.Total)},
				}
				printTable(cmd.OutOrStdout(),
					[]string{"Status", "Count"}, rows,
					[]columnAlignment{alignLeft, alignRight})
				return nil
			})
		},
	}
}

func newQueueAddCommand(ctx *commandContext) *cobra.Command {
	var templateName string
	var header validate.Header

	cmd := &cobra.Command{
		Use:   "add <file>",
		Short: "Extract a file and add the record to the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(ctx, cmd, args[0], templateName, header)
		},
	}

	cmd.Flags().StringVarP(&templateName, "template", "t", "", "Template name (default: best match by score)")
	registerHeaderFlags(cmd, &header)
	return cmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List submission tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := make([]queue.Status, 0, len(listStatuses))
			for _, raw := range listStatuses {
				status, ok := queue.ParseStatus(raw)
				if !ok {
					return fmt.Errorf("unknown status %q", raw)
				}
				statuses = append(statuses, status)
			}

			return ctx.withStore(func(store *queue.Store) error {
				tasks, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if len(tasks) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}

				rows := make([][]string, 0, len(tasks))
				for _, task := range tasks {
					rows = append(rows, []string{
						strconv.FormatInt(task.ID, 10),
						string(task.Status),
						task.AssetID,
						task.ClientID,
						task.ExDate.Format("2006-01-02"),
						task.TypeTag,
						task.Template,
						strconv.Itoa(task.Attempts),
						formatTaskTime(task.UpdatedAt),
					})
				}
				printTable(cmd.OutOrStdout(),
					[]string{"ID", "Status", "Asset", "Client", "Ex Date", "Type", "Template", "Attempts", "Updated"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft})
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by lifecycle status (repeatable)")
	return cmd
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one task with its record and issues",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}

			return ctx.withStore(func(store *queue.Store) error {
				task, err := store.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				rec, err := task.Record()
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Task %d\n", task.ID)
				fmt.Fprintf(out, "  Status:    %s\n", task.Status)
				fmt.Fprintf(out, "  Source:    %s\n", task.Source)
				fmt.Fprintf(out, "  Template:  %s (%s)\n", task.Template, task.TypeTag)
				fmt.Fprintf(out, "  Identity:  %s / %s / %s\n", task.AssetID, task.ClientID, task.ExDate.Format("2006-01-02"))
				fmt.Fprintf(out, "  Attempts:  %d\n", task.Attempts)
				fmt.Fprintf(out, "  Editable:  %s\n", yesNo(task.Editable()))
				if task.LastResultCode != "" {
					fmt.Fprintf(out, "  Result:    %s\n", task.LastResultCode)
				}
				if task.ErrorMessage != "" {
					fmt.Fprintf(out, "  Error:     %s\n", task.ErrorMessage)
				}
				if task.BackupRef != "" {
					fmt.Fprintf(out, "  Backup:    %s\n", task.BackupRef)
				}
				fmt.Fprintf(out, "  Updated:   %s\n", formatTaskTime(task.UpdatedAt))

				printTable(out,
					[]string{"Field", "Value", "Status"},
					recordFieldRows(rec),
					[]columnAlignment{alignLeft, alignRight, alignLeft})
				for _, line := range issueLines(rec.Issues) {
					fmt.Fprintln(out, line)
				}
				return nil
			})
		},
	}
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [id...]",
		Short: "Requeue failed tasks for another attempt",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseTaskIDs(args)
			if err != nil {
				return err
			}
			return ctx.withLockedStore(func(store *queue.Store) error {
				requeued, err := store.RetryFailed(cmd.Context(), ids...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Requeued %d failed tasks\n", requeued)
				return nil
			})
		},
	}
}

func newQueuePromoteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "promote <id>",
		Short: "Move a corrected draft to the submission queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}
			return ctx.withLockedStore(func(store *queue.Store) error {
				task, err := store.Promote(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Task %d is now %s\n", task.ID, task.Status)
				return nil
			})
		},
	}
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id...>",
		Short: "Remove tasks from the queue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseTaskIDs(args)
			if err != nil {
				return err
			}
			return ctx.withLockedStore(func(store *queue.Store) error {
				removed, err := store.Remove(cmd.Context(), ids...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d tasks\n", removed)
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var clearStatuses []string
	var clearAll bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove tasks in bulk by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearAll == (len(clearStatuses) > 0) {
				return errors.New("specify --status filters or --all, not both")
			}
			statuses := make([]queue.Status, 0, len(clearStatuses))
			for _, raw := range clearStatuses {
				status, ok := queue.ParseStatus(raw)
				if !ok {
					return fmt.Errorf("unknown status %q", raw)
				}
				statuses = append(statuses, status)
			}
			return ctx.withLockedStore(func(store *queue.Store) error {
				removed, err := store.Clear(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d tasks\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&clearStatuses, "status", "s", nil, "Remove only tasks in these statuses (repeatable)")
	cmd.Flags().BoolVar(&clearAll, "all", false, "Remove every task regardless of status")
	return cmd
}
