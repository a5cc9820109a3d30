package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newTemplatesCommand(ctx *commandContext) *cobra.Command {
	templatesCmd := &cobra.Command{
		Use:   "templates",
		Short: "Inspect the extraction template registry",
	}

	templatesCmd.AddCommand(newTemplatesListCommand(ctx))
	templatesCmd.AddCommand(newTemplatesShowCommand(ctx))

	return templatesCmd
}

func newTemplatesListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := ctx.loadRegistry()
			if err != nil {
				return err
			}

			summaries := registry.List()
			rows := make([][]string, 0, len(summaries))
			for _, summary := range summaries {
				rules := strings.Join(summary.Rules, ", ")
				if rules == "" {
					rules = "-"
				}
				rows = append(rows, []string{
					summary.Name,
					summary.TypeTag,
					strconv.Itoa(summary.Priority),
					strconv.Itoa(summary.FieldCount),
					rules,
				})
			}
			printTable(cmd.OutOrStdout(),
				[]string{"Name", "Type", "Priority", "Fields", "Rules"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft})
			return nil
		},
	}
}

func newTemplatesShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Show the fields a template extracts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := ctx.loadRegistry()
			if err != nil {
				return err
			}
			tpl, err := registry.Get(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Template %s (%s, priority %d)\n", tpl.Name, tpl.TypeTag, tpl.Priority)
			if len(tpl.Rules) > 0 {
				fmt.Fprintf(out, "Rules: %s\n", strings.Join(tpl.Rules, ", "))
			}

			rows := make([][]string, 0, len(tpl.Fields))
			for _, field := range tpl.Fields {
				defaultValue := field.Default
				if defaultValue == "" {
					defaultValue = "-"
				}
				currency := field.Currency
				if currency == "" {
					currency = "-"
				}
				rows = append(rows, []string{
					field.Name,
					string(field.Type),
					yesNo(field.Required),
					defaultValue,
					currency,
					field.Pattern,
				})
			}
			printTable(out,
				[]string{"Field", "Type", "Required", "Default", "Currency", "Pattern"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft})
			return nil
		},
	}
}
