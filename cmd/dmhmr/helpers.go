package main

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"dmhmr/internal/extract"
	"dmhmr/internal/template"
	"dmhmr/internal/validate"
)

func parseTaskIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid task id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// registerHeaderFlags wires the record identity flags shared by parse and
// batch. The announcement document rarely carries the client identity, so
// the operator supplies it per run.
func registerHeaderFlags(cmd *cobra.Command, header *validate.Header) {
	cmd.Flags().StringVar(&header.ClientID, "client", "", "Client identifier stamped on each record")
	cmd.Flags().StringVar(&header.AssetID, "asset", "", "Asset identifier fallback when extraction finds none")
	cmd.Flags().StringVar(&header.Group, "group", "", "Reporting group for the records")
	cmd.Flags().StringVar(&header.Fund, "fund", "", "Fund name for the records")
}

func formatFieldValue(v validate.Value) string {
	if !v.Valid {
		if v.Raw == "" {
			return "-"
		}
		return v.Raw + " (invalid)"
	}
	switch v.Type {
	case template.TypeDate:
		return v.Date.Format("2006-01-02")
	case template.TypeDecimal, template.TypeCurrency:
		s := strconv.FormatFloat(v.Number, 'f', -1, 64)
		if v.Currency != "" {
			s += " " + v.Currency
		}
		return s
	default:
		return v.Raw
	}
}

func sortedFieldNames(fields map[string]validate.Value) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func recordFieldRows(rec *validate.Record) [][]string {
	rows := make([][]string, 0, len(rec.Fields))
	for _, name := range sortedFieldNames(rec.Fields) {
		value := rec.Fields[name]
		status := string(value.Status)
		if value.Status == extract.StatusMatched && !value.Valid {
			status = "error"
		}
		rows = append(rows, []string{name, formatFieldValue(value), status})
	}
	return rows
}

func issueLines(issues []validate.Issue) []string {
	lines := make([]string, 0, len(issues))
	for _, issue := range issues {
		line := fmt.Sprintf("%s: %s", issue.Severity, issue.Message)
		if issue.Field != "" {
			line = fmt.Sprintf("%s: [%s] %s", issue.Severity, issue.Field, issue.Message)
		}
		lines = append(lines, line)
	}
	return lines
}

func formatTaskTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
