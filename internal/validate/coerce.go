package validate

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/currency"

	"dmhmr/internal/extract"
	"dmhmr/internal/template"
)

// Recognized date layouts in priority order. Ambiguous strings such as
// 01/02/2025 resolve by this order (day first), not by locale inference.
var dateLayouts = []string{
	"02/01/2006",
	"2006-01-02",
	"02-01-2006",
	"2 Jan 2006",
	"2 January 2006",
	"20060102",
}

// ParseDate parses s against the recognized layouts; the first layout that
// fully parses wins.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// coerce types one extracted field. Coercion failure on a required field is
// an error-level issue; on an optional field it is a warning and the value
// reverts to the declared default, or stays empty.
func coerce(rec *Record, f extract.Field, spec *template.FieldSpec) Value {
	v := Value{Raw: f.Raw, Status: f.Status, Type: template.TypeString}
	if spec != nil {
		v.Type = spec.Type
		v.Currency = spec.Currency
	}
	if f.Status == extract.StatusMissing {
		return v
	}

	var err error
	switch v.Type {
	case template.TypeDate:
		v.Date, err = ParseDate(f.Raw)
	case template.TypeDecimal:
		v.Number, err = strconv.ParseFloat(f.Raw, 64)
	case template.TypeCurrency:
		v.Number, err = strconv.ParseFloat(f.Raw, 64)
		if err == nil && v.Currency != "" {
			if _, tagErr := currency.ParseISO(v.Currency); tagErr != nil {
				rec.addIssue(Issue{
					Severity: SeverityWarning,
					Field:    f.Name,
					Code:     CodeBadCurrency,
					Message:  fmt.Sprintf("field %s: unknown currency tag %q", f.Name, v.Currency),
				})
				v.Currency = ""
			}
		}
	case template.TypeString:
		// raw text stands as-is
	}

	if err != nil {
		required := spec != nil && spec.Required
		severity := SeverityWarning
		if required {
			severity = SeverityError
		}
		rec.addIssue(Issue{
			Severity: severity,
			Field:    f.Name,
			Code:     CodeTypeCoercion,
			Message:  fmt.Sprintf("field %s: cannot coerce %q to %s", f.Name, f.Raw, v.Type),
		})
		if !required && spec != nil && spec.Default != "" {
			return coerce(rec, extract.Field{
				Name:   f.Name,
				Raw:    spec.Default,
				Status: extract.StatusDefaulted,
			}, &template.FieldSpec{Name: spec.Name, Type: spec.Type, Currency: spec.Currency})
		}
		v.Raw = ""
		return v
	}

	v.Valid = true
	return v
}
