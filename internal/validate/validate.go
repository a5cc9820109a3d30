package validate

import (
	"context"
	"fmt"
	"time"

	"dmhmr/internal/extract"
	"dmhmr/internal/services"
	"dmhmr/internal/template"
)

// Severity ranks a validation issue. Errors block submission eligibility,
// warnings do not.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue codes carried on validation issues.
const (
	CodeTypeCoercion      = "type_coercion"
	CodeMissingRequired   = "missing_required"
	CodePossibleDuplicate = "possible_duplicate"
	CodeUnknownRule       = "unknown_rule"
	CodeBadCurrency       = "bad_currency"
	CodeMissingRate       = "missing_conversion_rate"
)

// Issue is one validation finding attached to a record.
type Issue struct {
	Severity Severity `json:"severity"`
	Field    string   `json:"field,omitempty"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
}

// Header carries the record identity keys supplied by the caller rather than
// extracted from the document.
type Header struct {
	ClientID string `json:"client_id"`
	AssetID  string `json:"asset_id"`
	Group    string `json:"group"`
	Fund     string `json:"fund"`
}

// Value is one coerced field on a validated record. Exactly one of Date,
// Number, or Raw is authoritative depending on Type; Raw always preserves the
// extracted text for review.
type Value struct {
	Raw      string              `json:"raw"`
	Type     template.FieldType  `json:"type"`
	Status   extract.FieldStatus `json:"status"`
	Valid    bool                `json:"valid"`
	Number   float64             `json:"number,omitempty"`
	Date     time.Time           `json:"date,omitempty"`
	Currency string              `json:"currency,omitempty"`
}

// Record is the validated, rule-applied view of one extraction result.
type Record struct {
	Header   Header           `json:"header"`
	Template string           `json:"template"`
	TypeTag  string           `json:"type_tag"`
	Source   string           `json:"source"`
	Fields   map[string]Value `json:"fields"`
	Issues   []Issue          `json:"issues,omitempty"`
}

// DuplicateKey identifies an accepted record for the duplicate check.
type DuplicateKey struct {
	AssetID  string
	ClientID string
	ExDate   time.Time
	TypeTag  string
}

// DuplicateChecker is the narrow query interface onto the accepted-records
// store. The storage engine behind it is not this package's concern.
type DuplicateChecker interface {
	Exists(ctx context.Context, key DuplicateKey) (bool, error)
}

// Options supplies caller context the rule hooks need: defaults come from
// configuration, conversion rates from the caller, and the duplicate store is
// optional (nil skips the check).
type Options struct {
	DefaultTaxRate  float64
	TargetCurrency  string
	ConversionRates map[string]float64
	Duplicates      DuplicateChecker
}

// Validate coerces the extraction result into typed fields, checks required
// fields, runs the template's business rules in declared order, and flags
// possible duplicates. Issues are attached to the record, never dropped; the
// returned error covers only infrastructure failures such as an unreachable
// duplicate store.
func Validate(ctx context.Context, result *extract.Result, tpl *template.Template, header Header, opts Options) (*Record, error) {
	rec := &Record{
		Header:   header,
		Template: result.Template,
		TypeTag:  result.TypeTag,
		Source:   result.Source,
		Fields:   make(map[string]Value, len(result.Fields)),
	}

	for _, f := range result.Fields {
		spec := tpl.Field(f.Name)
		rec.Fields[f.Name] = coerce(rec, f, spec)
	}

	applyHeaderFallbacks(rec)
	checkRequired(rec)
	runRules(rec, tpl, opts)

	if opts.Duplicates != nil && rec.Submittable() {
		key := DuplicateKey{
			AssetID:  rec.AssetID(),
			ClientID: rec.Header.ClientID,
			ExDate:   rec.ExDate(),
			TypeTag:  rec.TypeTag,
		}
		exists, err := opts.Duplicates.Exists(ctx, key)
		if err != nil {
			return nil, services.Wrap(services.ErrTransient, "validate", "duplicate check",
				"querying accepted records", err)
		}
		if exists {
			rec.addIssue(Issue{
				Severity: SeverityWarning,
				Code:     CodePossibleDuplicate,
				Message: fmt.Sprintf("record %s/%s/%s/%s already accepted",
					key.AssetID, key.ClientID, key.ExDate.Format("2006-01-02"), key.TypeTag),
			})
		}
	}

	return rec, nil
}

// Required business fields. A record missing any of these cannot leave draft.
var requiredFields = []string{"ex_date", "pay_date", "asset_id"}

func checkRequired(rec *Record) {
	for _, name := range requiredFields {
		v, ok := rec.Fields[name]
		if ok && v.Valid {
			continue
		}
		if rec.hasIssue(name, CodeTypeCoercion, SeverityError) {
			continue
		}
		rec.addIssue(Issue{
			Severity: SeverityError,
			Field:    name,
			Code:     CodeMissingRequired,
			Message:  fmt.Sprintf("required field %s is missing", name),
		})
	}
}

// applyHeaderFallbacks fills asset_id from the header when the document did
// not yield one. The header is operator-supplied and trusted.
func applyHeaderFallbacks(rec *Record) {
	v, ok := rec.Fields["asset_id"]
	if (!ok || !v.Valid) && rec.Header.AssetID != "" {
		rec.Fields["asset_id"] = Value{
			Raw:    rec.Header.AssetID,
			Type:   template.TypeString,
			Status: extract.StatusDefaulted,
			Valid:  true,
		}
	}
}

// Submittable reports whether the record may leave draft: warnings are
// acceptable, any error-level issue blocks.
func (r *Record) Submittable() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return false
		}
	}
	return true
}

// Errors returns the error-level issues.
func (r *Record) Errors() []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			out = append(out, issue)
		}
	}
	return out
}

// Warnings returns the warning-level issues.
func (r *Record) Warnings() []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == SeverityWarning {
			out = append(out, issue)
		}
	}
	return out
}

// AssetID returns the validated asset identifier, preferring the extracted
// field over the header.
func (r *Record) AssetID() string {
	if v, ok := r.Fields["asset_id"]; ok && v.Valid {
		return v.Raw
	}
	return r.Header.AssetID
}

// ExDate returns the coerced ex date, zero when absent or invalid.
func (r *Record) ExDate() time.Time {
	if v, ok := r.Fields["ex_date"]; ok && v.Valid {
		return v.Date
	}
	return time.Time{}
}

// PayDate returns the coerced pay date, zero when absent or invalid.
func (r *Record) PayDate() time.Time {
	if v, ok := r.Fields["pay_date"]; ok && v.Valid {
		return v.Date
	}
	return time.Time{}
}

func (r *Record) addIssue(issue Issue) {
	r.Issues = append(r.Issues, issue)
}

func (r *Record) hasIssue(field, code string, severity Severity) bool {
	for _, issue := range r.Issues {
		if issue.Field == field && issue.Code == code && issue.Severity == severity {
			return true
		}
	}
	return false
}

// fieldErrored reports whether any error-level issue names the field. Rule
// hooks use it to honor the no-overwrite rule.
func (r *Record) fieldErrored(name string) bool {
	for _, issue := range r.Issues {
		if issue.Field == name && issue.Severity == SeverityError {
			return true
		}
	}
	return false
}
