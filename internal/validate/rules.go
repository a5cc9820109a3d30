package validate

import (
	"fmt"

	"dmhmr/internal/extract"
	"dmhmr/internal/template"
)

// ruleFunc is one named business rule: a pure function over the coerced field
// set. Each rule only writes the fields it owns and never overwrites a field
// that already carries an error.
type ruleFunc func(rec *Record, opts Options)

var rules = map[string]ruleFunc{
	"tax_rate_default": taxRateDefault,
	"derived_total":    derivedTotal,
	"currency_convert": currencyConvert,
}

// runRules executes the template's business rules in declared order. An
// unknown rule name is a warning, not a failure: the template store is
// administrator-edited and a typo should not silently drop the record.
func runRules(rec *Record, tpl *template.Template, opts Options) {
	for _, name := range tpl.Rules {
		rule, ok := rules[name]
		if !ok {
			rec.addIssue(Issue{
				Severity: SeverityWarning,
				Code:     CodeUnknownRule,
				Message:  fmt.Sprintf("template %s declares unknown rule %q", tpl.Name, name),
			})
			continue
		}
		rule(rec, opts)
	}
}

// taxRateDefault fills tax_rate with the configured default when the document
// carried no explicit rate.
func taxRateDefault(rec *Record, opts Options) {
	if rec.fieldErrored("tax_rate") {
		return
	}
	if v, ok := rec.Fields["tax_rate"]; ok && v.Valid {
		return
	}
	rate := opts.DefaultTaxRate
	rec.Fields["tax_rate"] = Value{
		Raw:    fmt.Sprintf("%g", rate),
		Type:   template.TypeDecimal,
		Status: extract.StatusDefaulted,
		Valid:  true,
		Number: rate,
	}
}

// Component fields summed into TOTAL when the template declares derived_total.
var totalComponents = []string{"DOM_INC", "FOR_INC", "DOM_DID"}

// derivedTotal computes TOTAL as the sum of the distribution components when
// the document did not state a total itself. All components must be valid;
// otherwise the total is left alone and the missing components surface
// through their own issues.
func derivedTotal(rec *Record, opts Options) {
	if rec.fieldErrored("TOTAL") {
		return
	}
	if v, ok := rec.Fields["TOTAL"]; ok && v.Valid && v.Status == extract.StatusMatched {
		return
	}

	sum := 0.0
	currency := ""
	for _, name := range totalComponents {
		v, ok := rec.Fields[name]
		if !ok || !v.Valid {
			return
		}
		if v.Currency != "" {
			if currency != "" && currency != v.Currency {
				// Mixed-currency components cannot be summed directly.
				return
			}
			currency = v.Currency
		}
		sum += v.Number
	}
	fieldType := template.TypeDecimal
	if currency != "" {
		fieldType = template.TypeCurrency
	}
	rec.Fields["TOTAL"] = Value{
		Raw:      fmt.Sprintf("%g", sum),
		Type:     fieldType,
		Status:   extract.StatusDefaulted,
		Valid:    true,
		Number:   sum,
		Currency: currency,
	}
}

// currencyConvert rescales currency fields whose tag differs from the target
// currency using the caller-supplied rate table, keyed "SRC/DST". A missing
// rate is a warning and the value keeps its source currency.
func currencyConvert(rec *Record, opts Options) {
	target := opts.TargetCurrency
	if target == "" {
		return
	}
	for name, v := range rec.Fields {
		if v.Type != template.TypeCurrency || !v.Valid {
			continue
		}
		if v.Currency == "" || v.Currency == target {
			continue
		}
		if rec.fieldErrored(name) {
			continue
		}
		pair := v.Currency + "/" + target
		rate, ok := opts.ConversionRates[pair]
		if !ok {
			rec.addIssue(Issue{
				Severity: SeverityWarning,
				Field:    name,
				Code:     CodeMissingRate,
				Message:  fmt.Sprintf("no conversion rate for %s", pair),
			})
			continue
		}
		v.Number *= rate
		v.Raw = fmt.Sprintf("%g", v.Number)
		v.Currency = target
		rec.Fields[name] = v
	}
}
