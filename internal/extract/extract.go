package extract

import (
	"strings"

	"dmhmr/internal/document"
	"dmhmr/internal/template"
)

// FieldStatus records how a field value was obtained.
type FieldStatus string

const (
	StatusMatched   FieldStatus = "matched"
	StatusDefaulted FieldStatus = "defaulted"
	StatusMissing   FieldStatus = "missing"
)

// ResultStatus summarizes an extraction run over one document.
type ResultStatus string

const (
	StatusComplete ResultStatus = "complete"
	StatusPartial  ResultStatus = "partial"
)

// Field is one extracted value with its provenance.
type Field struct {
	Name     string
	Raw      string
	Status   FieldStatus
	Location document.Location
}

// Result is the output of applying one template to one document. Fields
// appear in template order. Status is complete iff no field is missing.
type Result struct {
	Template string
	TypeTag  string
	Source   string
	Fields   []Field
	Status   ResultStatus
}

// Field returns the extracted field with the given name, or nil.
func (r *Result) Field(name string) *Field {
	for i := range r.Fields {
		if r.Fields[i].Name == name {
			return &r.Fields[i]
		}
	}
	return nil
}

// Missing returns the names of fields that could not be extracted.
func (r *Result) Missing() []string {
	var out []string
	for _, f := range r.Fields {
		if f.Status == StatusMissing {
			out = append(out, f.Name)
		}
	}
	return out
}

// Extract applies the template's field patterns to the normalized document.
// Each field takes the first document window whose text matches its pattern;
// documents are assumed to state each field once, so repeated occurrences
// beyond the first are not considered. A field with no match falls back to
// its declared default, or is reported missing. Numeric fields get light
// cleanup so the validator receives plain digit strings. Extract has no side
// effects.
func Extract(doc *document.Document, tpl *template.Template) *Result {
	windows := doc.Windows()

	result := &Result{
		Template: tpl.Name,
		TypeTag:  tpl.TypeTag,
		Source:   doc.Source,
		Fields:   make([]Field, 0, len(tpl.Fields)),
		Status:   StatusComplete,
	}

	for i := range tpl.Fields {
		spec := &tpl.Fields[i]
		field := Field{Name: spec.Name, Status: StatusMissing}

		for _, w := range windows {
			value, ok := spec.Match(w.Text)
			if !ok {
				continue
			}
			field.Raw = cleanValue(spec, value)
			field.Status = StatusMatched
			field.Location = w.Location
			break
		}

		if field.Status == StatusMissing && spec.Default != "" {
			field.Raw = spec.Default
			field.Status = StatusDefaulted
		}
		if field.Status == StatusMissing {
			result.Status = StatusPartial
		}
		result.Fields = append(result.Fields, field)
	}
	return result
}

// cleanValue strips thousands separators and currency symbols from numeric
// values. Typing and range checks belong to the validator; this only
// normalizes the raw text.
func cleanValue(spec *template.FieldSpec, value string) string {
	value = strings.TrimSpace(value)
	if spec.Type != template.TypeDecimal && spec.Type != template.TypeCurrency {
		return value
	}
	value = strings.ReplaceAll(value, ",", "")
	value = strings.TrimLeft(value, "$€£ ")
	return strings.TrimSpace(value)
}
