package template

import (
	"fmt"
	"regexp"
)

// FieldType names the semantic type a field coerces to after extraction.
type FieldType string

const (
	TypeDate     FieldType = "date"
	TypeDecimal  FieldType = "decimal"
	TypeCurrency FieldType = "currency"
	TypeString   FieldType = "string"
)

var fieldTypes = map[FieldType]struct{}{
	TypeDate:     {},
	TypeDecimal:  {},
	TypeCurrency: {},
	TypeString:   {},
}

// Type tags label the downstream record as actual or estimated values.
const (
	TagActual    = "ACT"
	TagEstimated = "EST"
)

// FieldSpec declares one extractable field: where to find it in the document
// and how to treat the value afterwards.
type FieldSpec struct {
	Name     string    `toml:"name"`
	Pattern  string    `toml:"pattern"`
	Type     FieldType `toml:"type"`
	Required bool      `toml:"required"`
	Default  string    `toml:"default"`
	Currency string    `toml:"currency"`

	re *regexp.Regexp
}

// Match reports whether text satisfies the field pattern. On match it returns
// the extracted value: the first capture group when the pattern declares one,
// otherwise the full match.
func (f *FieldSpec) Match(text string) (string, bool) {
	m := f.re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	if len(m) > 1 && m[1] != "" {
		return m[1], true
	}
	return m[0], true
}

// Template is a declarative description of one announcement layout: the
// ordered fields to extract, the business rules to run over them, and the
// type tag carried through to the submitted record. A compiled Template is
// immutable for the duration of an extraction run.
type Template struct {
	Name     string      `toml:"name"`
	TypeTag  string      `toml:"type_tag"`
	Priority int         `toml:"priority"`
	Rules    []string    `toml:"rules"`
	Fields   []FieldSpec `toml:"fields"`
}

// Field returns the spec with the given name, or nil.
func (t *Template) Field(name string) *FieldSpec {
	for i := range t.Fields {
		if t.Fields[i].Name == name {
			return &t.Fields[i]
		}
	}
	return nil
}

// compile validates the definition and compiles every field pattern. A
// missing type tag defaults to estimated, a missing field type to string.
func (t *Template) compile() error {
	if t.Name == "" {
		return fmt.Errorf("template has no name")
	}
	if t.TypeTag == "" {
		t.TypeTag = TagEstimated
	}
	if t.TypeTag != TagActual && t.TypeTag != TagEstimated {
		return fmt.Errorf("template %s: type_tag must be %s or %s, got %q", t.Name, TagActual, TagEstimated, t.TypeTag)
	}
	if len(t.Fields) == 0 {
		return fmt.Errorf("template %s: no fields declared", t.Name)
	}

	seen := make(map[string]struct{}, len(t.Fields))
	for i := range t.Fields {
		f := &t.Fields[i]
		if f.Name == "" {
			return fmt.Errorf("template %s: field %d has no name", t.Name, i+1)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("template %s: duplicate field %s", t.Name, f.Name)
		}
		seen[f.Name] = struct{}{}

		if f.Type == "" {
			f.Type = TypeString
		}
		if _, ok := fieldTypes[f.Type]; !ok {
			return fmt.Errorf("template %s: field %s has unknown type %q", t.Name, f.Name, f.Type)
		}
		if f.Pattern == "" {
			return fmt.Errorf("template %s: field %s has no pattern", t.Name, f.Name)
		}
		re, err := regexp.Compile(f.Pattern)
		if err != nil {
			return fmt.Errorf("template %s: field %s pattern: %w", t.Name, f.Name, err)
		}
		f.re = re
	}
	return nil
}
