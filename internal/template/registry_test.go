package template_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"dmhmr/internal/document"
	"dmhmr/internal/template"
)

func builtinsRegistry(t *testing.T) *template.Registry {
	t.Helper()
	r, err := template.NewRegistry(template.Builtins()...)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	return r
}

func csvDocument(t *testing.T, content string) *document.Document {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write document: %v", err)
	}
	doc, err := document.Normalize(path)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	return doc
}

func TestGetKnownTemplate(t *testing.T) {
	r := builtinsRegistry(t)

	tpl, err := r.Get("vanguard_au")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if tpl.TypeTag != template.TagEstimated {
		t.Fatalf("unexpected type tag: %s", tpl.TypeTag)
	}
	if tpl.Field("DOM_INC") == nil {
		t.Fatal("expected DOM_INC field")
	}
}

func TestGetUnknownTemplate(t *testing.T) {
	r := builtinsRegistry(t)

	_, err := r.Get("nonexistent")
	if !errors.Is(err, template.ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestListPreservesRegistrationOrder(t *testing.T) {
	r := builtinsRegistry(t)

	summaries := r.List()
	if len(summaries) != 6 {
		t.Fatalf("expected 6 builtins, got %d", len(summaries))
	}
	if summaries[0].Name != "vanguard_au" {
		t.Fatalf("unexpected first template: %s", summaries[0].Name)
	}
	if summaries[4].Name != "hi_trust_ur" || summaries[4].TypeTag != template.TagActual {
		t.Fatalf("unexpected last summary: %+v", summaries[4])
	}
}

func TestMatchPicksHighestScore(t *testing.T) {
	r := builtinsRegistry(t)

	doc := csvDocument(t, ""+
		"ASX Code,VAS\n"+
		"Ex Date,15/01/2025\n"+
		"Pay Date,31/01/2025\n"+
		"Domestic Income,0.02\n"+
		"Foreign Income,0.01\n"+
		"Domestic Dividends,0.005\n")

	tpl, err := r.Match(doc)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if tpl.Name != "vanguard_au" {
		t.Fatalf("expected vanguard_au, got %s", tpl.Name)
	}
}

func TestMatchBreaksTiesByPriority(t *testing.T) {
	a := template.Template{
		Name:     "low",
		Priority: 1,
		Fields:   []template.FieldSpec{{Name: "f", Pattern: `(?i)ex date\s*(\S+)`, Required: true}},
	}
	b := template.Template{
		Name:     "high",
		Priority: 2,
		Fields:   []template.FieldSpec{{Name: "f", Pattern: `(?i)ex date\s*(\S+)`, Required: true}},
	}
	r, err := template.NewRegistry(a, b)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	doc := csvDocument(t, "Ex Date,15/01/2025\n")
	tpl, err := r.Match(doc)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if tpl.Name != "high" {
		t.Fatalf("expected high-priority template, got %s", tpl.Name)
	}
}

func TestMatchNoTemplate(t *testing.T) {
	r := builtinsRegistry(t)

	doc := csvDocument(t, "completely,unrelated,content\n")
	_, err := r.Match(doc)
	if !errors.Is(err, template.ErrNoTemplateMatch) {
		t.Fatalf("expected ErrNoTemplateMatch, got %v", err)
	}
}

func TestSuggestForFile(t *testing.T) {
	r := builtinsRegistry(t)

	cases := []struct {
		filename string
		want     string
	}{
		{"VAS_distribution_jan.pdf", "vanguard_au"},
		{"vanguard_q2.xlsx", "vanguard_au"},
		{"vanguard_nz_q2.xlsx", "vanguard_nz"},
		{"mit_notice_2025.pdf", "asx_mit_notice"},
		{"abc_dividend.csv", "asx_dividend"},
		{"perpetual_update.pdf", "perpetual"},
		{"hi-trust_jul.xlsx", "hi_trust_ur"},
		{"random_file.pdf", ""},
	}
	for _, tc := range cases {
		if got := r.SuggestForFile(tc.filename); got != tc.want {
			t.Errorf("SuggestForFile(%q) = %q, want %q", tc.filename, got, tc.want)
		}
	}
}

func TestDuplicateRegistrationRejected(t *testing.T) {
	tpl := template.Builtins()[0]
	_, err := template.NewRegistry(tpl, tpl)
	if err == nil {
		t.Fatal("expected duplicate registration error")
	}
}

func TestInvalidPatternRejected(t *testing.T) {
	bad := template.Template{
		Name:   "broken",
		Fields: []template.FieldSpec{{Name: "f", Pattern: `([`}},
	}
	_, err := template.NewRegistry(bad)
	if err == nil {
		t.Fatal("expected pattern compile error")
	}
}
