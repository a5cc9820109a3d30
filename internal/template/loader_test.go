package template_test

import (
	"os"
	"path/filepath"
	"testing"

	"dmhmr/internal/template"
)

const customTemplateTOML = `
name = "betashares"
type_tag = "EST"
priority = 15
rules = ["tax_rate_default"]

[[fields]]
name = "asset_id"
pattern = '(?i)asx\s*code\s*:?\s*([A-Z0-9]{3,9})'
type = "string"
required = true

[[fields]]
name = "ex_date"
pattern = '(?i)ex\s*date\s*:?\s*(\d{1,2}/\d{1,2}/\d{4})'
type = "date"
required = true
`

func TestLoadDirParsesTOML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "betashares.toml"), []byte(customTemplateTOML), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}

	templates, err := template.LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	if len(templates) != 1 {
		t.Fatalf("expected 1 template, got %d", len(templates))
	}
	tpl := templates[0]
	if tpl.Name != "betashares" || tpl.Priority != 15 {
		t.Fatalf("unexpected template: %+v", tpl)
	}
	if len(tpl.Fields) != 2 || !tpl.Fields[0].Required {
		t.Fatalf("unexpected fields: %+v", tpl.Fields)
	}
}

func TestLoadDirMissingDirectory(t *testing.T) {
	templates, err := template.LoadDir(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	if templates != nil {
		t.Fatalf("expected no templates, got %d", len(templates))
	}
}

func TestLoadDirNameDefaultsToFileStem(t *testing.T) {
	dir := t.TempDir()
	unnamed := `
[[fields]]
name = "asset_id"
pattern = '(?i)code\s*([A-Z]{3})'
required = true
`
	if err := os.WriteFile(filepath.Join(dir, "custom_fund.toml"), []byte(unnamed), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}

	templates, err := template.LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	if len(templates) != 1 || templates[0].Name != "custom_fund" {
		t.Fatalf("expected file-stem name, got %+v", templates)
	}
}

func TestLoadMergesBuiltinsAndOverrides(t *testing.T) {
	dir := t.TempDir()
	override := `
name = "vanguard_au"
type_tag = "ACT"

[[fields]]
name = "asset_id"
pattern = '(?i)apir\s*code\s*([A-Z0-9]{9})'
required = true
`
	if err := os.WriteFile(filepath.Join(dir, "vanguard_au.toml"), []byte(override), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "betashares.toml"), []byte(customTemplateTOML), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}

	r, err := template.Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	vanguard, err := r.Get("vanguard_au")
	if err != nil {
		t.Fatalf("Get vanguard_au: %v", err)
	}
	if vanguard.TypeTag != template.TagActual || len(vanguard.Fields) != 1 {
		t.Fatalf("override not applied: %+v", vanguard)
	}

	if _, err := r.Get("betashares"); err != nil {
		t.Fatalf("Get betashares: %v", err)
	}
	if _, err := r.Get("asx_mit_notice"); err != nil {
		t.Fatalf("builtin dropped: %v", err)
	}
	if len(r.List()) != 7 {
		t.Fatalf("expected 7 templates, got %d", len(r.List()))
	}
}
