package template

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// LoadDir reads every *.toml file in dir as one template definition, in
// lexical filename order so registration order is stable. A definition
// without a name takes the file stem. A missing directory yields an empty
// set, not an error: a fresh install has no administrator templates yet.
func LoadDir(dir string) ([]Template, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read templates directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".toml") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var templates []Template
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", name, err)
		}
		var t Template
		if err := toml.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		if t.Name == "" {
			t.Name = strings.TrimSuffix(name, filepath.Ext(name))
		}
		templates = append(templates, t)
	}
	return templates, nil
}

// Load builds the registry for a run: the built-in template set plus any
// administrator definitions from dir. A directory template with a built-in's
// name replaces the built-in.
func Load(dir string) (*Registry, error) {
	loaded, err := LoadDir(dir)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]int, len(loaded))
	for i, t := range loaded {
		byName[t.Name] = i
	}

	var all []Template
	for _, t := range Builtins() {
		if i, ok := byName[t.Name]; ok {
			all = append(all, loaded[i])
			delete(byName, t.Name)
			continue
		}
		all = append(all, t)
	}
	for _, t := range loaded {
		if _, pending := byName[t.Name]; pending {
			all = append(all, t)
		}
	}
	return NewRegistry(all...)
}
