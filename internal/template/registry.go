package template

import (
	"errors"
	"fmt"
	"strings"

	"dmhmr/internal/document"
)

// ErrTemplateNotFound indicates a lookup by name found no registered template.
var ErrTemplateNotFound = errors.New("template not found")

// ErrNoTemplateMatch indicates no registered template matched any field of a
// document.
var ErrNoTemplateMatch = errors.New("no template matches document")

// Summary is the listing view of a registered template.
type Summary struct {
	Name       string
	TypeTag    string
	Priority   int
	FieldCount int
	Rules      []string
}

// Registry holds the compiled template set for an extraction run. It is
// read-only after construction and safe for concurrent use.
type Registry struct {
	order  []*Template
	byName map[string]*Template
}

// NewRegistry compiles and registers the given templates in order.
func NewRegistry(templates ...Template) (*Registry, error) {
	r := &Registry{byName: make(map[string]*Template, len(templates))}
	for _, t := range templates {
		if err := r.register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) register(t Template) error {
	if err := t.compile(); err != nil {
		return err
	}
	if _, dup := r.byName[t.Name]; dup {
		return fmt.Errorf("template %s registered twice", t.Name)
	}
	reg := &t
	r.order = append(r.order, reg)
	r.byName[t.Name] = reg
	return nil
}

// Get returns the template with the given name.
func (r *Registry) Get(name string) (*Template, error) {
	t, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	return t, nil
}

// List returns summaries of all registered templates in registration order.
func (r *Registry) List() []Summary {
	out := make([]Summary, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, Summary{
			Name:       t.Name,
			TypeTag:    t.TypeTag,
			Priority:   t.Priority,
			FieldCount: len(t.Fields),
			Rules:      append([]string(nil), t.Rules...),
		})
	}
	return out
}

// Match scores every registered template against the document and returns the
// best fit. The score is the number of fields whose pattern matches at least
// one document window; ties break on higher priority, then registration
// order. Returns ErrNoTemplateMatch when no template matches a single field.
func (r *Registry) Match(doc *document.Document) (*Template, error) {
	windows := doc.Windows()

	var best *Template
	bestScore := 0
	for _, t := range r.order {
		score := 0
		for i := range t.Fields {
			f := &t.Fields[i]
			for _, w := range windows {
				if _, ok := f.Match(w.Text); ok {
					score++
					break
				}
			}
		}
		if score == 0 {
			continue
		}
		if best == nil || score > bestScore || (score == bestScore && t.Priority > best.Priority) {
			best = t
			bestScore = score
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoTemplateMatch, doc.Source)
	}
	return best, nil
}

// Filename keywords mapped to template names, checked in order. First hit
// wins, so the more specific layouts come first.
var fileSuggestions = []struct {
	keywords []string
	template string
}{
	{[]string{"hi-trust", "hitrust", "_ur"}, "hi_trust_ur"},
	{[]string{"_nz", "nzx", "nzd"}, "vanguard_nz"},
	{[]string{"vanguard", "vgd", "vgs", "vas"}, "vanguard_au"},
	{[]string{"perpetual", "ppt"}, "perpetual"},
	{[]string{"dividend", "div"}, "asx_dividend"},
	{[]string{"mit", "notice", "distribution"}, "asx_mit_notice"},
}

// SuggestForFile guesses a template name from keywords in the file name.
// Returns the empty string when nothing matches or the suggested template is
// not registered.
func (r *Registry) SuggestForFile(filename string) string {
	lower := strings.ToLower(filename)
	for _, s := range fileSuggestions {
		for _, kw := range s.keywords {
			if strings.Contains(lower, kw) {
				if _, ok := r.byName[s.template]; ok {
					return s.template
				}
			}
		}
	}
	return ""
}
