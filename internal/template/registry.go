// Package template holds the embedded APD scaffolds: the section and field
// skeletons a new document of each type starts from.
package template

import (
	"embed"
	"fmt"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"apdvault/internal/domain"
	"apdvault/internal/domain/models/apd"
)

//go:embed scaffolds/*.yaml
var scaffoldFiles embed.FS

// builtinTypes are the APD types shipped with the server.
var builtinTypes = []string{"hitech", "mmis"}

// Registry manages document templates loaded from embedded YAML files.
type Registry struct {
	templates map[string]*DocumentTemplate
	mu        sync.RWMutex
}

// NewRegistry creates a registry and loads the embedded scaffolds.
func NewRegistry() (*Registry, error) {
	r := &Registry{templates: make(map[string]*DocumentTemplate)}

	for _, docType := range builtinTypes {
		if err := r.loadTemplateFile(docType); err != nil {
			return nil, fmt.Errorf("failed to load %s template: %w", docType, err)
		}
	}

	return r, nil
}

func (r *Registry) loadTemplateFile(docType string) error {
	filename := fmt.Sprintf("scaffolds/%s.yaml", docType)
	data, err := scaffoldFiles.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}

	var tmpl DocumentTemplate
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", filename, err)
	}
	tmpl.Type = docType

	r.mu.Lock()
	r.templates[docType] = &tmpl
	r.mu.Unlock()

	return nil
}

// Get returns the template for a document type.
func (r *Registry) Get(docType string) (*DocumentTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tmpl, ok := r.templates[docType]
	if !ok {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("unknown document type: %s", docType)}
	}
	return tmpl, nil
}

// List returns all templates ordered by type.
func (r *Registry) List() []DocumentTemplate {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]DocumentTemplate, 0, len(r.templates))
	for _, tmpl := range r.templates {
		out = append(out, *tmpl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// Types returns the known document type identifiers.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.templates))
	for t := range r.templates {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Scaffold materializes the template's section tree for a new document.
func (r *Registry) Scaffold(docType string) (map[string]apd.Section, error) {
	tmpl, err := r.Get(docType)
	if err != nil {
		return nil, err
	}
	return buildSections(tmpl.Sections, time.Now()), nil
}

func buildSections(templates []SectionTemplate, now time.Time) map[string]apd.Section {
	if len(templates) == 0 {
		return map[string]apd.Section{}
	}

	sections := make(map[string]apd.Section, len(templates))
	for _, st := range templates {
		content := make(map[string]apd.Value, len(st.Fields))
		for _, ft := range st.Fields {
			content[ft.Name] = defaultValue(ft)
		}
		sections[st.ID] = apd.Section{
			SectionID:    st.ID,
			Title:        st.Title,
			Content:      content,
			IsComplete:   false,
			LastModified: now,
			Subsections:  buildSubsections(st.Subsections, now),
		}
	}
	return sections
}

// buildSubsections returns nil for empty templates so scaffolded sections
// omit the subsections key entirely.
func buildSubsections(templates []SectionTemplate, now time.Time) map[string]apd.Section {
	if len(templates) == 0 {
		return nil
	}
	return buildSections(templates, now)
}

func defaultValue(ft FieldTemplate) apd.Value {
	switch ft.Kind {
	case "number":
		return apd.Number(0)
	case "bool":
		return apd.Bool(false)
	case "list", "table":
		return apd.List()
	default:
		return apd.String(ft.Default)
	}
}
