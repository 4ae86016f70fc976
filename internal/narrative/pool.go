package narrative

import (
	"sort"

	"github.com/opencode-ai/narrator/internal/models"
)

// SharedPool indexes shared vocabulary templates by category and by id.
// A nil pool is valid and empty.
type SharedPool struct {
	byCategory map[string]*models.Template
	byID       map[string]*models.Template
}

// NewSharedPool builds a pool from shared templates. Templates of other types
// are ignored; the first template registered for a category wins.
func NewSharedPool(templates ...*models.Template) *SharedPool {
	pool := &SharedPool{
		byCategory: make(map[string]*models.Template),
		byID:       make(map[string]*models.Template),
	}
	for _, tmpl := range templates {
		if tmpl == nil || tmpl.Type != models.TemplateTypeShared {
			continue
		}
		if _, exists := pool.byCategory[tmpl.Category]; !exists {
			pool.byCategory[tmpl.Category] = tmpl
		}
		if _, exists := pool.byID[tmpl.ID]; !exists {
			pool.byID[tmpl.ID] = tmpl
		}
	}
	return pool
}

// ByCategory returns the shared template serving a useShared category.
func (p *SharedPool) ByCategory(category string) (*models.Template, bool) {
	if p == nil {
		return nil, false
	}
	tmpl, ok := p.byCategory[category]
	return tmpl, ok
}

// ByID returns the shared template with the given id.
func (p *SharedPool) ByID(id string) (*models.Template, bool) {
	if p == nil {
		return nil, false
	}
	tmpl, ok := p.byID[id]
	return tmpl, ok
}

// Categories returns the pooled categories in sorted order.
func (p *SharedPool) Categories() []string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, len(p.byCategory))
	for category := range p.byCategory {
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of pooled categories.
func (p *SharedPool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.byCategory)
}
