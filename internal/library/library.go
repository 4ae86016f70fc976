// Package library loads endoscopy report templates and indexes them for
// lookup by id, type, code, keyword and shared category.
package library

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"unicode"

	"github.com/opencode-ai/narrator/internal/models"
	"github.com/opencode-ai/narrator/internal/narrative"
	"github.com/rs/zerolog"
)

var (
	// ErrTemplateNotFound is returned when no template has the requested id.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrDuplicateID is returned when two templates share an id.
	ErrDuplicateID = errors.New("duplicate template id")
	// ErrDuplicateCategory is returned when two shared templates serve the
	// same category.
	ErrDuplicateCategory = errors.New("duplicate shared category")
)

// RelationKind classifies a link between templates.
type RelationKind string

const (
	// RelationAllows links a template to an action it permits.
	RelationAllows RelationKind = "allows"
	// RelationSuggests links an action to a follow-up offered automatically.
	RelationSuggests RelationKind = "suggests"
)

// Relationship is a directed link from one template to another.
type Relationship struct {
	From       string             `json:"from"`
	To         string             `json:"to"`
	Kind       RelationKind       `json:"kind"`
	Conditions []models.Condition `json:"conditions,omitempty"`
	Required   bool               `json:"required,omitempty"`
}

// Library is a read-only, indexed set of templates. It is safe for
// concurrent use once built.
type Library struct {
	templates     []*models.Template
	byID          map[string]*models.Template
	byType        map[models.TemplateType][]*models.Template
	byCode        map[string][]*models.Template
	byKeyword     map[string][]*models.Template
	byCategory    map[string]*models.Template
	relationships map[string][]Relationship
	pool          *narrative.SharedPool
}

// New indexes templates. Duplicate ids and duplicate shared categories are
// errors.
func New(templates []*models.Template) (*Library, error) {
	lib := &Library{
		templates:     make([]*models.Template, 0, len(templates)),
		byID:          make(map[string]*models.Template),
		byType:        make(map[models.TemplateType][]*models.Template),
		byCode:        make(map[string][]*models.Template),
		byKeyword:     make(map[string][]*models.Template),
		byCategory:    make(map[string]*models.Template),
		relationships: make(map[string][]Relationship),
	}

	for _, tmpl := range templates {
		if tmpl == nil {
			continue
		}
		if existing, ok := lib.byID[tmpl.ID]; ok {
			return nil, fmt.Errorf("%w: %s (%s, %s)", ErrDuplicateID, tmpl.ID, sourceOf(existing), sourceOf(tmpl))
		}
		if tmpl.Type == models.TemplateTypeShared {
			if existing, ok := lib.byCategory[tmpl.Category]; ok {
				return nil, fmt.Errorf("%w: %s (%s, %s)", ErrDuplicateCategory, tmpl.Category, existing.ID, tmpl.ID)
			}
			lib.byCategory[tmpl.Category] = tmpl
		}

		lib.templates = append(lib.templates, tmpl)
		lib.byID[tmpl.ID] = tmpl
		lib.byType[tmpl.Type] = append(lib.byType[tmpl.Type], tmpl)
		for _, code := range tmpl.Codes.Snomed {
			lib.byCode[code] = appendUnique(lib.byCode[code], tmpl)
		}
		for _, word := range keywords(tmpl) {
			lib.byKeyword[word] = appendUnique(lib.byKeyword[word], tmpl)
		}
		lib.indexRelationships(tmpl)
	}

	lib.pool = narrative.NewSharedPool(lib.byType[models.TemplateTypeShared]...)
	return lib, nil
}

func (l *Library) indexRelationships(tmpl *models.Template) {
	for _, allowed := range tmpl.AllowedActions {
		l.relationships[tmpl.ID] = append(l.relationships[tmpl.ID], Relationship{
			From:       tmpl.ID,
			To:         allowed.ID,
			Kind:       RelationAllows,
			Conditions: allowed.Conditions,
			Required:   allowed.Required,
		})
	}
	kind := RelationAllows
	if tmpl.AutoSuggest {
		kind = RelationSuggests
	}
	for _, next := range tmpl.NextActions {
		l.relationships[tmpl.ID] = append(l.relationships[tmpl.ID], Relationship{
			From:       tmpl.ID,
			To:         next.ID,
			Kind:       kind,
			Conditions: next.Conditions,
		})
	}
}

// Get returns the template with the given id.
func (l *Library) Get(id string) (*models.Template, error) {
	tmpl, ok := l.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	return tmpl, nil
}

// All returns every template in load order.
func (l *Library) All() []*models.Template {
	return append([]*models.Template(nil), l.templates...)
}

// Len returns the number of templates.
func (l *Library) Len() int {
	return len(l.templates)
}

// ListByType returns templates of one type in load order.
func (l *Library) ListByType(templateType models.TemplateType) []*models.Template {
	return append([]*models.Template(nil), l.byType[templateType]...)
}

// ListByCategory returns the shared templates serving category.
func (l *Library) ListByCategory(category string) []*models.Template {
	if tmpl, ok := l.byCategory[category]; ok {
		return []*models.Template{tmpl}
	}
	return []*models.Template{}
}

// Categories returns the shared categories in sorted order.
func (l *Library) Categories() []string {
	return l.pool.Categories()
}

// ByCode returns templates listing a SNOMED code.
func (l *Library) ByCode(code string) []*models.Template {
	return append([]*models.Template(nil), l.byCode[code]...)
}

// ByKeyword returns templates whose id, name or description contains word.
func (l *Library) ByKeyword(word string) []*models.Template {
	return append([]*models.Template(nil), l.byKeyword[strings.ToLower(strings.TrimSpace(word))]...)
}

// Relationships returns the outgoing links of a template.
func (l *Library) Relationships(id string) []Relationship {
	return append([]Relationship(nil), l.relationships[id]...)
}

// SharedPool returns the shared vocabulary pool for the engine.
func (l *Library) SharedPool() *narrative.SharedPool {
	return l.pool
}

// LogSummary logs what was loaded at info level.
func (l *Library) LogSummary(logger zerolog.Logger) {
	sources := make(map[string]int)
	for _, tmpl := range l.templates {
		source := tmpl.Source
		if source != BuiltinSource {
			source = "file"
		}
		sources[source]++
	}
	logger.Info().
		Int("templates", len(l.templates)).
		Int("findings", len(l.byType[models.TemplateTypeFinding])).
		Int("actions", len(l.byType[models.TemplateTypeAction])).
		Int("shared", len(l.byType[models.TemplateTypeShared])).
		Strs("categories", l.Categories()).
		Interface("sources", sources).
		Msg("template library loaded")
}

func keywords(tmpl *models.Template) []string {
	text := strings.ToLower(tmpl.ID + " " + tmpl.Name + " " + tmpl.Description)
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	sort.Strings(words)
	return slices.Compact(words)
}

func appendUnique(list []*models.Template, tmpl *models.Template) []*models.Template {
	for _, existing := range list {
		if existing == tmpl {
			return list
		}
	}
	return append(list, tmpl)
}

func sourceOf(tmpl *models.Template) string {
	if tmpl.Source == "" {
		return "memory"
	}
	return tmpl.Source
}
