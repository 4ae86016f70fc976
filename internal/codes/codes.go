// Package codes derives clinical code assignments from selected templates.
package codes

import (
	"fmt"
	"sort"

	"github.com/opencode-ai/narrator/internal/models"
	"github.com/opencode-ai/narrator/internal/narrative"
)

// Assignment is the code contribution of one template.
type Assignment struct {
	Primary   string   `json:"primary"`
	Modifiers []string `json:"modifiers"`
	// Source is the contributing template id.
	Source string `json:"source"`
}

// Compatibility reports duplicate primary codes across assignments.
type Compatibility struct {
	IsValid   bool     `json:"isValid"`
	Conflicts []string `json:"conflicts"`
}

// Summary is the flattened form handed to external systems.
type Summary struct {
	Primary   string   `json:"primary"`
	Modifiers []string `json:"modifiers"`
	Sources   []string `json:"sources"`
}

// Assign returns one assignment per template, in input order.
func Assign(templates []*models.Template) []Assignment {
	assignments := make([]Assignment, 0, len(templates))
	for _, tmpl := range templates {
		if tmpl == nil {
			continue
		}
		assignments = append(assignments, Assignment{
			Primary:   tmpl.Codes.Primary(),
			Modifiers: tmpl.Codes.Modifiers(),
			Source:    tmpl.ID,
		})
	}
	return assignments
}

// ValidateCompatibility flags every primary code already seen earlier in the
// list, naming the later template.
func ValidateCompatibility(assignments []Assignment) Compatibility {
	conflicts := []string{}
	seen := make(map[string]struct{}, len(assignments))
	for _, assignment := range assignments {
		if _, dup := seen[assignment.Primary]; dup {
			conflicts = append(conflicts, fmt.Sprintf("Duplicate primary code %s from template %s", assignment.Primary, assignment.Source))
		}
		seen[assignment.Primary] = struct{}{}
	}
	return Compatibility{IsValid: len(conflicts) == 0, Conflicts: conflicts}
}

// Format flattens assignments. Only the first assignment's primary code is
// kept; later primaries are dropped rather than demoted to modifiers.
func Format(assignments []Assignment) Summary {
	summary := Summary{Modifiers: []string{}, Sources: []string{}}
	if len(assignments) > 0 {
		summary.Primary = assignments[0].Primary
	}
	for _, assignment := range assignments {
		summary.Modifiers = append(summary.Modifiers, assignment.Modifiers...)
		summary.Sources = append(summary.Sources, assignment.Source)
	}
	return summary
}

// SelectedOptions returns the codes carried by shared options selected in
// values. Sources read "<template>.<field>:<option>". Fields are visited in
// name order and sequence elements in order.
func SelectedOptions(tmpl *models.Template, values models.Values, pool *narrative.SharedPool) []Assignment {
	if tmpl == nil {
		return nil
	}
	fields := make([]string, 0, len(tmpl.Variables))
	for field := range tmpl.Variables {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var assignments []Assignment
	for _, field := range fields {
		category, ok := tmpl.Variables[field].SharedCategory()
		if !ok {
			continue
		}
		shared, ok := pool.ByCategory(category)
		if !ok {
			continue
		}
		selected, isSequence := models.AsSequence(values[field])
		if !isSequence {
			selected = []any{values[field]}
		}
		for _, value := range selected {
			option, ok := shared.FindOption(value)
			if !ok || option.Codes == nil || len(option.Codes.Snomed) == 0 {
				continue
			}
			assignments = append(assignments, Assignment{
				Primary:   option.Codes.Primary(),
				Modifiers: option.Codes.Modifiers(),
				Source:    fmt.Sprintf("%s.%s:%s", tmpl.ID, field, option.ID),
			})
		}
	}
	return assignments
}
