package library

import (
	"fmt"
	"sort"
	"strings"

	"github.com/opencode-ai/narrator/internal/expr"
	"github.com/opencode-ai/narrator/internal/models"
	"github.com/opencode-ai/narrator/internal/narrative"
)

// Issue is a template problem that does not stop the library from loading
// but changes what gets rendered or validated.
type Issue struct {
	TemplateID string `json:"template"`
	Field      string `json:"field"`
	Message    string `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.TemplateID, i.Field, i.Message)
}

// Lint inspects every template for constructs the engine cannot honour and
// for dangling references between templates.
func (l *Library) Lint() []Issue {
	var issues []Issue
	for _, tmpl := range l.templates {
		issues = append(issues, l.lintTemplate(tmpl)...)
	}
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].TemplateID != issues[j].TemplateID {
			return issues[i].TemplateID < issues[j].TemplateID
		}
		return issues[i].Field < issues[j].Field
	})
	return issues
}

func (l *Library) lintTemplate(tmpl *models.Template) []Issue {
	var issues []Issue
	add := func(field, format string, args ...any) {
		issues = append(issues, Issue{TemplateID: tmpl.ID, Field: field, Message: fmt.Sprintf(format, args...)})
	}

	for i, segment := range tmpl.Body.Segments {
		field := fmt.Sprintf("template[%d]", i)
		for _, block := range expr.FindBlocks(segment) {
			if !expr.Supported(block.Condition) {
				add(field, "conditional %q is outside the comparison grammar and always evaluates false", block.Condition)
			}
		}
		for _, construct := range narrative.Inspect(segment) {
			switch construct.Kind {
			case narrative.KindTernary:
				if !expr.Supported(construct.Condition) {
					add(field, "ternary condition %q is outside the comparison grammar and always evaluates false", strings.TrimSpace(construct.Condition))
				}
				for _, branch := range []string{construct.WhenTrue, construct.WhenFalse} {
					if quoted(strings.TrimSpace(branch)) {
						add(field, "ternary branch %s is emitted with its quotes", strings.TrimSpace(branch))
					}
				}
			case narrative.KindFunction:
				if !narrative.IsFunction(construct.Function) {
					add(field, "unknown function %q renders as empty text", construct.Function)
				}
			case narrative.KindPlaceholder:
				if construct.Key == "value" && tmpl.Type == models.TemplateTypeShared {
					continue
				}
				if _, ok := tmpl.Variables[construct.Key]; !ok {
					add(field, "placeholder {%s} does not name a variable and renders as empty text", construct.Key)
				}
			}
		}
	}

	keys := sortedKeys(tmpl.Variables)
	for _, key := range keys {
		if category, ok := tmpl.Variables[key].SharedCategory(); ok {
			if _, exists := l.byCategory[category]; !exists {
				add("variables."+key, "shared category %q is not provided by any shared template", category)
			}
		}
	}

	for i, allowed := range tmpl.AllowedActions {
		field := fmt.Sprintf("allowedActions[%d]", i)
		l.lintLink(add, field, allowed.ID, models.TemplateTypeAction)
		lintConditions(add, field, allowed.Conditions)
	}
	for i, next := range tmpl.NextActions {
		field := fmt.Sprintf("nextActions[%d]", i)
		l.lintLink(add, field, next.ID, models.TemplateTypeAction)
		lintConditions(add, field, next.Conditions)
	}
	for _, id := range tmpl.ValidForFindings {
		if id != "*" {
			l.lintLink(add, "validForFindings", id, models.TemplateTypeFinding)
		}
	}

	for i, option := range tmpl.Options {
		field := fmt.Sprintf("options[%d]", i)
		for _, key := range sortedKeys(option.References) {
			variable, ok := tmpl.Variables[key]
			if !ok {
				add(field, "reference %q is not a variable of %s", key, tmpl.ID)
				continue
			}
			category, ok := variable.SharedCategory()
			if !ok {
				continue
			}
			shared, ok := l.byCategory[category]
			if !ok {
				continue
			}
			if _, ok := shared.FindOption(option.References[key]); !ok {
				add(field, "reference %s=%v is not an option of %s", key, option.References[key], shared.ID)
			}
		}
	}

	return issues
}

func (l *Library) lintLink(add func(string, string, ...any), field, id string, want models.TemplateType) {
	target, ok := l.byID[id]
	if !ok {
		add(field, "references unknown template %q", id)
		return
	}
	if target.Type != want {
		add(field, "references %s template %q, expected %s", target.Type, id, want)
	}
}

func lintConditions(add func(string, string, ...any), field string, conditions []models.Condition) {
	for _, condition := range conditions {
		if _, err := condition.Evaluate(models.Values{}); err != nil {
			add(field, "%v", err)
		}
	}
}

func quoted(s string) bool {
	return len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0]
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
