// Package models defines the template, variable and shared vocabulary schema
// used by the narrative engine.
package models

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// TemplateType discriminates the template variants.
type TemplateType string

const (
	TemplateTypeFinding TemplateType = "finding"
	TemplateTypeAction  TemplateType = "action"
	TemplateTypeShared  TemplateType = "shared"
)

// Codes holds the clinical codes attached to a template or option.
type Codes struct {
	// Snomed lists SNOMED CT codes; the first entry is the primary code.
	Snomed []string `yaml:"snomed" json:"snomed"`

	// Custom maps local coding systems to codes.
	Custom map[string]string `yaml:"custom,omitempty" json:"custom,omitempty"`
}

// Primary returns the primary SNOMED code, or "" when none is listed.
func (c Codes) Primary() string {
	if len(c.Snomed) == 0 {
		return ""
	}
	return c.Snomed[0]
}

// Modifiers returns the SNOMED codes after the primary one.
func (c Codes) Modifiers() []string {
	if len(c.Snomed) < 2 {
		return []string{}
	}
	out := make([]string, len(c.Snomed)-1)
	copy(out, c.Snomed[1:])
	return out
}

// Body is a template body written either as a single string or as a list of
// independently processed segments.
type Body struct {
	Segments []string
	// Multi is true when the body was written as a list.
	Multi bool
}

// NewBody builds a single-string body.
func NewBody(text string) Body {
	return Body{Segments: []string{text}}
}

// NewSegments builds a multi-segment body.
func NewSegments(segments ...string) Body {
	return Body{Segments: segments, Multi: true}
}

// IsZero reports whether the body carries no text at all.
func (b Body) IsZero() bool {
	return len(b.Segments) == 0
}

// Segment returns the segment at index i, or "" when out of range.
func (b Body) Segment(i int) string {
	if i < 0 || i >= len(b.Segments) {
		return ""
	}
	return b.Segments[i]
}

// UnmarshalYAML accepts a scalar string or a sequence of strings.
func (b *Body) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var text string
		if err := node.Decode(&text); err != nil {
			return err
		}
		*b = NewBody(text)
		return nil
	case yaml.SequenceNode:
		var segments []string
		if err := node.Decode(&segments); err != nil {
			return err
		}
		*b = NewSegments(segments...)
		return nil
	default:
		return fmt.Errorf("template body must be a string or a list of strings")
	}
}

// MarshalYAML writes the body back in the form it was read.
func (b Body) MarshalYAML() (any, error) {
	if !b.Multi && len(b.Segments) == 1 {
		return b.Segments[0], nil
	}
	return b.Segments, nil
}

// UnmarshalJSON accepts a string or an array of strings.
func (b *Body) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*b = NewBody(text)
		return nil
	}
	var segments []string
	if err := json.Unmarshal(data, &segments); err != nil {
		return fmt.Errorf("template body must be a string or an array of strings")
	}
	*b = NewSegments(segments...)
	return nil
}

// MarshalJSON writes the body back in the form it was read.
func (b Body) MarshalJSON() ([]byte, error) {
	if !b.Multi && len(b.Segments) == 1 {
		return json.Marshal(b.Segments[0])
	}
	if b.Segments == nil {
		return []byte("null"), nil
	}
	return json.Marshal(b.Segments)
}

// AllowedAction links a finding to an action it permits.
type AllowedAction struct {
	ID         string         `yaml:"id" json:"id"`
	Conditions []Condition    `yaml:"conditions,omitempty" json:"conditions,omitempty"`
	Required   bool           `yaml:"required,omitempty" json:"required,omitempty"`
	Default    map[string]any `yaml:"default,omitempty" json:"default,omitempty"`
}

// NextAction links an action to a follow-up action.
type NextAction struct {
	ID         string      `yaml:"id" json:"id"`
	Conditions []Condition `yaml:"conditions,omitempty" json:"conditions,omitempty"`
}

// ValidFor scopes a shared option to procedures, findings and actions.
type ValidFor struct {
	Procedures []string `yaml:"procedures,omitempty" json:"procedures,omitempty"`
	Findings   []string `yaml:"findings,omitempty" json:"findings,omitempty"`
	Actions    []string `yaml:"actions,omitempty" json:"actions,omitempty"`
}

// Option is a single entry of a shared vocabulary.
type Option struct {
	// ID is the stable option identifier.
	ID string `yaml:"id" json:"id"`

	// Name is the human-readable label; values may match it instead of ID.
	Name string `yaml:"name" json:"name"`

	// Hotkey is the editor shortcut for the option.
	Hotkey string `yaml:"hotkey" json:"hotkey"`

	// Value is the rendered text or number.
	Value any `yaml:"value" json:"value"`

	// ValidFor restricts where the option is offered.
	ValidFor ValidFor `yaml:"validFor" json:"validFor"`

	// Codes are option-specific clinical codes.
	Codes *Codes `yaml:"codes,omitempty" json:"codes,omitempty"`

	// References supplies values for the shared template's own variables.
	References map[string]any `yaml:"references,omitempty" json:"references,omitempty"`
}

// Matches reports whether value selects this option by id or name.
func (o Option) Matches(value any) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	return o.ID == s || o.Name == s
}

// Template is a finding, action or shared template. Variant-specific fields
// are left empty for the other variants.
type Template struct {
	ID          string       `yaml:"id" json:"id"`
	Type        TemplateType `yaml:"type" json:"type"`
	Name        string       `yaml:"name" json:"name"`
	Description string       `yaml:"description,omitempty" json:"description,omitempty"`
	Version     string       `yaml:"version" json:"version"`
	Codes       Codes        `yaml:"codes" json:"codes"`

	Variables map[string]Variable `yaml:"variables,omitempty" json:"variables,omitempty"`
	Body      Body                `yaml:"template,omitempty" json:"template,omitempty"`

	// Finding fields.
	AllowedActions []AllowedAction `yaml:"allowedActions,omitempty" json:"allowedActions,omitempty"`

	// Action fields.
	ValidForFindings []string     `yaml:"validForFindings,omitempty" json:"validForFindings,omitempty"`
	Standalone       bool         `yaml:"standalone,omitempty" json:"standalone,omitempty"`
	NextActions      []NextAction `yaml:"nextActions,omitempty" json:"nextActions,omitempty"`
	AutoSuggest      bool         `yaml:"autoSuggest,omitempty" json:"autoSuggest,omitempty"`

	// Shared fields.
	Category string   `yaml:"category,omitempty" json:"category,omitempty"`
	Options  []Option `yaml:"options,omitempty" json:"options,omitempty"`

	Source string `yaml:"-" json:"source,omitempty"` // file path or "builtin"
}

// FindOption returns the option selected by value (id or name).
func (t *Template) FindOption(value any) (*Option, bool) {
	if t == nil {
		return nil, false
	}
	for i := range t.Options {
		if t.Options[i].Matches(value) {
			return &t.Options[i], true
		}
	}
	return nil, false
}

// Defaults returns the template's variable defaults as a fresh environment.
func (t *Template) Defaults() Values {
	values := make(Values, len(t.Variables))
	for key, variable := range t.Variables {
		values[key] = variable.Default
	}
	return values
}

// ValidForFinding reports whether an action applies to the given finding.
func (t *Template) ValidForFinding(findingID string) bool {
	for _, id := range t.ValidForFindings {
		if id == "*" || id == findingID {
			return true
		}
	}
	return false
}

// MajorVersion returns the major component of the template version.
func (t *Template) MajorVersion() string {
	major, _, _ := strings.Cut(t.Version, ".")
	return major
}

var versionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// Validate checks the structural shape of the template.
func (t *Template) Validate() error {
	validation := &ValidationErrors{}
	if strings.TrimSpace(t.ID) == "" {
		validation.AddMessage("id", "template id is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		validation.AddMessage("name", "template name is required")
	}
	if !versionPattern.MatchString(t.Version) {
		validation.AddMessage("version", fmt.Sprintf("version %q must be major.minor.patch", t.Version))
	}

	switch t.Type {
	case TemplateTypeFinding, TemplateTypeAction:
		if len(t.Codes.Snomed) == 0 {
			validation.AddMessage("codes.snomed", "at least one snomed code is required")
		}
		if t.Body.IsZero() {
			validation.AddMessage("template", "template body is required")
		}
	case TemplateTypeShared:
		if strings.TrimSpace(t.Category) == "" {
			validation.AddMessage("category", "shared template category is required")
		}
		seen := make(map[string]struct{}, len(t.Options))
		for i, option := range t.Options {
			if strings.TrimSpace(option.ID) == "" {
				validation.Add(&TemplateValidationError{Field: "options", Index: i, Message: "option id is required"})
				continue
			}
			if _, exists := seen[option.ID]; exists {
				validation.Add(&TemplateValidationError{Field: "options", Index: i, Message: fmt.Sprintf("duplicate option id %q", option.ID)})
			}
			seen[option.ID] = struct{}{}
		}
	default:
		validation.AddMessage("type", fmt.Sprintf("unknown template type %q", t.Type))
	}

	for key, variable := range t.Variables {
		if !variable.Type.Valid() {
			validation.AddMessage("variables."+key, fmt.Sprintf("unknown variable type %q", variable.Type))
		}
		if variable.UseShared != nil && strings.TrimSpace(variable.UseShared.Type) == "" {
			validation.AddMessage("variables."+key, "useShared.type is required")
		}
	}

	return validation.Err()
}
