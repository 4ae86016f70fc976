package models

// VariableType is the declared type of a template field.
type VariableType string

const (
	VariableTypeNumber  VariableType = "number"
	VariableTypeText    VariableType = "text"
	VariableTypeEnum    VariableType = "enum"
	VariableTypeBoolean VariableType = "boolean"
	VariableTypeMixed   VariableType = "mixed"
)

// Valid reports whether the type is one of the known variable types.
func (t VariableType) Valid() bool {
	switch t {
	case VariableTypeNumber, VariableTypeText, VariableTypeEnum, VariableTypeBoolean, VariableTypeMixed:
		return true
	default:
		return false
	}
}

// Variable describes one field of a template.
type Variable struct {
	// Type is the declared field type.
	Type VariableType `yaml:"type" json:"type"`

	// Required marks fields that must carry a value.
	Required bool `yaml:"required" json:"required"`

	// Default is the value used when building shared template environments.
	Default any `yaml:"default,omitempty" json:"default,omitempty"`

	// Options lists the literal choices for enum fields without useShared.
	Options []string `yaml:"options,omitempty" json:"options,omitempty"`

	// Description documents the field for editors.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// AllowMultiple permits an ordered sequence of values.
	AllowMultiple bool `yaml:"allow_multiple,omitempty" json:"allow_multiple,omitempty"`

	// Validation holds optional numeric bounds and a text pattern.
	Validation *Validation `yaml:"validation,omitempty" json:"validation,omitempty"`

	// UseShared draws the field's vocabulary from a shared category.
	UseShared *UseShared `yaml:"useShared,omitempty" json:"useShared,omitempty"`
}

// SharedCategory returns the shared category the field draws from, if any.
func (v Variable) SharedCategory() (string, bool) {
	if v.UseShared == nil || v.UseShared.Type == "" {
		return "", false
	}
	return v.UseShared.Type, true
}

// HasOption reports whether value is one of the literal options.
func (v Variable) HasOption(value any) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	for _, option := range v.Options {
		if option == s {
			return true
		}
	}
	return false
}

// Validation holds field constraints.
type Validation struct {
	Min     *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max     *float64 `yaml:"max,omitempty" json:"max,omitempty"`
	Pattern string   `yaml:"pattern,omitempty" json:"pattern,omitempty"`
}

// UseShared binds a field to a shared vocabulary category.
type UseShared struct {
	// Type is the shared category name, not a template id.
	Type string `yaml:"type" json:"type"`

	// AllowDirect lets mixed fields take a direct numeric value.
	AllowDirect bool `yaml:"allowDirect,omitempty" json:"allowDirect,omitempty"`

	// Variables overlay the shared template's variable defaults.
	Variables map[string]any `yaml:"variables,omitempty" json:"variables,omitempty"`
}
