package models

import (
	"fmt"
	"strings"
)

// TemplateValidationError describes a structural problem in a template.
type TemplateValidationError struct {
	Field   string
	Index   int
	Message string
}

func (e *TemplateValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("template %s[%d]: %s", e.Field, e.Index, e.Message)
	}
	return fmt.Sprintf("template %s: %s", e.Field, e.Message)
}

// ValidationErrors collects template validation failures.
type ValidationErrors struct {
	Errors []*TemplateValidationError
}

// Add appends a validation error.
func (v *ValidationErrors) Add(err *TemplateValidationError) {
	v.Errors = append(v.Errors, err)
}

// AddMessage appends a validation error for a field without an index.
func (v *ValidationErrors) AddMessage(field, message string) {
	v.Add(&TemplateValidationError{Field: field, Index: -1, Message: message})
}

// Err returns nil when nothing was collected.
func (v *ValidationErrors) Err() error {
	if len(v.Errors) == 0 {
		return nil
	}
	return v
}

func (v *ValidationErrors) Error() string {
	parts := make([]string, 0, len(v.Errors))
	for _, err := range v.Errors {
		parts = append(parts, err.Error())
	}
	return strings.Join(parts, "; ")
}

// Unwrap exposes the individual errors to errors.As.
func (v *ValidationErrors) Unwrap() []error {
	out := make([]error, 0, len(v.Errors))
	for _, err := range v.Errors {
		out = append(out, err)
	}
	return out
}
