package cli

import (
	"errors"
	"strings"
)

// PreflightError is a user-facing error with a remedy.
type PreflightError struct {
	Message  string
	Hint     string
	NextStep string
	Err      error
}

func (e *PreflightError) Error() string {
	return e.Message
}

func (e *PreflightError) Unwrap() error {
	return e.Err
}

// FormatError renders err for the terminal, including any hint.
func FormatError(err error) string {
	if err == nil {
		return ""
	}
	var preflight *PreflightError
	if !errors.As(err, &preflight) {
		return "Error: " + err.Error()
	}

	var b strings.Builder
	b.WriteString("Error: ")
	b.WriteString(preflight.Message)
	if preflight.Hint != "" {
		b.WriteString("\nHint: ")
		b.WriteString(preflight.Hint)
	}
	if preflight.NextStep != "" {
		b.WriteString("\nTry: ")
		b.WriteString(preflight.NextStep)
	}
	return b.String()
}
