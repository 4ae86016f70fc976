package cli

import (
	"encoding/json"
	"io"

	"github.com/opencode-ai/narrator/internal/models"
)

// IsJSONOutput reports whether --json was given.
func IsJSONOutput() bool {
	return jsonOutput
}

// IsJSONLOutput reports whether --jsonl was given.
func IsJSONLOutput() bool {
	return jsonlOutput
}

// WriteOutput writes v as indented JSON, or as one compact line per element
// in JSONL mode.
func WriteOutput(out io.Writer, v any) error {
	if IsJSONLOutput() {
		enc := json.NewEncoder(out)
		if items, ok := models.AsSequence(v); ok {
			for _, item := range items {
				if err := enc.Encode(item); err != nil {
					return err
				}
			}
			return nil
		}
		return enc.Encode(v)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
