package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/opencode-ai/narrator/internal/models"
	"gopkg.in/yaml.v3"
)

// parseSetValues parses repeated key=value flags. Values are YAML scalars or
// flow sequences, so n=2 is a number, flag=true a boolean and loc=[asc,sig]
// a list.
func parseSetValues(pairs []string) (models.Values, error) {
	values := models.Values{}
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q (expected key=value)", pair)
		}
		value, err := parseValue(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid --set %s: %w", key, err)
		}
		values[key] = value
	}
	return values, nil
}

func parseValue(raw string) (any, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	var value any
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
		return nil, err
	}
	if _, isMap := value.(map[string]any); isMap {
		return nil, fmt.Errorf("nested objects are not field values")
	}
	return value, nil
}

// loadValuesFile reads a YAML or JSON mapping of field values.
func loadValuesFile(path string) (models.Values, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read values file: %w", err)
	}
	values := models.Values{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse values file %s: %w", path, err)
	}
	return values, nil
}

// resolveValues merges a values file with --set pairs; pairs win.
func resolveValues(file string, pairs []string) (models.Values, error) {
	values := models.Values{}
	if file != "" {
		loaded, err := loadValuesFile(file)
		if err != nil {
			return nil, err
		}
		values = loaded
	}
	set, err := parseSetValues(pairs)
	if err != nil {
		return nil, err
	}
	for key, value := range set {
		values[key] = value
	}
	return values, nil
}
