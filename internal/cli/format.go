package cli

import (
	"fmt"
	"strings"

	"github.com/opencode-ai/narrator/internal/models"
)

func formatValidity(valid bool) string {
	styles := currentStyles()
	if valid {
		return colorize("OK", styles.Success)
	}
	return colorize("ERR", styles.Error)
}

func formatTemplateType(t models.TemplateType) string {
	styles := currentStyles()
	switch t {
	case models.TemplateTypeFinding:
		return colorize(string(t), styles.Info)
	case models.TemplateTypeAction:
		return colorize(string(t), styles.Accent)
	default:
		return colorize(string(t), styles.Muted)
	}
}

func formatHeading(text string) string {
	return colorize(text, currentStyles().Title)
}

func formatWarning(format string, args ...any) string {
	return colorize(fmt.Sprintf(format, args...), currentStyles().Warning)
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

func formatYesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func formatList(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}
