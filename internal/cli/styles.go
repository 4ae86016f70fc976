package cli

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// ThemeTokens defines the semantic color roles for terminal output.
type ThemeTokens struct {
	Text      string
	TextMuted string
	Accent    string
	Success   string
	Warning   string
	Error     string
	Info      string
}

// Theme bundles a palette with a name.
type Theme struct {
	Name   string
	Tokens ThemeTokens
}

// DefaultTheme is the baseline palette.
var DefaultTheme = Theme{
	Name: "default",
	Tokens: ThemeTokens{
		Text:      "#E6EDF3",
		TextMuted: "#8B9AAE",
		Accent:    "#5B8DEF",
		Success:   "#3FB950",
		Warning:   "#D29922",
		Error:     "#F85149",
		Info:      "#58A6FF",
	},
}

// HighContrastTheme trades subtlety for legibility.
var HighContrastTheme = Theme{
	Name: "high-contrast",
	Tokens: ThemeTokens{
		Text:      "#FFFFFF",
		TextMuted: "#C0C0C0",
		Accent:    "#00FFFF",
		Success:   "#00FF00",
		Warning:   "#FFFF00",
		Error:     "#FF0000",
		Info:      "#00BFFF",
	},
}

// Themes lists available palettes by name.
var Themes = map[string]Theme{
	"default":       DefaultTheme,
	"high-contrast": HighContrastTheme,
}

// Styles contains lipgloss styles derived from theme tokens.
type Styles struct {
	Title   lipgloss.Style
	Muted   lipgloss.Style
	Accent  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style
}

// BuildStyles converts theme tokens into lipgloss styles.
func BuildStyles(theme Theme) Styles {
	tokens := theme.Tokens
	return Styles{
		Title:   lipgloss.NewStyle().Foreground(lipgloss.Color(tokens.Text)).Bold(true),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color(tokens.TextMuted)),
		Accent:  lipgloss.NewStyle().Foreground(lipgloss.Color(tokens.Accent)),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color(tokens.Success)),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color(tokens.Warning)),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color(tokens.Error)),
		Info:    lipgloss.NewStyle().Foreground(lipgloss.Color(tokens.Info)),
	}
}

// currentStyles resolves the configured theme, falling back to the default.
func currentStyles() Styles {
	theme, ok := Themes[GetConfig().Output.Theme]
	if !ok {
		theme = DefaultTheme
	}
	return BuildStyles(theme)
}

func colorEnabled() bool {
	if noColor || !GetConfig().Output.Color || IsJSONOutput() || IsJSONLOutput() {
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return isTerminal(os.Stdout)
}

// colorize renders text with style when the terminal supports it.
func colorize(text string, style lipgloss.Style) string {
	if !colorEnabled() {
		return text
	}
	return style.Render(text)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
