package library

import (
	"os"
	"path/filepath"

	"github.com/opencode-ai/narrator/internal/models"
)

// TemplateSearchPaths returns template search directories in precedence
// order. extra directories, typically from configuration, come first.
func TemplateSearchPaths(projectDir string, extra ...string) []string {
	paths := make([]string, 0, len(extra)+3)
	for _, dir := range extra {
		if dir != "" {
			paths = append(paths, dir)
		}
	}

	if projectDir != "" {
		paths = append(paths, filepath.Join(projectDir, ".narrator", "templates"))
	}

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		paths = append(paths, filepath.Join(home, ".config", "narrator", "templates"))
	}

	paths = append(paths, filepath.Join(string(filepath.Separator), "usr", "share", "narrator", "templates"))
	return paths
}

// LoadOptions selects where templates come from.
type LoadOptions struct {
	// ProjectDir enables <project>/.narrator/templates.
	ProjectDir string
	// Dirs are searched before the standard paths.
	Dirs []string
	// NoBuiltin skips the embedded templates.
	NoBuiltin bool
	// SearchPaths replaces the computed search paths when non-nil.
	SearchPaths []string
}

// LoadTemplatesFromSearchPaths loads templates from search paths with
// first-hit precedence by template id. Built-in templates fill in last.
func LoadTemplatesFromSearchPaths(opts LoadOptions) ([]*models.Template, error) {
	paths := opts.SearchPaths
	if paths == nil {
		paths = TemplateSearchPaths(opts.ProjectDir, opts.Dirs...)
	}
	seen := make(map[string]*models.Template)
	order := make([]string, 0)

	for _, path := range paths {
		templates, err := LoadTemplatesFromDir(path)
		if err != nil {
			return nil, err
		}
		for _, tmpl := range templates {
			if _, exists := seen[tmpl.ID]; exists {
				continue
			}
			seen[tmpl.ID] = tmpl
			order = append(order, tmpl.ID)
		}
	}

	if !opts.NoBuiltin {
		builtins, err := LoadBuiltinTemplates()
		if err != nil {
			return nil, err
		}
		for _, tmpl := range builtins {
			if _, exists := seen[tmpl.ID]; exists {
				continue
			}
			seen[tmpl.ID] = tmpl
			order = append(order, tmpl.ID)
		}
	}

	resolved := make([]*models.Template, 0, len(order))
	for _, id := range order {
		resolved = append(resolved, seen[id])
	}

	return resolved, nil
}

// Load resolves templates from the search paths and indexes them.
func Load(opts LoadOptions) (*Library, error) {
	templates, err := LoadTemplatesFromSearchPaths(opts)
	if err != nil {
		return nil, err
	}
	return New(templates)
}
