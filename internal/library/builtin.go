package library

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"github.com/opencode-ai/narrator/internal/models"
)

//go:embed builtin
var builtinFS embed.FS

// BuiltinSource marks templates bundled with the binary.
const BuiltinSource = "builtin"

// LoadBuiltinTemplates returns the built-in endoscopy templates.
func LoadBuiltinTemplates() ([]*models.Template, error) {
	templates := make([]*models.Template, 0)
	err := fs.WalkDir(builtinFS, "builtin", func(name string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !isTemplateFile(name) {
			return nil
		}
		data, err := builtinFS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read builtin template %s: %w", path.Base(name), err)
		}
		tmpl, err := parseTemplate(data)
		if err != nil {
			return fmt.Errorf("parse builtin template %s: %w", path.Base(name), err)
		}
		tmpl.Source = BuiltinSource
		templates = append(templates, tmpl)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read builtin templates: %w", err)
	}

	sort.Slice(templates, func(i, j int) bool {
		return templates[i].ID < templates[j].ID
	})

	return templates, nil
}
