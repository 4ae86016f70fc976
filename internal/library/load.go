package library

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/opencode-ai/narrator/internal/models"
	"gopkg.in/yaml.v3"
)

// LoadTemplate reads a single template from disk.
func LoadTemplate(path string) (*models.Template, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("template path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", path, err)
	}

	tmpl, err := parseTemplate(data)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", path, err)
	}
	tmpl.Source = path
	return tmpl, nil
}

// LoadTemplatesFromDir loads every template under dir, including
// subdirectories such as findings/, actions/ and shared/.
func LoadTemplatesFromDir(dir string) ([]*models.Template, error) {
	if strings.TrimSpace(dir) == "" {
		return []*models.Template{}, nil
	}

	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return []*models.Template{}, nil
		}
		return nil, fmt.Errorf("read templates dir %s: %w", dir, err)
	}

	templates := make([]*models.Template, 0)
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("read templates dir %s: %w", dir, err)
		}
		if entry.IsDir() || !isTemplateFile(entry.Name()) {
			return nil
		}
		tmpl, err := LoadTemplate(path)
		if err != nil {
			return err
		}
		templates = append(templates, tmpl)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(templates, func(i, j int) bool {
		return templates[i].ID < templates[j].ID
	})

	return templates, nil
}

func isTemplateFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	default:
		return false
	}
}

// parseTemplate decodes YAML (JSON is a subset) and validates the result.
func parseTemplate(data []byte) (*models.Template, error) {
	var tmpl models.Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, err
	}

	tmpl.ID = strings.TrimSpace(tmpl.ID)
	tmpl.Name = strings.TrimSpace(tmpl.Name)
	tmpl.Category = strings.TrimSpace(tmpl.Category)
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}

	return &tmpl, nil
}
