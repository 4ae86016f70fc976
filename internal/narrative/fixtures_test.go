package narrative

import "github.com/opencode-ai/narrator/internal/models"

func sharedTemplate(id, category string, body models.Body, variables map[string]models.Variable, options ...models.Option) *models.Template {
	return &models.Template{
		ID:        id,
		Type:      models.TemplateTypeShared,
		Name:      id,
		Version:   "1.0.0",
		Category:  category,
		Body:      body,
		Variables: variables,
		Options:   options,
	}
}

func option(id, value string) models.Option {
	return models.Option{ID: id, Name: id, Hotkey: id[:1], Value: value}
}

func nestedLocationPool() *SharedPool {
	location := sharedTemplate("location", "location",
		models.NewBody("in the {position} {segment}"),
		map[string]models.Variable{
			"position": {Type: models.VariableTypeEnum, Required: true, UseShared: &models.UseShared{Type: "position"}},
			"segment":  {Type: models.VariableTypeEnum, Required: true, UseShared: &models.UseShared{Type: "segment"}},
		},
		models.Option{
			ID:         "loc1",
			Name:       "Location 1",
			Hotkey:     "l",
			Value:      "Location 1",
			References: map[string]any{"position": "proximal", "segment": "esophagus"},
		},
	)
	position := sharedTemplate("position", "position", models.NewBody("{value}"), nil,
		models.Option{ID: "proximal", Name: "Proximal", Hotkey: "p", Value: "upper"})
	segment := sharedTemplate("segment", "segment", models.NewBody("{value}"), nil,
		option("esophagus", "esophagus"))
	return NewSharedPool(location, position, segment)
}
