package codes

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/opencode-ai/narrator/internal/models"
	"github.com/opencode-ai/narrator/internal/narrative"
)

func finding(id string, snomed ...string) *models.Template {
	return &models.Template{ID: id, Type: models.TemplateTypeFinding, Codes: models.Codes{Snomed: snomed}}
}

func TestAssign(t *testing.T) {
	tests := []struct {
		name      string
		templates []*models.Template
		want      []Assignment
	}{
		{
			name:      "single template",
			templates: []*models.Template{finding("test1", "123456", "789012")},
			want:      []Assignment{{Primary: "123456", Modifiers: []string{"789012"}, Source: "test1"}},
		},
		{
			name:      "order preserved",
			templates: []*models.Template{finding("test1", "123456", "789012"), finding("test2", "345678", "901234")},
			want: []Assignment{
				{Primary: "123456", Modifiers: []string{"789012"}, Source: "test1"},
				{Primary: "345678", Modifiers: []string{"901234"}, Source: "test2"},
			},
		},
		{
			name:      "no modifiers",
			templates: []*models.Template{finding("solo", "111")},
			want:      []Assignment{{Primary: "111", Modifiers: []string{}, Source: "solo"}},
		},
		{
			name:      "empty",
			templates: nil,
			want:      []Assignment{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Assign(tt.templates)); diff != "" {
				t.Errorf("Assign mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidateCompatibility(t *testing.T) {
	ok := ValidateCompatibility([]Assignment{
		{Primary: "123456", Source: "test1"},
		{Primary: "345678", Source: "test2"},
	})
	if !ok.IsValid || len(ok.Conflicts) != 0 {
		t.Fatalf("expected compatible, got %+v", ok)
	}

	dup := ValidateCompatibility([]Assignment{
		{Primary: "123456", Source: "test1"},
		{Primary: "123456", Source: "test2"},
	})
	want := []string{"Duplicate primary code 123456 from template test2"}
	if dup.IsValid {
		t.Fatal("expected conflict")
	}
	if diff := cmp.Diff(want, dup.Conflicts); diff != "" {
		t.Errorf("conflicts mismatch (-want +got):\n%s", diff)
	}
}

func TestFormat(t *testing.T) {
	got := Format([]Assignment{
		{Primary: "123456", Modifiers: []string{"789012"}, Source: "test1"},
		{Primary: "345678", Modifiers: []string{"901234"}, Source: "test2"},
	})
	want := Summary{
		Primary:   "123456",
		Modifiers: []string{"789012", "901234"},
		Sources:   []string{"test1", "test2"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Format mismatch (-want +got):\n%s", diff)
	}

	empty := Format(nil)
	if empty.Primary != "" || len(empty.Modifiers) != 0 || len(empty.Sources) != 0 {
		t.Errorf("unexpected empty summary %+v", empty)
	}
}

func TestSelectedOptions(t *testing.T) {
	pool := narrative.NewSharedPool(&models.Template{
		ID:       "locations",
		Type:     models.TemplateTypeShared,
		Category: "location",
		Options: []models.Option{
			{ID: "asc", Name: "Ascending colon", Codes: &models.Codes{Snomed: []string{"9040008"}}},
			{ID: "cecum", Name: "Cecum"},
			{ID: "balloon", Name: "Balloon", Codes: &models.Codes{Snomed: []string{"26412008", "425487007"}}},
		},
	})
	tmpl := &models.Template{
		ID: "polyp",
		Variables: map[string]models.Variable{
			"location": {Type: models.VariableTypeEnum, UseShared: &models.UseShared{Type: "location"}},
			"sites":    {Type: models.VariableTypeEnum, AllowMultiple: true, UseShared: &models.UseShared{Type: "location"}},
			"note":     {Type: models.VariableTypeText},
		},
	}

	got := SelectedOptions(tmpl, models.Values{"location": "Ascending colon", "sites": []any{"cecum", "balloon"}, "note": "asc"}, pool)
	want := []Assignment{
		{Primary: "9040008", Modifiers: []string{}, Source: "polyp.location:asc"},
		{Primary: "26412008", Modifiers: []string{"425487007"}, Source: "polyp.sites:balloon"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SelectedOptions mismatch (-want +got):\n%s", diff)
	}
}
