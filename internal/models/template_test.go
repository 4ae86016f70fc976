package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestBodyYAML(t *testing.T) {
	var single struct {
		Template Body `yaml:"template"`
	}
	if err := yaml.Unmarshal([]byte(`template: "{count} polyps"`), &single); err != nil {
		t.Fatalf("unmarshal scalar: %v", err)
	}
	if single.Template.Multi || len(single.Template.Segments) != 1 || single.Template.Segment(0) != "{count} polyps" {
		t.Fatalf("unexpected scalar body: %+v", single.Template)
	}

	var multi struct {
		Template Body `yaml:"template"`
	}
	if err := yaml.Unmarshal([]byte("template:\n  - a\n  - b\n"), &multi); err != nil {
		t.Fatalf("unmarshal sequence: %v", err)
	}
	if !multi.Template.Multi || multi.Template.Segment(1) != "b" || multi.Template.Segment(5) != "" {
		t.Fatalf("unexpected sequence body: %+v", multi.Template)
	}

	out, err := yaml.Marshal(single)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(out), "{count} polyps") || strings.Contains(string(out), "- ") {
		t.Fatalf("scalar body not written back as scalar: %s", out)
	}

	var bad struct {
		Template Body `yaml:"template"`
	}
	if err := yaml.Unmarshal([]byte("template:\n  a: b\n"), &bad); err == nil {
		t.Fatalf("expected error for mapping body")
	}
}

func TestBodyJSON(t *testing.T) {
	var body Body
	if err := json.Unmarshal([]byte(`["a", "b"]`), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !body.Multi || len(body.Segments) != 2 {
		t.Fatalf("unexpected body: %+v", body)
	}
	data, err := json.Marshal(NewBody("x"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"x"` {
		t.Fatalf("marshal = %s", data)
	}
	if err := json.Unmarshal([]byte(`42`), &body); err == nil {
		t.Fatalf("expected error for numeric body")
	}
}

func TestCodes(t *testing.T) {
	codes := Codes{Snomed: []string{"1", "2", "3"}}
	if codes.Primary() != "1" {
		t.Errorf("Primary() = %q", codes.Primary())
	}
	if got := codes.Modifiers(); len(got) != 2 || got[0] != "2" {
		t.Errorf("Modifiers() = %v", got)
	}
	empty := Codes{}
	if empty.Primary() != "" || len(empty.Modifiers()) != 0 || empty.Modifiers() == nil {
		t.Errorf("empty codes: %q %v", empty.Primary(), empty.Modifiers())
	}
}

func TestTemplateHelpers(t *testing.T) {
	tmpl := &Template{
		Version:          "2.3.1",
		ValidForFindings: []string{"polyp"},
		Variables: map[string]Variable{
			"unit": {Type: VariableTypeText, Default: "mm"},
		},
		Options: []Option{{ID: "asc", Name: "ascending colon"}},
	}

	if tmpl.MajorVersion() != "2" {
		t.Errorf("MajorVersion() = %q", tmpl.MajorVersion())
	}
	if !tmpl.ValidForFinding("polyp") || tmpl.ValidForFinding("mass") {
		t.Errorf("ValidForFinding mismatch")
	}
	if tmpl.Defaults()["unit"] != "mm" {
		t.Errorf("Defaults() = %v", tmpl.Defaults())
	}
	if _, ok := tmpl.FindOption("ascending colon"); !ok {
		t.Errorf("FindOption by name failed")
	}
	if _, ok := tmpl.FindOption(1); ok {
		t.Errorf("FindOption matched a number")
	}
	var missing *Template
	if _, ok := missing.FindOption("asc"); ok {
		t.Errorf("nil template found an option")
	}
}

func TestTemplateValidate(t *testing.T) {
	valid := &Template{
		ID:      "polyp",
		Type:    TemplateTypeFinding,
		Name:    "Polyp",
		Version: "1.0.0",
		Codes:   Codes{Snomed: []string{"68496003"}},
		Body:    NewBody("{count} polyps"),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	tests := []struct {
		name  string
		tmpl  Template
		field string
	}{
		{"missing id", Template{Type: TemplateTypeShared, Name: "x", Version: "1.0.0", Category: "c"}, "id"},
		{"bad version", Template{ID: "x", Type: TemplateTypeShared, Name: "x", Version: "1.0", Category: "c"}, "version"},
		{"unknown type", Template{ID: "x", Type: "macro", Name: "x", Version: "1.0.0"}, "type"},
		{"finding without codes", Template{ID: "x", Type: TemplateTypeFinding, Name: "x", Version: "1.0.0", Body: NewBody("x")}, "codes.snomed"},
		{"action without body", Template{ID: "x", Type: TemplateTypeAction, Name: "x", Version: "1.0.0", Codes: Codes{Snomed: []string{"1"}}}, "template"},
		{"shared without category", Template{ID: "x", Type: TemplateTypeShared, Name: "x", Version: "1.0.0"}, "category"},
		{"duplicate option", Template{ID: "x", Type: TemplateTypeShared, Name: "x", Version: "1.0.0", Category: "c",
			Options: []Option{{ID: "a"}, {ID: "a"}}}, "options"},
		{"unknown variable type", Template{ID: "x", Type: TemplateTypeShared, Name: "x", Version: "1.0.0", Category: "c",
			Variables: map[string]Variable{"v": {Type: "date"}}}, "variables.v"},
		{"empty useShared", Template{ID: "x", Type: TemplateTypeShared, Name: "x", Version: "1.0.0", Category: "c",
			Variables: map[string]Variable{"v": {Type: VariableTypeEnum, UseShared: &UseShared{}}}}, "variables.v"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tmpl.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			var verr *TemplateValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected TemplateValidationError, got %T", err)
			}
			if verr.Field != tt.field {
				t.Errorf("field = %q, want %q (%v)", verr.Field, tt.field, err)
			}
		})
	}
}

func TestVariableHelpers(t *testing.T) {
	v := Variable{Type: VariableTypeEnum, Options: []string{"forceps", "snare"}, UseShared: &UseShared{Type: "location"}}
	if !v.HasOption("snare") || v.HasOption("laser") || v.HasOption(1) {
		t.Errorf("HasOption mismatch")
	}
	if category, ok := v.SharedCategory(); !ok || category != "location" {
		t.Errorf("SharedCategory() = %q, %v", category, ok)
	}
	if VariableType("date").Valid() {
		t.Errorf("unknown type reported valid")
	}
}
