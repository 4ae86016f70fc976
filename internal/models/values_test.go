package models

import (
	"math"
	"testing"
)

func TestToNumber(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  float64
	}{
		{"int", 3, 3},
		{"float", 2.5, 2.5},
		{"numeric string", " 12 ", 12},
		{"empty string", "", 0},
		{"true", true, 1},
		{"false", false, 0},
		{"hex", "0x10", 16},
		{"exponent", "1e3", 1000},
		{"single element sequence", []any{"7"}, 7},
		{"empty sequence", []any{}, 0},
		{"infinity", "Infinity", math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToNumber(tt.value); got != tt.want {
				t.Errorf("ToNumber(%#v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}

	for _, value := range []any{"abc", nil, []any{1, 2}, map[string]any{}, "1,000"} {
		if got := ToNumber(value); !math.IsNaN(got) {
			t.Errorf("ToNumber(%#v) = %v, want NaN", value, got)
		}
	}
}

func TestToString(t *testing.T) {
	tests := []struct {
		value any
		want  string
	}{
		{nil, ""},
		{"text", "text"},
		{2, "2"},
		{2.0, "2"},
		{0.1, "0.1"},
		{1e21, "1e+21"},
		{true, "true"},
		{[]any{"a", 1, true}, "a,1,true"},
		{[]string{"x", "y"}, "x,y"},
		{math.NaN(), "NaN"},
	}

	for _, tt := range tests {
		if got := ToString(tt.value); got != tt.want {
			t.Errorf("ToString(%#v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestStrictEqual(t *testing.T) {
	tests := []struct {
		a, b any
		want bool
	}{
		{1, 1.0, true},
		{int64(2), 2, true},
		{"1", 1, false},
		{true, true, true},
		{true, 1, false},
		{nil, nil, true},
		{nil, "", false},
		{[]any{1}, []any{1}, false},
		{math.NaN(), math.NaN(), false},
	}

	for _, tt := range tests {
		if got := StrictEqual(tt.a, tt.b); got != tt.want {
			t.Errorf("StrictEqual(%#v, %#v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestAsSequence(t *testing.T) {
	if _, ok := AsSequence("abc"); ok {
		t.Fatalf("strings are not sequences")
	}
	items, ok := AsSequence([]int{1, 2})
	if !ok || len(items) != 2 || items[1] != 2 {
		t.Fatalf("AsSequence([]int) = %v, %v", items, ok)
	}
}

func TestTemplateRefName(t *testing.T) {
	tests := []struct {
		value  any
		name   string
		wantOK bool
	}{
		{"{greeting}", "greeting", true},
		{"{}", "", false},
		{"{a}b}", "", false},
		{"greeting", "", false},
		{42, "", false},
	}

	for _, tt := range tests {
		name, ok := TemplateRefName(tt.value)
		if name != tt.name || ok != tt.wantOK {
			t.Errorf("TemplateRefName(%#v) = %q, %v; want %q, %v", tt.value, name, ok, tt.name, tt.wantOK)
		}
	}
	if !LooksLikeTemplateRef("{}") {
		t.Errorf("LooksLikeTemplateRef({}) = false")
	}
}

func TestIsAbsentAndClone(t *testing.T) {
	if !IsAbsent(nil) || !IsAbsent("") || IsAbsent(0) || IsAbsent(false) {
		t.Fatalf("IsAbsent treats only nil and \"\" as absent")
	}

	values := Values{"a": 1, "b": nil}
	clone := values.Clone()
	clone["a"] = 2
	if values["a"] != 1 {
		t.Fatalf("Clone shares storage")
	}
	if !values.Has("b") || values.Has("c") {
		t.Fatalf("Has mismatch")
	}
}
