package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"", LevelOff, false},
		{"off", LevelOff, false},
		{" Simple ", LevelSimple, false},
		{"VERBOSE", LevelVerbose, false},
		{"debug", "", true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestZerologLevel(t *testing.T) {
	if LevelOff.ZerologLevel() != zerolog.ErrorLevel {
		t.Errorf("off should still emit errors")
	}
	if LevelSimple.ZerologLevel() != zerolog.InfoLevel {
		t.Errorf("simple should map to info")
	}
	if LevelVerbose.ZerologLevel() != zerolog.DebugLevel {
		t.Errorf("verbose should map to debug")
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := Component(New(Options{Level: LevelSimple, Format: FormatJSON, Output: &buf}), "library")

	logger.Debug().Msg("hidden")
	logger.Info().Str("id", "polyp").Msg("loaded")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry["component"] != "library" || entry["id"] != "polyp" || entry["message"] != "loaded" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Fatalf("missing timestamp: %v", entry)
	}
}

func TestNewConsoleOff(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Output: &buf})

	logger.Info().Msg("quiet")
	if buf.Len() != 0 {
		t.Fatalf("info leaked at off level: %q", buf.String())
	}
	logger.Error().Msg("broken")
	if !strings.Contains(buf.String(), "broken") {
		t.Fatalf("error missing: %q", buf.String())
	}
}
