package expr

import (
	"testing"

	"github.com/opencode-ai/narrator/internal/models"
	"github.com/rs/zerolog"
)

func TestResolveBlocks(t *testing.T) {
	env := models.Values{"count": 3, "size": 5}

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "true condition keeps content",
			input: "Found [if count > 1]multiple items[/if]",
			want:  "Found multiple items",
		},
		{
			name:  "false condition removes block",
			input: "Found [if count > 5]many items[/if]",
			want:  "Found ",
		},
		{
			name:  "multiple blocks",
			input: "[if size > 1]A[/if]-[if size > 10]B[/if]-[if size === 5]C[/if]",
			want:  "A--C",
		},
		{
			name:  "malformed condition removes block",
			input: "x[if reason]y[/if]z",
			want:  "xz",
		},
		{
			name:  "unterminated block left alone",
			input: "x [if count > 1]never closed",
			want:  "x [if count > 1]never closed",
		},
		{
			name:  "content may not contain brackets",
			input: "[if count > 1]a [b] c[/if]",
			want:  "[if count > 1]a [b] c[/if]",
		},
		{
			name:  "no blocks",
			input: "plain text",
			want:  "plain text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveBlocks(tt.input, env, zerolog.Nop()); got != tt.want {
				t.Errorf("ResolveBlocks(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFindBlocks(t *testing.T) {
	blocks := FindBlocks("[if a > 1]x[/if] and [if !b]y[/if]")
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].Condition != "a > 1" || blocks[0].Content != "x" {
		t.Errorf("unexpected first block: %+v", blocks[0])
	}
	if blocks[1].Condition != "!b" || blocks[1].Content != "y" {
		t.Errorf("unexpected second block: %+v", blocks[1])
	}
}
