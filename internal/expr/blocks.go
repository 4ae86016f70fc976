package expr

import (
	"strings"

	"github.com/opencode-ai/narrator/internal/models"
	"github.com/rs/zerolog"
)

const (
	blockOpen  = "[if "
	blockClose = "[/if]"
)

// Block is one [if cond]content[/if] occurrence.
type Block struct {
	Start, End int // byte offsets of the whole block, End exclusive
	Condition  string
	Content    string
}

// FindBlock locates the first conditional block in text. Content may not
// contain '[', so nested blocks never match as a unit.
func FindBlock(text string) (Block, bool) {
	from := 0
	for {
		idx := strings.Index(text[from:], blockOpen)
		if idx < 0 {
			return Block{}, false
		}
		start := from + idx
		from = start + 1

		condStart := start + len(blockOpen)
		closeIdx := strings.IndexByte(text[condStart:], ']')
		if closeIdx <= 0 {
			continue
		}
		contentStart := condStart + closeIdx + 1
		bracket := strings.IndexByte(text[contentStart:], '[')
		if bracket < 0 {
			continue
		}
		contentEnd := contentStart + bracket
		if !strings.HasPrefix(text[contentEnd:], blockClose) {
			continue
		}

		return Block{
			Start:     start,
			End:       contentEnd + len(blockClose),
			Condition: text[condStart : condStart+closeIdx],
			Content:   text[contentStart:contentEnd],
		}, true
	}
}

// FindBlocks lists every block FindBlock would visit without evaluating them.
func FindBlocks(text string) []Block {
	var blocks []Block
	offset := 0
	for {
		block, ok := FindBlock(text[offset:])
		if !ok {
			return blocks
		}
		block.Start += offset
		block.End += offset
		blocks = append(blocks, block)
		offset = block.End
	}
}

// ResolveBlocks repeatedly replaces the first block with its content when
// the condition holds, or with nothing, until no block remains.
func ResolveBlocks(text string, env models.Values, logger zerolog.Logger) string {
	for {
		block, ok := FindBlock(text)
		if !ok {
			return text
		}
		keep := Evaluate(block.Condition, env, logger)
		logger.Debug().
			Str("condition", block.Condition).
			Str("content", block.Content).
			Bool("result", keep).
			Msg("processing conditional")

		replacement := ""
		if keep {
			replacement = block.Content
		}
		text = text[:block.Start] + replacement + text[block.End:]
	}
}
