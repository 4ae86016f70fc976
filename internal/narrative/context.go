package narrative

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/opencode-ai/narrator/internal/models"
)

var (
	// ErrCycle is reported when a shared category or template id is
	// re-entered while it is still being resolved.
	ErrCycle = errors.New("shared template cycle")
	// ErrDepthExceeded is reported when shared resolution nests too deeply.
	ErrDepthExceeded = errors.New("shared template nesting too deep")
)

// Context is the mutable state of one resolution. Values is owned by the
// context: enum template-reference expansion rewrites it, and later steps and
// later segments observe the rewritten values.
type Context struct {
	Values    models.Values
	Variables map[string]models.Variable
	Pool      *SharedPool

	guard *guard
}

// NewContext copies values so the caller's map is never modified.
func NewContext(values models.Values, variables map[string]models.Variable, pool *SharedPool) *Context {
	if values == nil {
		values = models.Values{}
	}
	return &Context{
		Values:    values.Clone(),
		Variables: variables,
		Pool:      pool,
		guard:     &guard{max: DefaultMaxDepth},
	}
}

// child builds the context for rendering a shared template body. It shares
// the parent's cycle guard.
func (c *Context) child(values models.Values, variables map[string]models.Variable) *Context {
	return &Context{
		Values:    values,
		Variables: variables,
		Pool:      c.Pool,
		guard:     c.guard,
	}
}

// guard tracks the active shared resolution path.
type guard struct {
	max  int
	path []string
}

func (g *guard) enter(key string) error {
	if slices.Contains(g.path, key) {
		return fmt.Errorf("%w: %s -> %s", ErrCycle, strings.Join(g.path, " -> "), key)
	}
	if len(g.path) >= g.max {
		return fmt.Errorf("%w: %d levels at %s", ErrDepthExceeded, g.max, key)
	}
	g.path = append(g.path, key)
	return nil
}

func (g *guard) leave() {
	if len(g.path) > 0 {
		g.path = g.path[:len(g.path)-1]
	}
}
