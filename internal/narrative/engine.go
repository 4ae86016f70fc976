// Package narrative renders clinical narrative text from template bodies,
// field values and a pool of shared vocabulary templates.
package narrative

import (
	"math"
	"sort"
	"strings"

	"github.com/opencode-ai/narrator/internal/expr"
	"github.com/opencode-ai/narrator/internal/models"
	"github.com/rs/zerolog"
)

// DefaultMaxDepth bounds nested shared template resolution.
const DefaultMaxDepth = 16

// Engine renders template bodies. It is stateless between calls and safe for
// concurrent use.
type Engine struct {
	logger   zerolog.Logger
	maxDepth int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMaxDepth sets the shared resolution depth limit. Values below 1 are
// ignored.
func WithMaxDepth(depth int) Option {
	return func(e *Engine) {
		if depth > 0 {
			e.maxDepth = depth
		}
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:   zerolog.Nop(),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Generate renders body against values. Each segment is processed
// independently and the results are joined with a single space. Generate
// never fails: constructs that cannot be resolved degrade to empty or raw
// text and are logged.
func (e *Engine) Generate(body models.Body, values models.Values, variables map[string]models.Variable, pool *SharedPool) string {
	ctx := e.NewContext(values, variables, pool)
	e.logger.Debug().
		Int("segments", len(body.Segments)).
		Int("values", len(ctx.Values)).
		Int("shared_categories", pool.Len()).
		Msg("starting template processing")
	return e.Render(ctx, body)
}

// GenerateTemplate renders a template's own body with its own variables.
func (e *Engine) GenerateTemplate(tmpl *models.Template, values models.Values, pool *SharedPool) string {
	if tmpl == nil {
		return ""
	}
	return e.Generate(tmpl.Body, values, tmpl.Variables, pool)
}

// NewContext creates a resolution context bounded by the engine depth limit.
func (e *Engine) NewContext(values models.Values, variables map[string]models.Variable, pool *SharedPool) *Context {
	ctx := NewContext(values, variables, pool)
	ctx.guard.max = e.maxDepth
	return ctx
}

// Render processes every segment of body within ctx.
func (e *Engine) Render(ctx *Context, body models.Body) string {
	parts := make([]string, len(body.Segments))
	for i, segment := range body.Segments {
		parts[i] = e.processSegment(ctx, segment)
	}
	return strings.Join(parts, " ")
}

func (e *Engine) processSegment(ctx *Context, segment string) string {
	result := e.resolveTernaries(ctx, segment)
	result = e.resolveFunctions(ctx, result)
	e.expandTemplateRefs(ctx)
	result = e.substituteVariables(ctx, result)
	result = expr.ResolveBlocks(result, ctx.Values, e.logger)
	return e.resolveTernaries(ctx, result)
}

// resolveTernaries replaces {cond ? a : b} with the trimmed chosen branch.
func (e *Engine) resolveTernaries(ctx *Context, text string) string {
	return replaceBraced(text, func(inner string) (string, bool) {
		cond, whenTrue, whenFalse, ok := splitTernary(inner)
		if !ok {
			return "", false
		}
		return e.guarded("ternary", inner, func() string {
			result := expr.Evaluate(cond, ctx.Values, e.logger)
			e.logger.Debug().
				Str("condition", cond).
				Str("true_text", whenTrue).
				Str("false_text", whenFalse).
				Bool("result", result).
				Msg("processing ternary")
			if result {
				return strings.TrimSpace(whenTrue)
			}
			return strings.TrimSpace(whenFalse)
		}), true
	})
}

// resolveFunctions replaces {fn:arg1,arg2} with the function result.
func (e *Engine) resolveFunctions(ctx *Context, text string) string {
	return replaceBraced(text, func(inner string) (string, bool) {
		name, rawArgs, ok := splitCall(inner)
		if !ok {
			return "", false
		}
		return e.guarded("function", inner, func() string {
			return e.callFunction(ctx, name, rawArgs)
		}), true
	})
}

// expandTemplateRefs rewrites enum values of the form "{id}" into the
// rendered shared template with that id.
func (e *Engine) expandTemplateRefs(ctx *Context) {
	keys := make([]string, 0, len(ctx.Variables))
	for key, variable := range ctx.Variables {
		if variable.Type == models.VariableTypeEnum {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := ctx.Values[key]
		if !truthy(value) {
			continue
		}
		if models.LooksLikeTemplateRef(value) {
			e.logger.Debug().Str("field", key).Interface("value", value).Msg("found template reference in enum")
			ctx.Values[key] = e.guarded("templateRef", key, func() string {
				return e.templateRef(ctx, value.(string))
			})
			continue
		}
		items, ok := models.AsSequence(value)
		if !ok {
			continue
		}
		expanded := make([]any, len(items))
		for i, item := range items {
			expanded[i] = item
			if models.LooksLikeTemplateRef(item) {
				expanded[i] = e.guarded("templateRef", key, func() string {
					return e.templateRef(ctx, item.(string))
				})
			}
		}
		ctx.Values[key] = expanded
	}
}

// substituteVariables replaces {key} with the field's rendered value.
func (e *Engine) substituteVariables(ctx *Context, text string) string {
	return replaceBraced(text, func(inner string) (string, bool) {
		if inner == "" || strings.IndexByte(inner, ':') >= 0 {
			return "", false
		}
		return e.guarded("variable", inner, func() string {
			return e.renderField(ctx, inner)
		}), true
	})
}

func (e *Engine) renderField(ctx *Context, key string) string {
	value := ctx.Values[key]
	variable := ctx.Variables[key]
	if category, ok := variable.SharedCategory(); ok && ctx.Pool != nil {
		e.logger.Debug().Str("field", key).Str("category", category).Msg("processing shared template variable")
		return e.sharedValue(ctx, value, category, variable.UseShared.Variables)
	}
	if items, ok := models.AsSequence(value); ok {
		return models.JoinValues(items, ", ")
	}
	return models.ToString(value)
}

// guarded runs fn, turning a panic into an empty fragment.
func (e *Engine) guarded(construct, fragment string, fn func() string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().
				Str("construct", construct).
				Str("fragment", fragment).
				Interface("panic", r).
				Msg("error processing template fragment")
			out = ""
		}
	}()
	return fn()
}

// HasSharedType reports whether any variable of tmpl draws from category.
func HasSharedType(tmpl *models.Template, category string) bool {
	if tmpl == nil {
		return false
	}
	for _, variable := range tmpl.Variables {
		if c, ok := variable.SharedCategory(); ok && c == category {
			return true
		}
	}
	return false
}

// truthy mirrors the loose truthiness used when deciding whether a field
// carries a value worth expanding.
func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case bool:
		return v
	}
	if models.IsNumberValue(value) {
		n := models.ToNumber(value)
		return !math.IsNaN(n) && n != 0
	}
	return true
}
