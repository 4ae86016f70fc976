package narrative

import (
	"sort"

	"github.com/opencode-ai/narrator/internal/models"
)

const defaultUnit = "mm"

// SharedValue renders value through the shared template serving category.
// overrides are the referencing field's useShared.variables.
func (e *Engine) SharedValue(value any, category string, pool *SharedPool, overrides map[string]any) string {
	return e.sharedValue(e.NewContext(nil, nil, pool), value, category, overrides)
}

// TemplateRef renders the shared template named by ref ("{id}") with its
// variable defaults.
func (e *Engine) TemplateRef(ref string, pool *SharedPool) string {
	return e.templateRef(e.NewContext(nil, nil, pool), ref)
}

func (e *Engine) sharedValue(ctx *Context, value any, category string, overrides map[string]any) string {
	shared, ok := ctx.Pool.ByCategory(category)
	if !ok {
		e.logger.Warn().Str("category", category).Msg("no shared template found for category")
		return models.ToString(value)
	}

	if items, ok := models.AsSequence(value); ok {
		parts := make([]any, len(items))
		for i, item := range items {
			parts[i] = e.sharedValue(ctx, item, category, overrides)
		}
		return models.JoinValues(parts, ", ")
	}
	if value == nil {
		e.logger.Debug().Str("category", category).Msg("no value for shared field")
		return ""
	}

	raw := models.ToString(value)
	if err := ctx.guard.enter("category:" + category); err != nil {
		e.logger.Error().Err(err).Str("value", raw).Msg("shared value resolution aborted")
		return raw
	}
	defer ctx.guard.leave()

	env := shared.Defaults()
	for key, v := range overrides {
		env[key] = v
	}

	if models.IsNumeric(raw) {
		if shared.Body.IsZero() {
			unit := defaultUnit
			if truthy(env["unit"]) {
				unit = models.ToString(env["unit"])
			}
			return raw + unit
		}
		index := 0
		if shared.Body.Multi && len(shared.Body.Segments) > 1 {
			index = 1
		}
		env["value"] = raw
		return e.processSegment(ctx.child(env, shared.Variables), shared.Body.Segment(index))
	}

	option, ok := shared.FindOption(raw)
	if !ok {
		e.logger.Warn().Str("category", category).Str("value", raw).Msg("no matching option in shared template")
		return raw
	}

	if len(option.References) > 0 && shared.Variables != nil {
		keys := make([]string, 0, len(option.References))
		for key := range option.References {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			ref := option.References[key]
			if refCategory, ok := shared.Variables[key].SharedCategory(); ok {
				env[key] = e.sharedValue(ctx, ref, refCategory, nil)
			} else {
				env[key] = ref
			}
		}
	}

	if shared.Body.IsZero() {
		if option.Value == nil {
			return raw
		}
		return models.ToString(option.Value)
	}
	env["value"] = option.Value
	return e.processSegment(ctx.child(env, shared.Variables), shared.Body.Segment(0))
}

func (e *Engine) templateRef(ctx *Context, ref string) string {
	if ctx.Pool == nil {
		e.logger.Warn().Str("ref", ref).Msg("no shared templates provided")
		return ref
	}
	name, ok := models.TemplateRefName(ref)
	if !ok {
		e.logger.Warn().Str("ref", ref).Msg("invalid template reference format")
		return ref
	}
	tmpl, ok := ctx.Pool.ByID(name)
	if !ok {
		e.logger.Warn().Str("template", name).Msg("template not found")
		return ref
	}
	if tmpl.Body.IsZero() {
		e.logger.Warn().Str("template", name).Msg("no template string found")
		return ref
	}

	if err := ctx.guard.enter("id:" + name); err != nil {
		e.logger.Error().Err(err).Str("ref", ref).Msg("template reference resolution aborted")
		return ref
	}
	defer ctx.guard.leave()

	return e.Render(ctx.child(tmpl.Defaults(), tmpl.Variables), tmpl.Body)
}
