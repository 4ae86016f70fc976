package narrative

import (
	"math"
	"strings"

	"github.com/opencode-ai/narrator/internal/models"
	"github.com/opencode-ai/narrator/internal/textutil"
)

// Function names callable as {name:args}.
const (
	FuncTemplateRef = "templateRef"
	FuncSharedValue = "sharedValue"
	FuncPlural      = "plural"
	FuncCount       = "count"
	FuncMeasure     = "measure"
	FuncRange       = "range"
)

// Functions lists the callable function names.
func Functions() []string {
	return []string{FuncTemplateRef, FuncSharedValue, FuncPlural, FuncCount, FuncMeasure, FuncRange}
}

func (e *Engine) callFunction(ctx *Context, name, rawArgs string) string {
	args := e.resolveArgs(ctx, rawArgs)
	logger := e.logger.With().Str("function", name).Logger()

	var result string
	switch name {
	case FuncTemplateRef:
		result = e.templateRef(ctx, models.ToString(arg(args, 0)))
	case FuncSharedValue:
		result = e.sharedValue(ctx, arg(args, 0), models.ToString(arg(args, 1)), nil)
	case FuncPlural:
		result = textutil.Plural(models.ToNumber(arg(args, 0)), models.ToString(arg(args, 1)), models.ToString(arg(args, 2)))
	case FuncCount:
		n := models.ToNumber(arg(args, 0))
		if math.IsNaN(n) {
			logger.Error().Interface("value", arg(args, 0)).Msg("count argument is not a number")
			return ""
		}
		result = textutil.FormatCount(n)
	case FuncMeasure:
		n := models.ToNumber(arg(args, 0))
		if math.IsNaN(n) {
			logger.Error().Interface("value", arg(args, 0)).Msg("measure argument is not a number")
			return ""
		}
		result = textutil.FormatMeasurement(n, models.ToString(arg(args, 1)), textutil.MeasureOptions{})
	case FuncRange:
		start, end := models.ToNumber(arg(args, 0)), models.ToNumber(arg(args, 1))
		if math.IsNaN(start) || math.IsNaN(end) {
			logger.Error().Interface("start", arg(args, 0)).Interface("end", arg(args, 1)).Msg("range arguments are not numbers")
			return ""
		}
		result = textutil.FormatRange(start, end, models.ToString(arg(args, 2)))
	default:
		logger.Warn().Msg("unknown processor function")
		return ""
	}

	logger.Debug().Interface("args", args).Str("result", result).Msg("processed function call")
	return result
}

// resolveArgs resolves comma separated arguments. A field name yields the
// field's value (shared fields resolve through their category, numeric
// strings become numbers); otherwise numeric literals become numbers and
// anything else is a string with one leading and one trailing quote removed.
func (e *Engine) resolveArgs(ctx *Context, rawArgs string) []any {
	parts := strings.Split(rawArgs, ",")
	args := make([]any, len(parts))
	for i, part := range parts {
		args[i] = e.resolveArg(ctx, strings.TrimSpace(part))
	}
	return args
}

func (e *Engine) resolveArg(ctx *Context, token string) any {
	if value, ok := ctx.Values[token]; ok {
		variable := ctx.Variables[token]
		if category, ok := variable.SharedCategory(); ok {
			return e.sharedValue(ctx, value, category, variable.UseShared.Variables)
		}
		if s, ok := value.(string); ok && models.IsNumeric(s) {
			return models.ToNumber(s)
		}
		return value
	}
	if models.IsNumeric(token) {
		return models.ToNumber(token)
	}
	return stripQuotes(token)
}

func stripQuotes(s string) string {
	if s != "" && (s[0] == '\'' || s[0] == '"') {
		s = s[1:]
	}
	if s != "" && (s[len(s)-1] == '\'' || s[len(s)-1] == '"') {
		s = s[:len(s)-1]
	}
	return s
}

func arg(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}
	return nil
}
