// Package validation checks field values against a template's variable
// schema using the same shared vocabulary the narrative engine renders with.
package validation

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/opencode-ai/narrator/internal/models"
	"github.com/opencode-ai/narrator/internal/narrative"
	"github.com/rs/zerolog"
)

// Field error messages.
const (
	MsgRequired              = "This field is required"
	MsgNotNumber             = "Must be a number"
	MsgNotText               = "Must be text"
	MsgInvalidFormat         = "Invalid format"
	MsgNotBoolean            = "Must be true or false"
	MsgInvalidSharedTemplate = "Invalid shared template"
	MsgMultipleNotAllowed    = "Multiple values not allowed"
	MsgInvalidOptions        = "Invalid options selected"
	MsgInvalidOption         = "Invalid option selected"
)

// Result is the outcome of validating one value environment.
type Result struct {
	IsValid bool              `json:"isValid"`
	Errors  map[string]string `json:"errors"`
}

// Validator validates value environments.
type Validator struct {
	logger zerolog.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger sets the validator logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(v *Validator) {
		v.logger = logger
	}
}

// New creates a Validator.
func New(opts ...Option) *Validator {
	v := &Validator{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks values against variables with a silent logger.
func Validate(variables map[string]models.Variable, values models.Values, pool *narrative.SharedPool) Result {
	return New().Validate(variables, values, pool)
}

// Validate checks every declared variable. It never panics and never
// returns an error; problems are reported per field.
func (v *Validator) Validate(variables map[string]models.Variable, values models.Values, pool *narrative.SharedPool) Result {
	errs := make(map[string]string)

	keys := make([]string, 0, len(variables))
	for key := range variables {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if msg := v.validateField(key, variables[key], values[key], pool); msg != "" {
			errs[key] = msg
		}
	}

	result := Result{IsValid: len(errs) == 0, Errors: errs}
	if !result.IsValid {
		v.logger.Warn().Interface("errors", errs).Msg("template validation failed")
	} else {
		v.logger.Debug().Int("fields", len(keys)).Msg("template validation successful")
	}
	return result
}

func (v *Validator) validateField(key string, variable models.Variable, value any, pool *narrative.SharedPool) (msg string) {
	logger := v.logger.With().Str("field", key).Logger()
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("error validating field")
			msg = ""
		}
	}()

	if models.IsAbsent(value) {
		if variable.Required {
			logger.Warn().Msg("required field missing")
			return MsgRequired
		}
		return ""
	}

	items, isSequence := models.AsSequence(value)
	if isSequence && !variable.AllowMultiple {
		logger.Warn().Msg("multiple values not allowed")
		return MsgMultipleNotAllowed
	}

	switch variable.Type {
	case models.VariableTypeNumber:
		return eachValue(value, items, isSequence, func(item any) string {
			return checkNumber(logger, item, variable.Validation)
		})
	case models.VariableTypeText:
		return eachValue(value, items, isSequence, func(item any) string {
			return checkText(logger, item, variable.Validation)
		})
	case models.VariableTypeBoolean:
		return eachValue(value, items, isSequence, func(item any) string {
			if _, ok := item.(bool); !ok {
				logger.Warn().Interface("value", item).Msg("invalid boolean value")
				return MsgNotBoolean
			}
			return ""
		})
	case models.VariableTypeEnum, models.VariableTypeMixed:
		if variable.UseShared != nil {
			return checkShared(logger, variable, value, items, isSequence, pool)
		}
		if variable.Options != nil {
			return checkOptions(logger, variable, value, items, isSequence)
		}
	}
	return ""
}

// eachValue applies check to a scalar, or to every element of a sequence
// reporting the first failure.
func eachValue(value any, items []any, isSequence bool, check func(any) string) string {
	if !isSequence {
		return check(value)
	}
	for _, item := range items {
		if msg := check(item); msg != "" {
			return msg
		}
	}
	return ""
}

func checkNumber(logger zerolog.Logger, value any, rules *models.Validation) string {
	if !models.IsNumberValue(value) && !models.IsNumeric(value) {
		logger.Warn().Interface("value", value).Msg("invalid number value")
		return MsgNotNumber
	}
	return checkBounds(logger, models.ToNumber(value), rules)
}

// checkBounds applies min then max; the last failing rule wins.
func checkBounds(logger zerolog.Logger, n float64, rules *models.Validation) string {
	if rules == nil {
		return ""
	}
	msg := ""
	if rules.Min != nil && n < *rules.Min {
		logger.Warn().Float64("value", n).Float64("min", *rules.Min).Msg("value below minimum")
		msg = fmt.Sprintf("Must be at least %s", models.FormatNumber(*rules.Min))
	}
	if rules.Max != nil && n > *rules.Max {
		logger.Warn().Float64("value", n).Float64("max", *rules.Max).Msg("value above maximum")
		msg = fmt.Sprintf("Must be at most %s", models.FormatNumber(*rules.Max))
	}
	return msg
}

func outOfBounds(n float64, rules *models.Validation) bool {
	if rules == nil {
		return false
	}
	return (rules.Min != nil && n < *rules.Min) || (rules.Max != nil && n > *rules.Max)
}

func checkText(logger zerolog.Logger, value any, rules *models.Validation) string {
	s, ok := value.(string)
	if !ok {
		logger.Warn().Interface("value", value).Msg("invalid text value")
		return MsgNotText
	}
	if rules == nil || rules.Pattern == "" {
		return ""
	}
	re, err := regexp.Compile(rules.Pattern)
	if err != nil {
		logger.Error().Err(err).Str("pattern", rules.Pattern).Msg("invalid validation pattern")
		return MsgInvalidFormat
	}
	if !re.MatchString(s) {
		logger.Warn().Str("value", s).Str("pattern", rules.Pattern).Msg("value does not match pattern")
		return MsgInvalidFormat
	}
	return ""
}

func checkShared(logger zerolog.Logger, variable models.Variable, value any, items []any, isSequence bool, pool *narrative.SharedPool) string {
	shared, ok := pool.ByCategory(variable.UseShared.Type)
	if !ok {
		logger.Warn().Str("category", variable.UseShared.Type).Msg("shared template not found")
		return MsgInvalidSharedTemplate
	}
	direct := variable.Type == models.VariableTypeMixed && variable.UseShared.AllowDirect

	if !isSequence {
		if direct && models.IsNumeric(value) {
			return checkBounds(logger, models.ToNumber(value), variable.Validation)
		}
		option, ok := shared.FindOption(value)
		if !ok {
			logger.Warn().Interface("value", value).Msg("invalid shared enum value")
			return MsgInvalidOption
		}
		return checkReferences(logger, shared, option, pool)
	}

	var invalid []any
	for _, item := range items {
		if direct && models.IsNumeric(item) {
			if outOfBounds(models.ToNumber(item), variable.Validation) {
				invalid = append(invalid, item)
			}
			continue
		}
		if _, ok := shared.FindOption(item); !ok {
			invalid = append(invalid, item)
		}
	}
	if len(invalid) > 0 {
		logger.Warn().Interface("invalid", invalid).Msg("invalid shared enum values")
		return MsgInvalidOptions
	}
	return ""
}

// checkReferences validates an option's references one level deep. A
// referenced category missing from the pool is not an error here.
func checkReferences(logger zerolog.Logger, shared *models.Template, option *models.Option, pool *narrative.SharedPool) string {
	if len(option.References) == 0 || shared.Variables == nil {
		return ""
	}
	keys := make([]string, 0, len(option.References))
	for key := range option.References {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	msg := ""
	for _, key := range keys {
		category, ok := shared.Variables[key].SharedCategory()
		if !ok {
			continue
		}
		refTemplate, ok := pool.ByCategory(category)
		if !ok {
			continue
		}
		refValue := option.References[key]
		if _, ok := refTemplate.FindOption(refValue); !ok {
			logger.Warn().Str("reference", key).Interface("value", refValue).Msg("invalid referenced value")
			msg = fmt.Sprintf("Invalid referenced %s value", key)
		}
	}
	return msg
}

func checkOptions(logger zerolog.Logger, variable models.Variable, value any, items []any, isSequence bool) string {
	if !isSequence {
		if !variable.HasOption(value) {
			logger.Warn().Interface("value", value).Strs("options", variable.Options).Msg("invalid enum value")
			return MsgInvalidOption
		}
		return ""
	}
	for _, item := range items {
		if !variable.HasOption(item) {
			logger.Warn().Interface("value", item).Strs("options", variable.Options).Msg("invalid enum values")
			return MsgInvalidOptions
		}
	}
	return ""
}
