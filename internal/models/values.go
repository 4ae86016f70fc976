package models

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Values is a loosely typed field environment: strings, numbers, booleans and
// sequences of those, keyed by field name.
type Values map[string]any

// Clone returns a shallow copy of the environment.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for key, value := range v {
		out[key] = value
	}
	return out
}

// Has reports whether key is present, even with a nil value.
func (v Values) Has(key string) bool {
	_, ok := v[key]
	return ok
}

// IsAbsent reports whether a value counts as not supplied: nil or "".
func IsAbsent(value any) bool {
	if value == nil {
		return true
	}
	s, ok := value.(string)
	return ok && s == ""
}

// AsSequence returns the elements of a slice value.
func AsSequence(value any) ([]any, bool) {
	switch v := value.(type) {
	case nil:
		return nil, false
	case []any:
		return v, true
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	case string, []byte:
		return nil, false
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// IsNumberValue reports whether the value is held as a Go numeric type.
func IsNumberValue(value any) bool {
	_, ok := numberValue(value)
	return ok
}

func numberValue(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

// ToNumber coerces a value to a number. Strings are trimmed and the empty
// string is 0; booleans are 1 or 0; sequences coerce their string form.
// Anything else is NaN.
func ToNumber(value any) float64 {
	if n, ok := numberValue(value); ok {
		return n
	}
	switch v := value.(type) {
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		return parseNumber(v)
	}
	if _, ok := AsSequence(value); ok {
		return parseNumber(ToString(value))
	}
	return math.NaN()
}

// IsNumeric reports whether the value coerces to a number.
func IsNumeric(value any) bool {
	return !math.IsNaN(ToNumber(value))
}

func parseNumber(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}

	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "0x") || strings.HasPrefix(lower, "0o") || strings.HasPrefix(lower, "0b") {
		n, err := strconv.ParseUint(lower[2:], map[byte]int{'x': 16, 'o': 8, 'b': 2}[lower[1]], 64)
		if err != nil {
			return math.NaN()
		}
		return float64(n)
	}

	for _, r := range s {
		if !strings.ContainsRune("0123456789.eE+-", r) {
			return math.NaN()
		}
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return n
}

// FormatNumber renders a number in its shortest decimal form; integers have
// no fractional part.
func FormatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	case n == 0:
		return "0"
	}

	abs := math.Abs(n)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(n, 'e', -1, 64)
		mantissa, exp, _ := strings.Cut(s, "e")
		sign := exp[0]
		digits := strings.TrimLeft(exp[1:], "0")
		if digits == "" {
			digits = "0"
		}
		return mantissa + "e" + string(sign) + digits
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// ToString renders a value the way narrative text shows it. nil is "";
// sequences are joined with ",".
func ToString(value any) string {
	if value == nil {
		return ""
	}
	if n, ok := numberValue(value); ok {
		return FormatNumber(n)
	}
	switch v := value.(type) {
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	}
	if items, ok := AsSequence(value); ok {
		return JoinValues(items, ",")
	}
	return fmt.Sprint(value)
}

// JoinValues renders each element and joins them with sep.
func JoinValues(items []any, sep string) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = ToString(item)
	}
	return strings.Join(parts, sep)
}

// StrictEqual compares two values by type and value. Numbers compare
// numerically regardless of Go type; two nils are equal; sequences and maps
// never compare equal.
func StrictEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if x, ok := numberValue(a); ok {
		y, ok := numberValue(b)
		return ok && x == y
	}
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	}
	return false
}

// TemplateRefName extracts name from a by-id template reference "{name}".
func TemplateRefName(value any) (string, bool) {
	s, ok := value.(string)
	if !ok || len(s) < 3 || s[0] != '{' || s[len(s)-1] != '}' {
		return "", false
	}
	name := s[1 : len(s)-1]
	if strings.Contains(name, "}") {
		return "", false
	}
	return name, true
}

// LooksLikeTemplateRef reports whether a string value is brace-wrapped.
func LooksLikeTemplateRef(value any) bool {
	s, ok := value.(string)
	return ok && strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")
}
