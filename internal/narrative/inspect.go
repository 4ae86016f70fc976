package narrative

import "strings"

// ConstructKind names a mini-language construct found in template text.
type ConstructKind string

const (
	KindTernary     ConstructKind = "ternary"
	KindFunction    ConstructKind = "function"
	KindPlaceholder ConstructKind = "placeholder"
)

// Construct is one brace construct found by Inspect.
type Construct struct {
	Kind ConstructKind
	// Text is the construct without its braces.
	Text string

	Condition string
	WhenTrue  string
	WhenFalse string

	Function string
	Args     string

	Key string
}

// Inspect lists the brace constructs of a raw template segment as each
// rendering pass would see them before any substitution. It does not
// evaluate anything.
func Inspect(segment string) []Construct {
	var out []Construct
	replaceBraced(segment, func(inner string) (string, bool) {
		cond, whenTrue, whenFalse, ok := splitTernary(inner)
		if ok {
			out = append(out, Construct{Kind: KindTernary, Text: inner, Condition: cond, WhenTrue: whenTrue, WhenFalse: whenFalse})
		}
		return "", ok
	})
	replaceBraced(segment, func(inner string) (string, bool) {
		name, args, ok := splitCall(inner)
		if ok {
			out = append(out, Construct{Kind: KindFunction, Text: inner, Function: name, Args: args})
		}
		return "", ok
	})
	replaceBraced(segment, func(inner string) (string, bool) {
		if inner == "" || strings.IndexByte(inner, ':') >= 0 {
			return "", false
		}
		if _, _, _, ternary := splitTernary(inner); ternary {
			return "", false
		}
		out = append(out, Construct{Kind: KindPlaceholder, Text: inner, Key: inner})
		return "", true
	})
	return out
}

// IsFunction reports whether name is a callable function.
func IsFunction(name string) bool {
	for _, fn := range Functions() {
		if fn == name {
			return true
		}
	}
	return false
}
