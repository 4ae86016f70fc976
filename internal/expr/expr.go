// Package expr evaluates the single-comparison condition language used by
// narrative ternaries and [if] blocks.
//
// The grammar is deliberately small:
//
//	IDENT OP (NUMBER | IDENT)
//
// where IDENT is a run of [A-Za-z0-9_] and OP is one of > < >= <= === !==.
// There are no boolean connectives, no negation and no bare-field truthiness.
// Anything else is malformed and evaluates to false.
package expr

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"unicode"

	"github.com/opencode-ai/narrator/internal/models"
	"github.com/rs/zerolog"
)

var (
	// ErrMalformed is returned when text does not match the grammar.
	ErrMalformed = errors.New("invalid expression format")
	// ErrUnsupportedOperator is returned for operator runs such as "==".
	ErrUnsupportedOperator = errors.New("unsupported operator")
)

// Operator is a comparison operator.
type Operator string

const (
	OpGreater      Operator = ">"
	OpLess         Operator = "<"
	OpGreaterEqual Operator = ">="
	OpLessEqual    Operator = "<="
	OpStrictEqual  Operator = "==="
	OpStrictNotEq  Operator = "!=="
)

func (o Operator) valid() bool {
	switch o {
	case OpGreater, OpLess, OpGreaterEqual, OpLessEqual, OpStrictEqual, OpStrictNotEq:
		return true
	default:
		return false
	}
}

// Comparison is a parsed expression.
type Comparison struct {
	Left  string
	Op    Operator
	Right string
	// RightLiteral is set when Right is all digits.
	RightLiteral bool
	RightNumber  float64
}

// Parse tokenizes text into a Comparison.
func Parse(text string) (Comparison, error) {
	s := []rune(text)
	i := skipSpace(s, 0)

	left, i := scanWhile(s, i, isWordRune)
	if left == "" {
		return Comparison{}, fmt.Errorf("%w: %q", ErrMalformed, text)
	}
	i = skipSpace(s, i)

	op, i := scanWhile(s, i, isOperatorRune)
	if op == "" {
		return Comparison{}, fmt.Errorf("%w: %q", ErrMalformed, text)
	}
	i = skipSpace(s, i)

	right, i := scanWhile(s, i, isWordRune)
	if right == "" {
		return Comparison{}, fmt.Errorf("%w: %q", ErrMalformed, text)
	}
	if i = skipSpace(s, i); i != len(s) {
		return Comparison{}, fmt.Errorf("%w: %q", ErrMalformed, text)
	}

	cmp := Comparison{Left: left, Op: Operator(op), Right: right}
	if !cmp.Op.valid() {
		return Comparison{}, fmt.Errorf("%w: %s", ErrUnsupportedOperator, op)
	}
	if isDigits(right) {
		n, err := strconv.ParseFloat(right, 64)
		if err != nil {
			return Comparison{}, fmt.Errorf("%w: %q", ErrMalformed, text)
		}
		cmp.RightLiteral = true
		cmp.RightNumber = n
	}
	return cmp, nil
}

// Eval applies the comparison to env.
func (c Comparison) Eval(env models.Values) bool {
	left := env[c.Left]
	var right any
	if c.RightLiteral {
		right = c.RightNumber
	} else {
		right = env[c.Right]
	}

	switch c.Op {
	case OpStrictEqual:
		return models.StrictEqual(left, right)
	case OpStrictNotEq:
		return !models.StrictEqual(left, right)
	}

	left, right = primitive(left), primitive(right)
	ls, lok := left.(string)
	rs, rok := right.(string)
	if lok && rok {
		switch c.Op {
		case OpGreater:
			return ls > rs
		case OpLess:
			return ls < rs
		case OpGreaterEqual:
			return ls >= rs
		default:
			return ls <= rs
		}
	}

	ln, rn := models.ToNumber(left), models.ToNumber(right)
	if math.IsNaN(ln) || math.IsNaN(rn) {
		return false
	}
	switch c.Op {
	case OpGreater:
		return ln > rn
	case OpLess:
		return ln < rn
	case OpGreaterEqual:
		return ln >= rn
	default:
		return ln <= rn
	}
}

// Evaluate parses and evaluates text against env. Failures are logged and
// evaluate to false.
func Evaluate(text string, env models.Values, logger zerolog.Logger) (result bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Str("expression", text).Interface("panic", r).Msg("error evaluating expression")
			result = false
		}
	}()

	cmp, err := Parse(text)
	if err != nil {
		logger.Error().Err(err).Str("expression", text).Msg("expression rejected")
		return false
	}
	return cmp.Eval(env)
}

// Supported reports whether text is inside the grammar.
func Supported(text string) bool {
	_, err := Parse(text)
	return err == nil
}

func primitive(value any) any {
	if _, ok := models.AsSequence(value); ok {
		return models.ToString(value)
	}
	return value
}

func skipSpace(s []rune, i int) int {
	for i < len(s) && unicode.IsSpace(s[i]) {
		i++
	}
	return i
}

func scanWhile(s []rune, i int, pred func(rune) bool) (string, int) {
	start := i
	for i < len(s) && pred(s[i]) {
		i++
	}
	return string(s[start:i]), i
}

func isWordRune(r rune) bool {
	return r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isOperatorRune(r rune) bool {
	return r == '>' || r == '<' || r == '=' || r == '!'
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
