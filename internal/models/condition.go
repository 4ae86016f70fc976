package models

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnknownOperator is returned for condition operators outside the set.
var ErrUnknownOperator = errors.New("unknown condition operator")

// ConditionOperator compares a field against a condition value.
type ConditionOperator string

const (
	OperatorEquals   ConditionOperator = "equals"
	OperatorIncludes ConditionOperator = "includes"
	OperatorGreater  ConditionOperator = "greater"
	OperatorLess     ConditionOperator = "less"
)

// Condition gates an allowed or follow-up action on a field value.
type Condition struct {
	Field    string            `yaml:"field" json:"field"`
	Operator ConditionOperator `yaml:"operator" json:"operator"`
	Value    any               `yaml:"value" json:"value"`
}

// Evaluate checks the condition against values.
func (c Condition) Evaluate(values Values) (bool, error) {
	fieldValue := values[c.Field]
	switch c.Operator {
	case OperatorEquals:
		return StrictEqual(fieldValue, c.Value), nil
	case OperatorIncludes:
		items, ok := AsSequence(fieldValue)
		if !ok {
			return false, nil
		}
		for _, item := range items {
			if StrictEqual(item, c.Value) || bothNaN(item, c.Value) {
				return true, nil
			}
		}
		return false, nil
	case OperatorGreater:
		return ToNumber(fieldValue) > ToNumber(c.Value), nil
	case OperatorLess:
		return ToNumber(fieldValue) < ToNumber(c.Value), nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownOperator, c.Operator)
	}
}

func bothNaN(a, b any) bool {
	x, ok := numberValue(a)
	if !ok {
		return false
	}
	y, ok := numberValue(b)
	return ok && math.IsNaN(x) && math.IsNaN(y)
}

// EvaluateConditions reports whether every condition holds. The first error
// (an unknown operator) makes the whole set false.
func EvaluateConditions(conditions []Condition, values Values) (bool, error) {
	for _, condition := range conditions {
		ok, err := condition.Evaluate(values)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
