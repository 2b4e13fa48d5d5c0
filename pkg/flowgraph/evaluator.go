package flowgraph

import (
	"math"
	"strconv"
	"strings"
)

// conditionOperators in match priority order. Multi-character operators come
// first so ">=" is never mis-split as ">".
var conditionOperators = []string{">=", "<=", "!=", "==", ">", "<"}

// Evaluate evaluates a restricted comparison expression of the form
// "<left> <op> <right>" against the variable bag.
//
// The left side is looked up in vars, falling back to its literal text when
// absent. The right side is coerced as number, then quoted string, then
// boolean, then raw string. Ordering operators compare numerically; operands
// that are not numbers become NaN and the comparison is false. Equality is
// loose across the coerced types.
//
// An expression that cannot be split by any recognized operator evaluates to
// true: a malformed condition must never block the default path.
func Evaluate(condition string, vars Variables) bool {
	var operator string
	var parts []string

	for _, op := range conditionOperators {
		if strings.Contains(condition, op) {
			operator = op
			parts = strings.Split(condition, op)
			break
		}
	}

	if operator == "" || len(parts) != 2 {
		// Not a recognized comparison, fail open.
		return true
	}

	left := strings.TrimSpace(parts[0])
	right := strings.TrimSpace(parts[1])

	var leftValue interface{} = left
	if v, ok := vars[left]; ok && v != nil {
		leftValue = v
	}
	rightValue := coerceLiteral(right)

	switch operator {
	case ">":
		return toNumber(leftValue) > toNumber(rightValue)
	case "<":
		return toNumber(leftValue) < toNumber(rightValue)
	case ">=":
		return toNumber(leftValue) >= toNumber(rightValue)
	case "<=":
		return toNumber(leftValue) <= toNumber(rightValue)
	case "==":
		return looseEqual(leftValue, rightValue)
	case "!=":
		return !looseEqual(leftValue, rightValue)
	}
	return true
}

// IsComparison reports whether the expression splits cleanly on a recognized
// operator. Expressions that do not are legal but always evaluate to true;
// the publish-time lint uses this to warn designers about them.
func IsComparison(condition string) bool {
	for _, op := range conditionOperators {
		if strings.Contains(condition, op) {
			return len(strings.Split(condition, op)) == 2
		}
	}
	return false
}

// coerceLiteral interprets the right-hand text: numeric literal, quoted
// string, boolean literal, or raw string token, in that priority.
func coerceLiteral(raw string) interface{} {
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n
	}
	if len(raw) >= 2 {
		if (strings.HasPrefix(raw, `"`) && strings.HasSuffix(raw, `"`)) ||
			(strings.HasPrefix(raw, `'`) && strings.HasSuffix(raw, `'`)) {
			return raw[1 : len(raw)-1]
		}
	}
	if raw == "true" {
		return true
	}
	if raw == "false" {
		return false
	}
	return raw
}

// toNumber coerces a value to float64, yielding NaN for anything that is not
// numeric. NaN never satisfies an ordering comparison, which is the intended
// behavior for non-numeric operands.
func toNumber(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case bool:
		if val {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0
		}
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return n
		}
	}
	return math.NaN()
}

// looseEqual compares two coerced values: same-kind values compare directly,
// mixed kinds fall back to numeric comparison where NaN on either side means
// not equal.
func looseEqual(a, b interface{}) bool {
	as, aIsStr := a.(string)
	bs, bIsStr := b.(string)
	if aIsStr && bIsStr {
		return as == bs
	}
	ab, aIsBool := a.(bool)
	bb, bIsBool := b.(bool)
	if aIsBool && bIsBool {
		return ab == bb
	}

	an := toNumber(a)
	bn := toNumber(b)
	if math.IsNaN(an) || math.IsNaN(bn) {
		return false
	}
	return an == bn
}
