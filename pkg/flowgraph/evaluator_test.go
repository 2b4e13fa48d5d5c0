package flowgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate_Comparisons(t *testing.T) {
	tests := []struct {
		name      string
		condition string
		vars      Variables
		expected  bool
	}{
		{"greater than true", "amount > 1000", Variables{"amount": 1500.0}, true},
		{"greater than false", "amount > 1000", Variables{"amount": 500.0}, false},
		{"greater than equal boundary", "amount >= 1000", Variables{"amount": 1000.0}, true},
		{"less than", "amount < 100", Variables{"amount": 50}, true},
		{"less than equal", "amount <= 49", Variables{"amount": 50}, false},
		{"string equality single quotes", "status == 'approved'", Variables{"status": "approved"}, true},
		{"string equality double quotes", `status == "approved"`, Variables{"status": "approved"}, true},
		{"string inequality", "status != 'approved'", Variables{"status": "pending"}, true},
		{"boolean literal", "urgent == true", Variables{"urgent": true}, true},
		{"boolean literal false", "urgent == false", Variables{"urgent": true}, false},
		{"numeric string compares as number", "amount == 1500", Variables{"amount": "1500"}, true},
		{"int variable", "count > 2", Variables{"count": 3}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Evaluate(tc.condition, tc.vars))
		})
	}
}

func TestEvaluate_MissingVariableFallsBackToLiteral(t *testing.T) {
	// Left side not in the bag: the literal text is used as the value.
	assert.True(t, Evaluate("approved == 'approved'", Variables{}))
	// Literal text is not numeric, ordering yields NaN which is never true.
	assert.False(t, Evaluate("amount > 1000", Variables{}))
}

func TestEvaluate_FailOpen(t *testing.T) {
	tests := []struct {
		name      string
		condition string
	}{
		{"no operator", "totally not an expression"},
		{"empty", ""},
		{"two operators", "a == b == c"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, Evaluate(tc.condition, Variables{}), "malformed conditions must never block the default path")
		})
	}
}

func TestEvaluate_NonNumericOrderingIsNeverTrue(t *testing.T) {
	// NaN on either side of an ordering operator is false, both directions.
	assert.False(t, Evaluate("status > 10", Variables{"status": "approved"}))
	assert.False(t, Evaluate("status < 10", Variables{"status": "approved"}))
	assert.False(t, Evaluate("status >= 10", Variables{"status": "approved"}))
	assert.False(t, Evaluate("status <= 10", Variables{"status": "approved"}))
}

func TestEvaluate_OperatorPriority(t *testing.T) {
	// ">=" must not be mis-split as ">" followed by "=1000".
	assert.True(t, Evaluate("amount >= 1000", Variables{"amount": 1000}))
	assert.False(t, Evaluate("amount >= 1000", Variables{"amount": 999}))
}

func TestEvaluate_NilVariableValueUsesLiteral(t *testing.T) {
	// A present-but-nil variable behaves like a missing one.
	assert.True(t, Evaluate("status == 'status'", Variables{"status": nil}))
}

func TestIsComparison(t *testing.T) {
	assert.True(t, IsComparison("amount > 1000"))
	assert.True(t, IsComparison("status == 'ok'"))
	assert.False(t, IsComparison("just a label"))
	assert.False(t, IsComparison("a == b == c"))
}
