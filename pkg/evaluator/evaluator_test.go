package evaluator

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvaluate_AllFieldsPresent(t *testing.T) {
	e := New(nil)
	result := e.Evaluate(map[string]any{"name": "widget", "price": "9.99"}, &Expected{
		RequiredFields: []string{"name", "price"},
		FieldTypes:     map[string]string{"name": "string", "price": "string"},
	})

	require.True(t, result.Passed)
	require.Equal(t, 1.0, result.Score)
	require.Empty(t, result.Errors)
}

func TestEvaluate_MissingRequiredField(t *testing.T) {
	e := New(nil)
	result := e.Evaluate(map[string]any{"name": "widget"}, &Expected{
		RequiredFields: []string{"name", "price"},
	})

	require.False(t, result.Passed)
	require.Less(t, result.Score, 1.0)
	require.Contains(t, result.Errors[0], "price")
}

func TestEvaluate_WrongFieldType(t *testing.T) {
	e := New(nil)
	result := e.Evaluate(map[string]any{"price": 9.99}, &Expected{
		FieldTypes: map[string]string{"price": "string"},
	})

	require.True(t, result.Passed)
	require.NotEmpty(t, result.Warnings)
}

func TestEvaluate_NilResult(t *testing.T) {
	e := New(nil)
	result := e.Evaluate(nil, &Expected{RequiredFields: []string{"x"}})
	require.False(t, result.Passed)
	require.Equal(t, 0.0, result.Score)
}

func TestEvaluate_CustomRule(t *testing.T) {
	e := New(nil)
	e.AddRule("has_rows", func(result map[string]any) (bool, error) {
		_, ok := result["rows"]
		return ok, nil
	})

	result := e.Evaluate(map[string]any{}, nil)
	require.False(t, result.Passed)
	require.Contains(t, result.Errors[0], "has_rows")
}

func TestEvaluate_CustomRuleError(t *testing.T) {
	e := New(nil)
	e.AddRule("explodes", func(result map[string]any) (bool, error) {
		return false, fmt.Errorf("boom")
	})

	result := e.Evaluate(map[string]any{}, nil)
	require.True(t, result.Passed)
	require.Contains(t, result.Warnings[0], "boom")
}
