package reasoner

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractJSONObject_PlainObject(t *testing.T) {
	value, ok := ExtractJSONObject(`here you go: {"task_type": "extract-data-to-sheet", "confidence": 0.9} thanks`)
	require.True(t, ok)
	require.Equal(t, "extract-data-to-sheet", value["task_type"])
}

func TestExtractJSONObject_NestedBraces(t *testing.T) {
	value, ok := ExtractJSONObject(`{"input": {"columns": ["name", "designation"]}, "output": {}}`)
	require.True(t, ok)
	require.Contains(t, value, "input")
}

func TestExtractJSONObject_BraceInsideString(t *testing.T) {
	value, ok := ExtractJSONObject(`{"reasoning": "looks like a { or } but not json", "confidence": 0.5}`)
	require.True(t, ok)
	require.Equal(t, "looks like a { or } but not json", value["reasoning"])
}

func TestExtractJSONObject_NoObject(t *testing.T) {
	_, ok := ExtractJSONObject("no json here at all")
	require.False(t, ok)
}

func TestExtractJSONObject_MalformedNeverFabricates(t *testing.T) {
	_, ok := ExtractJSONObject(`{"task_type": "extract-data-to-sheet", }`)
	require.False(t, ok)
}

func TestExtractJSONArray_RowObjects(t *testing.T) {
	rows, ok := ExtractJSONArray(`Here are the rows:\n[{"name": "A", "price": "100"}, {"name": "B", "price": "200"}]`)
	require.True(t, ok)
	require.Len(t, rows, 2)
	require.Equal(t, "A", rows[0]["name"])
}

func TestExtractJSONArray_NoArray(t *testing.T) {
	_, ok := ExtractJSONArray("just text")
	require.False(t, ok)
}
