package promptstore

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNoopSink_DoesNotPanic(t *testing.T) {
	var s Sink = NoopSink{}
	s.Emit("system_prompt", "hello", map[string]any{"caller": "test"})
}

func TestJSONLSink_AppendsOneLinePerEmit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.jsonl")

	sink, err := NewJSONLSink(path)
	require.NoError(t, err)

	sink.Emit("task_identifier_reason_json", "classify this", map[string]any{"caller": "task_identifier"})
	sink.Emit("data_extractor_reason_text", "extract rows", nil)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lines := 0
	for scanner.Scan() {
		require.NotEmpty(t, scanner.Text())
		lines++
	}
	require.Equal(t, 2, lines)
}
