package toolsurface

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriterServer_WriteRows(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriterServer(dir)
	require.NoError(t, err)

	out, err := w.Call(context.Background(), "write_rows", map[string]any{
		"columns":   []any{"name", "price"},
		"rows":      []any{map[string]any{"name": "widget", "price": 9.99}, map[string]any{"name": "gadget", "price": 19.99}},
		"file_name": "prices.xlsx",
	})
	require.NoError(t, err)

	path, ok := out["file_path"].(string)
	require.True(t, ok)
	require.Equal(t, filepath.Join(dir, "prices.xlsx"), path)

	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestWriterServer_MissingRows(t *testing.T) {
	w, err := NewWriterServer(t.TempDir())
	require.NoError(t, err)
	_, err = w.Call(context.Background(), "write_rows", map[string]any{})
	require.Error(t, err)
}

func TestWriterServer_UnknownTool(t *testing.T) {
	w, err := NewWriterServer(t.TempDir())
	require.NoError(t, err)
	_, err = w.Call(context.Background(), "delete_rows", map[string]any{})
	require.Error(t, err)
}
