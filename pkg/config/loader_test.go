package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoader_File_Load(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "test.yaml")

	configYAML := `
version: "1.0"
name: "test-config"
agents:
  lead_extractor:
    agent_id: lead_extractor
    loadable_class_name: dataextractor
    supported_task_types: [extract-data-to-sheet]
llm:
  model: claude-3-5-sonnet-20241022
  api_key: test-key
database:
  driver: sqlite
  database: ":memory:"
embedder:
  provider: local
`
	require.NoError(t, os.WriteFile(configFile, []byte(configYAML), 0644))

	cfg, err := LoadConfig(configFile)
	require.NoError(t, err)
	require.Equal(t, "1.0", cfg.Version)
	require.Equal(t, "test-config", cfg.Name)
	require.Len(t, cfg.Agents, 1)
	require.Equal(t, "claude-3-5-sonnet-20241022", cfg.LLM.Model)
}

func TestLoader_File_NotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/file.yaml")
	require.Error(t, err)
}

func TestLoader_File_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
version: "1.0"
agents:
  - invalid: [unclosed
`
	require.NoError(t, os.WriteFile(configFile, []byte(invalidYAML), 0644))

	_, err := LoadConfig(configFile)
	require.Error(t, err)
}

func TestLoader_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_API_KEY", "secret-key-123")

	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "env-test.yaml")

	configYAML := `
version: "1.0"
llm:
  model: claude-3-5-sonnet-20241022
  api_key: ${TEST_API_KEY}
database:
  driver: sqlite
  database: ":memory:"
embedder:
  provider: local
`
	require.NoError(t, os.WriteFile(configFile, []byte(configYAML), 0644))

	cfg, err := LoadConfig(configFile)
	require.NoError(t, err)
	require.Equal(t, "secret-key-123", cfg.LLM.APIKey)
}

func TestLoader_ParseBytes_YAML(t *testing.T) {
	parsed, err := parseBytes([]byte("version: \"1.0\"\nname: \"test\"\n"))
	require.NoError(t, err)
	require.Equal(t, "1.0", parsed["version"])
}

func TestLoader_ParseBytes_JSON(t *testing.T) {
	parsed, err := parseBytes([]byte(`{"version": "1.0", "name": "test"}`))
	require.NoError(t, err)
	require.Equal(t, "1.0", parsed["version"])
}
