package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ramisra/agentflow/pkg/config"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	cfg := config.DatabaseConfig{
		Driver:   "sqlite",
		Database: ":memory:",
	}
	cfg.SetDefaults()

	s, err := Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_InitializesSchema(t *testing.T) {
	s := newTestStore(t)
	require.Equal(t, "sqlite", s.dialect)
}

func TestPlaceholders_SqliteUsesQuestionMarks(t *testing.T) {
	s := &Store{dialect: "sqlite"}
	require.Equal(t, "?, ?, ?", s.placeholders(3))
}

func TestPlaceholders_PostgresUsesDollarNumbers(t *testing.T) {
	s := &Store{dialect: "postgres"}
	require.Equal(t, "$1, $2, $3", s.placeholders(3))
}
