package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUpsertIntegrationCredential_IsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertIntegrationCredential(ctx, "user-1", "sheets", "secret-v1", map[string]any{"scope": "read"}))
	require.NoError(t, s.UpsertIntegrationCredential(ctx, "user-1", "sheets", "secret-v2", map[string]any{"scope": "write"}))

	got, err := s.GetIntegrationCredential(ctx, "user-1", "sheets")
	require.NoError(t, err)
	require.Equal(t, "secret-v2", got.Secret)
	require.Equal(t, "write", got.Metadata["scope"])
}

func TestGetIntegrationCredential_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetIntegrationCredential(context.Background(), "user-1", "sheets")
	require.Error(t, err)
}

func TestDeleteIntegrationCredential(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertIntegrationCredential(ctx, "user-1", "notes", "secret", nil))
	require.NoError(t, s.DeleteIntegrationCredential(ctx, "user-1", "notes"))

	_, err := s.GetIntegrationCredential(ctx, "user-1", "notes")
	require.Error(t, err)
}
