package embedderprovider

import (
	"context"
	"testing"

	"github.com/ramisra/agentflow/pkg/config"
	"github.com/stretchr/testify/require"
)

func TestLocalEmbedder_EmptyInputYieldsNil(t *testing.T) {
	e := NewLocalEmbedder(config.EmbedderConfig{Dimension: 64})

	v, err := e.Embed(context.Background(), "   ")
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestLocalEmbedder_Deterministic(t *testing.T) {
	e := NewLocalEmbedder(config.EmbedderConfig{Dimension: 64})

	v1, err := e.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	v2, err := e.Embed(context.Background(), "hello world")
	require.NoError(t, err)

	require.Equal(t, v1, v2)
	require.Len(t, v1, 64)
}

func TestLocalEmbedder_EmbedBatch(t *testing.T) {
	e := NewLocalEmbedder(config.EmbedderConfig{Dimension: 32})

	vectors, err := e.EmbedBatch(context.Background(), []string{"a b", "", "c d e"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	require.NotNil(t, vectors[0])
	require.Nil(t, vectors[1])
	require.NotNil(t, vectors[2])
}

func TestCosineSimilarity(t *testing.T) {
	require.InDelta(t, 1.0, CosineSimilarity([]float32{1, 0}, []float32{1, 0}), 1e-9)
	require.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	require.Equal(t, 0.0, CosineSimilarity(nil, []float32{1}))
	require.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(config.EmbedderConfig{Provider: "bogus"})
	require.Error(t, err)
}
