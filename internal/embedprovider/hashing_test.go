package embedprovider_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recut-dev/recut/internal/embedprovider"
)

func TestNewHashingEmbedder_NonPositiveDimsDefaults(t *testing.T) {
	t.Parallel()

	e := embedprovider.NewHashingEmbedder(0)
	assert.Equal(t, 256, e.Dimensions())

	e = embedprovider.NewHashingEmbedder(-5)
	assert.Equal(t, 256, e.Dimensions())
}

func TestHashingEmbedder_Embed_DeterministicAcrossCalls(t *testing.T) {
	t.Parallel()

	e := embedprovider.NewHashingEmbedder(64)

	first, err := e.Embed(context.Background(), []string{"rename the parser module"})
	require.NoError(t, err)

	second, err := e.Embed(context.Background(), []string{"rename the parser module"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestHashingEmbedder_Embed_OneVectorPerInputInOrder(t *testing.T) {
	t.Parallel()

	e := embedprovider.NewHashingEmbedder(32)

	vectors, err := e.Embed(context.Background(), []string{"alpha", "beta", "gamma"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)

	for _, v := range vectors {
		assert.Len(t, v, 32)
	}
}

func TestHashingEmbedder_Embed_L2Normalized(t *testing.T) {
	t.Parallel()

	e := embedprovider.NewHashingEmbedder(16)

	vectors, err := e.Embed(context.Background(), []string{"fix fix fix the bug in the handler"})
	require.NoError(t, err)
	require.Len(t, vectors, 1)

	var sumSquares float64
	for _, v := range vectors[0] {
		sumSquares += v * v
	}

	assert.InDelta(t, 1.0, math.Sqrt(sumSquares), 1e-9)
}

func TestHashingEmbedder_Embed_EmptyStringYieldsZeroVector(t *testing.T) {
	t.Parallel()

	e := embedprovider.NewHashingEmbedder(8)

	vectors, err := e.Embed(context.Background(), []string{""})
	require.NoError(t, err)
	require.Len(t, vectors, 1)

	for _, v := range vectors[0] {
		assert.Zero(t, v)
	}
}

func TestHashingEmbedder_Embed_CaseInsensitive(t *testing.T) {
	t.Parallel()

	e := embedprovider.NewHashingEmbedder(64)

	lower, err := e.Embed(context.Background(), []string{"Refactor The Parser"})
	require.NoError(t, err)

	upper, err := e.Embed(context.Background(), []string{"refactor the parser"})
	require.NoError(t, err)

	assert.Equal(t, lower, upper)
}
