package cluster_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recut-dev/recut/internal/cluster"
)

func TestSingleLinkage_EmptyInput(t *testing.T) {
	t.Parallel()

	c := cluster.NewSingleLinkage(0.5)
	labels, err := c.Cluster(nil)
	require.NoError(t, err)
	assert.Nil(t, labels)
}

func TestSingleLinkage_TwoClosePointsFormOneCluster(t *testing.T) {
	t.Parallel()

	c := cluster.NewSingleLinkage(0.1)
	vectors := [][]float64{{0, 0}, {0.05, 0}}

	labels, err := c.Cluster(vectors)
	require.NoError(t, err)
	require.Len(t, labels, 2)
	assert.Equal(t, labels[0], labels[1])
	assert.NotEqual(t, -1, labels[0])
}

func TestSingleLinkage_FarPointsAreNoiseBelowMinSize(t *testing.T) {
	t.Parallel()

	c := cluster.NewSingleLinkage(0.1)
	vectors := [][]float64{{0, 0}, {10, 10}}

	labels, err := c.Cluster(vectors)
	require.NoError(t, err)
	require.Len(t, labels, 2)
	assert.Equal(t, -1, labels[0])
	assert.Equal(t, -1, labels[1])
}

func TestSingleLinkage_ChainedMerges(t *testing.T) {
	t.Parallel()

	c := cluster.NewSingleLinkage(1.1)
	vectors := [][]float64{{0, 0}, {1, 0}, {2, 0}, {100, 100}}

	labels, err := c.Cluster(vectors)
	require.NoError(t, err)
	require.Len(t, labels, 4)
	assert.Equal(t, labels[0], labels[1])
	assert.Equal(t, labels[1], labels[2])
	assert.Equal(t, -1, labels[3])
}

func TestNewSingleLinkage_NonPositiveThresholdDefaults(t *testing.T) {
	t.Parallel()

	c := cluster.NewSingleLinkage(0)
	assert.InDelta(t, 0.5, c.Threshold, 0.0001)

	c = cluster.NewSingleLinkage(-1)
	assert.InDelta(t, 0.5, c.Threshold, 0.0001)
}

func TestNewSingleLinkage_MinClusterSizeDefault(t *testing.T) {
	t.Parallel()

	c := cluster.NewSingleLinkage(0.5)
	assert.Equal(t, 2, c.MinClusterSize)
}
