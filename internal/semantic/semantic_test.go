package semantic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recut-dev/recut/internal/change"
	"github.com/recut-dev/recut/internal/semantic"
)

func addChunk(id int, path string, line int) change.DiffChunk {
	return change.DiffChunk{
		ID: id, OldPath: path, NewPath: path, OldStart: line,
		Lines: []change.LineChange{{Kind: change.Addition, Content: []byte("x"), NewLine: line}},
	}
}

func TestGroup_NoContextManagerRoutesEveryContainerToFallback(t *testing.T) {
	t.Parallel()

	chunks := []change.DiffChunk{addChunk(1, "a.go", 1), addChunk(2, "b.go", 1)}

	out := semantic.Group(chunks, nil, semantic.AllTogether)
	require.Len(t, out, 1)
	assert.Len(t, out[0].Leaves(), 2)
}

func TestGroup_AllAloneFallbackKeepsOneContainerPerChunk(t *testing.T) {
	t.Parallel()

	chunks := []change.DiffChunk{addChunk(1, "a.go", 1), addChunk(2, "b.go", 1)}

	out := semantic.Group(chunks, nil, semantic.AllAlone)
	assert.Len(t, out, 2)
}

func TestGroup_ByFilePathFallbackBucketsPerPath(t *testing.T) {
	t.Parallel()

	chunks := []change.DiffChunk{
		addChunk(1, "a.go", 1),
		addChunk(2, "a.go", 5),
		addChunk(3, "b.go", 1),
	}

	out := semantic.Group(chunks, nil, semantic.ByFilePath)
	require.Len(t, out, 2)
}

func TestGroup_ByFileExtensionFallbackBucketsByExtension(t *testing.T) {
	t.Parallel()

	chunks := []change.DiffChunk{
		addChunk(1, "a.go", 1),
		addChunk(2, "b.go", 1),
		addChunk(3, "c.py", 1),
	}

	out := semantic.Group(chunks, nil, semantic.ByFileExtension)
	require.Len(t, out, 2)
}

func TestGroup_OpaqueChunkAlwaysBecomesItsOwnContainer(t *testing.T) {
	t.Parallel()

	chunks := []change.DiffChunk{
		addChunk(1, "a.go", 1),
		{ID: 2, OldPath: "img.png", NewPath: "img.png", Opaque: true},
	}

	out := semantic.Group(chunks, nil, semantic.AllAlone)
	require.Len(t, out, 2)

	var sawOpaque bool

	for _, c := range out {
		for _, leaf := range c.Leaves() {
			if leaf.Opaque {
				sawOpaque = true
			}
		}
	}

	assert.True(t, sawOpaque)
}

func TestGroup_ChunksWithinOneFileSortedByOldStart(t *testing.T) {
	t.Parallel()

	chunks := []change.DiffChunk{addChunk(1, "a.go", 10), addChunk(2, "a.go", 1)}

	out := semantic.Group(chunks, nil, semantic.AllTogether)
	require.Len(t, out, 1)

	leaves := out[0].Leaves()
	require.Len(t, leaves, 2)
	assert.Equal(t, 1, leaves[0].OldStart)
	assert.Equal(t, 10, leaves[1].OldStart)
}

func TestLabel_NilContextManagerYieldsEmptySignature(t *testing.T) {
	t.Parallel()

	c := change.Leaf(addChunk(1, "a.go", 1))
	sig := semantic.Label(c, nil)

	assert.False(t, sig.Valid())
}
