package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/recut-dev/recut/internal/chunker"
	"github.com/recut-dev/recut/internal/filters"
	"github.com/recut-dev/recut/internal/semantic"
)

func TestChunkingLevel_MapsKnownStrings(t *testing.T) {
	t.Parallel()

	assert.Equal(t, chunker.FullFiles, chunkingLevel("full_files"))
	assert.Equal(t, chunker.AllFiles, chunkingLevel("all_files"))
	assert.Equal(t, chunker.None, chunkingLevel("none"))
	assert.Equal(t, chunker.None, chunkingLevel("bogus"))
}

func TestAggressionFromString_MapsKnownStrings(t *testing.T) {
	t.Parallel()

	assert.Equal(t, filters.Safe, secretAggression("safe"))
	assert.Equal(t, filters.Standard, relevanceAggression("standard"))
	assert.Equal(t, filters.Strict, secretAggression("strict"))
	assert.Equal(t, filters.None, secretAggression("bogus"))
}

func TestFallbackStrategy_DefaultsToByFilePath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, semantic.AllTogether, fallbackStrategy("all_together"))
	assert.Equal(t, semantic.ByFileName, fallbackStrategy("by_file_name"))
	assert.Equal(t, semantic.ByFileExtension, fallbackStrategy("by_file_extension"))
	assert.Equal(t, semantic.AllAlone, fallbackStrategy("all_alone"))
	assert.Equal(t, semantic.ByFilePath, fallbackStrategy("anything-else"))
}
