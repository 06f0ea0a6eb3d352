package rewriteconfig_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recut-dev/recut/internal/rewriteconfig"
)

func TestLoad_DefaultsWithNoLayers(t *testing.T) {
	t.Parallel()

	cfg, prov, err := rewriteconfig.Load(nil, "", "", "")
	require.NoError(t, err)

	assert.Equal(t, rewriteconfig.DefaultChunkingLevel, cfg.ChunkingLevel)
	assert.Equal(t, rewriteconfig.DefaultSecretAggression, cfg.SecretAggression)
	assert.Equal(t, rewriteconfig.DefaultMinimumCommitSize, cfg.MinimumCommitSize)
	assert.Equal(t, "default", prov["chunking_level"])
}

func TestLoad_CLIFlagOverridesEverything(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	localPath := filepath.Join(dir, ".recut.yaml")
	require.NoError(t, os.WriteFile(localPath, []byte("chunking_level: full_files\n"), 0o644))

	cfg, prov, err := rewriteconfig.Load(
		map[string]any{"chunking_level": "none"},
		"", localPath, "",
	)
	require.NoError(t, err)

	assert.Equal(t, "none", cfg.ChunkingLevel)
	assert.Equal(t, "cli", prov["chunking_level"])
}

func TestLoad_LocalOverridesGlobal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	globalPath := filepath.Join(dir, "global.yaml")
	require.NoError(t, os.WriteFile(globalPath, []byte("secret_aggression: strict\n"), 0o644))

	localPath := filepath.Join(dir, ".recut.yaml")
	require.NoError(t, os.WriteFile(localPath, []byte("secret_aggression: safe\n"), 0o644))

	cfg, prov, err := rewriteconfig.Load(nil, "", localPath, globalPath)
	require.NoError(t, err)

	assert.Equal(t, "safe", cfg.SecretAggression)
	assert.Equal(t, "local", prov["secret_aggression"])
}

func TestLoad_CustomOverridesLocal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	localPath := filepath.Join(dir, ".recut.yaml")
	require.NoError(t, os.WriteFile(localPath, []byte("grouping_strategy: embed_cluster\n"), 0o644))

	customPath := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(customPath, []byte("grouping_strategy: brute_force\n"), 0o644))

	cfg, prov, err := rewriteconfig.Load(nil, customPath, localPath, "")
	require.NoError(t, err)

	assert.Equal(t, "brute_force", cfg.GroupingStrategy)
	assert.Equal(t, "custom", prov["grouping_strategy"])
}

func TestLoad_MissingConfigFilesAreNotErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	missing := filepath.Join(dir, "does-not-exist.yaml")

	_, _, err := rewriteconfig.Load(nil, missing, missing, missing)
	require.NoError(t, err)
}

func TestLoad_InvalidChunkingLevelRejected(t *testing.T) {
	t.Parallel()

	_, _, err := rewriteconfig.Load(map[string]any{"chunking_level": "bogus"}, "", "", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, rewriteconfig.ErrInvalidChunkingLevel)
}

func TestLoad_InvalidAggressionRejected(t *testing.T) {
	t.Parallel()

	_, _, err := rewriteconfig.Load(map[string]any{"secret_aggression": "extreme"}, "", "", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, rewriteconfig.ErrInvalidAggression)
}

func TestLoad_InvalidFallbackRejected(t *testing.T) {
	t.Parallel()

	_, _, err := rewriteconfig.Load(map[string]any{"fallback_strategy": "nope"}, "", "", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, rewriteconfig.ErrInvalidFallback)
}

func TestLoad_InvalidGroupingStrategyRejected(t *testing.T) {
	t.Parallel()

	_, _, err := rewriteconfig.Load(map[string]any{"grouping_strategy": "nope"}, "", "", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, rewriteconfig.ErrInvalidGroupingStrategy)
}

func TestLoad_NonPositiveMinimumCommitSizeRejected(t *testing.T) {
	t.Parallel()

	_, _, err := rewriteconfig.Load(map[string]any{"minimum_commit_size": 0}, "", "", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, rewriteconfig.ErrInvalidMinimumCommitSize)
}

func TestLoad_IgnorePrefixesFromCLI(t *testing.T) {
	t.Parallel()

	cfg, _, err := rewriteconfig.Load(map[string]any{"ignore_prefixes": []string{"abc123", "def456"}}, "", "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"abc123", "def456"}, cfg.IgnorePrefixes)
}
