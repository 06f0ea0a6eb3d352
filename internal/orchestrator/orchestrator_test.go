package orchestrator_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/recut-dev/recut/internal/change"
	"github.com/recut-dev/recut/internal/gitio"
	"github.com/recut-dev/recut/internal/orchestrator"
	"github.com/recut-dev/recut/internal/patchgen"
)

func newTestRepo(t *testing.T) (*gitio.Adapter, string) {
	t.Helper()

	dir := t.TempDir()
	runGit(t, dir, "init", "-q", "-b", "main")
	runGit(t, dir, "config", "user.name", "Recut Test")
	runGit(t, dir, "config", "user.email", "test@recut.dev")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.txt"), []byte("base\n"), 0o644))
	runGit(t, dir, "add", "base.txt")
	runGit(t, dir, "commit", "-q", "-m", "initial")

	tip := runGitOutput(t, dir, "rev-parse", "HEAD")

	return gitio.New(dir), tip
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
}

func runGitOutput(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = dir

	out, err := cmd.Output()
	require.NoError(t, err)

	for len(out) > 0 && (out[len(out)-1] == '\n' || out[len(out)-1] == '\r') {
		out = out[:len(out)-1]
	}

	return string(out)
}

func additionGroup(message string, path string, content string) change.CommitGroup {
	chunk := change.DiffChunk{
		ID: 1, NewPath: path, FileMode: "100644",
		Lines: []change.LineChange{{Kind: change.Addition, Content: []byte(content), NewLine: 1}},
	}

	return change.CommitGroup{Container: change.Leaf(chunk), Message: message}
}

// modifyGroup replaces line lineNo of an existing file with a zero-context
// hunk: one removal anchored at OldLine, one addition anchored at NewLine.
func modifyGroup(message, path, oldLine, newLine string, lineNo int) change.CommitGroup {
	chunk := change.DiffChunk{
		ID: 1, OldPath: path, NewPath: path, OldStart: lineNo, FileMode: "100644",
		Lines: []change.LineChange{
			{Kind: change.Removal, Content: []byte(oldLine), OldLine: lineNo},
			{Kind: change.Addition, Content: []byte(newLine), NewLine: lineNo},
		},
	}

	return change.CommitGroup{Container: change.Leaf(chunk), Message: message}
}

// deletionGroup removes an existing file's only line, a pure-removal
// zero-context hunk.
func deletionGroup(message, path, oldLine string, lineNo int) change.CommitGroup {
	chunk := change.DiffChunk{
		ID: 1, OldPath: path, FileMode: "100644",
		Lines: []change.LineChange{{Kind: change.Removal, Content: []byte(oldLine), OldLine: lineNo}},
	}

	return change.CommitGroup{Container: change.Leaf(chunk), Message: message}
}

func TestRun_SingleGroupAppliesAndCommits(t *testing.T) {
	t.Parallel()

	git, tip := newTestRepo(t)

	groups := []change.CommitGroup{additionGroup("add feature file", "feature.txt", "feature")}

	results, newTip, err := orchestrator.Run(context.Background(), git, tip, expectedTreeFor(t, git, tip, groups), groups, orchestrator.Identity{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, orchestrator.Committed, results[0].State)
	require.NotEmpty(t, newTip)
	require.NotEqual(t, tip, newTip)
}

func TestRun_EmptyGroupsReturnsBaseUnchanged(t *testing.T) {
	t.Parallel()

	git, tip := newTestRepo(t)

	results, newTip, err := orchestrator.Run(context.Background(), git, tip, "", nil, orchestrator.Identity{})
	require.NoError(t, err)
	require.Empty(t, results)
	require.Equal(t, tip, newTip)
}

func TestRun_TargetTreeMismatchAborts(t *testing.T) {
	t.Parallel()

	git, tip := newTestRepo(t)

	groups := []change.CommitGroup{additionGroup("add feature file", "feature.txt", "feature")}

	_, _, err := orchestrator.Run(context.Background(), git, tip, "0000000000000000000000000000000000000000", groups, orchestrator.Identity{})
	require.Error(t, err)
}

func TestRun_ChainsMultipleGroupsSequentially(t *testing.T) {
	t.Parallel()

	git, tip := newTestRepo(t)

	groups := []change.CommitGroup{
		additionGroup("add first", "first.txt", "one"),
		additionGroup("add second", "second.txt", "two"),
	}

	results, newTip, err := orchestrator.Run(context.Background(), git, tip, expectedTreeFor(t, git, tip, groups), groups, orchestrator.Identity{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.NotEqual(t, results[0].CommitHash, results[1].CommitHash)
	require.Equal(t, results[1].CommitHash, newTip)
}

// TestRun_ModifiesExistingLineAppliesAndCommits round-trips a zero-context
// replacement hunk (one removal, one addition on the same line) through a
// real `git apply --cached`, guarding against the hunk being rejected for
// missing context.
func TestRun_ModifiesExistingLineAppliesAndCommits(t *testing.T) {
	t.Parallel()

	git, tip := newTestRepo(t)

	groups := []change.CommitGroup{modifyGroup("update base content", "base.txt", "base", "changed", 1)}

	results, newTip, err := orchestrator.Run(context.Background(), git, tip, expectedTreeFor(t, git, tip, groups), groups, orchestrator.Identity{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, orchestrator.Committed, results[0].State)
	require.NotEqual(t, tip, newTip)

	content := runGitOutput(t, git.WorkDir, "show", newTip+":base.txt")
	require.Equal(t, "changed", content)
}

// TestRun_DeletesFileAppliesAndCommits round-trips a zero-context pure
// deletion hunk through a real `git apply --cached`.
func TestRun_DeletesFileAppliesAndCommits(t *testing.T) {
	t.Parallel()

	git, tip := newTestRepo(t)

	groups := []change.CommitGroup{deletionGroup("remove base file", "base.txt", "base", 1)}

	results, newTip, err := orchestrator.Run(context.Background(), git, tip, expectedTreeFor(t, git, tip, groups), groups, orchestrator.Identity{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, orchestrator.Committed, results[0].State)
	require.NotEqual(t, tip, newTip)

	_, err = exec.Command("git", "-C", git.WorkDir, "show", newTip+":base.txt").CombinedOutput()
	require.Error(t, err, "base.txt should no longer exist in the new tip's tree")
}

// expectedTreeFor applies every group's combined patch to base in a scratch
// index, mirroring the engine's own target-tree computation, so Run's final
// tree-equality check is exercised against a tree it can actually reach.
func expectedTreeFor(t *testing.T, git *gitio.Adapter, base string, groups []change.CommitGroup) string {
	t.Helper()

	indexPath := filepath.Join(git.WorkDir, ".git", "recut-test-expected.index")
	scoped := git.WithEnv("GIT_INDEX_FILE=" + indexPath)

	require.NoError(t, scoped.ReadTree(context.Background(), base))

	for _, g := range groups {
		patch := patchgen.Patch(g.Container)
		if len(patch) == 0 {
			continue
		}

		require.NoError(t, scoped.ApplyCached(context.Background(), patch))
	}

	tree, err := scoped.WriteTree(context.Background())
	require.NoError(t, err)

	return tree
}
