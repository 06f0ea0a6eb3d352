package gitio_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/recut-dev/recut/internal/gitio"
)

// newTestRepo initializes a throwaway repo with one commit on "main" and
// returns its Adapter plus the tip commit hash.
func newTestRepo(t *testing.T) (*gitio.Adapter, string) {
	t.Helper()

	dir := t.TempDir()
	runGit(t, dir, "init", "-q", "-b", "main")
	runGit(t, dir, "config", "user.name", "Recut Test")
	runGit(t, dir, "config", "user.email", "test@recut.dev")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "file.txt"), []byte("hello\n"), 0o644))
	runGit(t, dir, "add", "file.txt")
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

	return trimNewline(string(out))
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}

	return s
}

func TestRevParse_ResolvesHEAD(t *testing.T) {
	t.Parallel()

	git, tip := newTestRepo(t)

	hash, err := git.RevParse(context.Background(), "HEAD")
	require.NoError(t, err)
	require.Equal(t, tip, hash)
}

func TestRevParse_UnknownRevIsValidationError(t *testing.T) {
	t.Parallel()

	git, _ := newTestRepo(t)

	_, err := git.RevParse(context.Background(), "does-not-exist")
	require.Error(t, err)
}

func TestCurrentBranch_ReturnsCheckedOutBranch(t *testing.T) {
	t.Parallel()

	git, _ := newTestRepo(t)

	branch, err := git.CurrentBranch(context.Background())
	require.NoError(t, err)
	require.Equal(t, "main", branch)
}

func TestCurrentBranch_DetachedHeadErrors(t *testing.T) {
	t.Parallel()

	git, tip := newTestRepo(t)

	runGit(t, git.WorkDir, "checkout", "-q", tip)

	_, err := git.CurrentBranch(context.Background())
	require.Error(t, err)
}

func TestIsRepo_TrueInsideWorkTree(t *testing.T) {
	t.Parallel()

	git, _ := newTestRepo(t)
	require.True(t, git.IsRepo(context.Background()))
}

func TestIsRepo_FalseOutsideWorkTree(t *testing.T) {
	t.Parallel()

	git := gitio.New(t.TempDir())
	require.False(t, git.IsRepo(context.Background()))
}

func TestTreeHash_MatchesCommitTree(t *testing.T) {
	t.Parallel()

	git, tip := newTestRepo(t)

	tree, err := git.TreeHash(context.Background(), tip)
	require.NoError(t, err)

	expected := runGitOutput(t, git.WorkDir, "rev-parse", tip+"^{tree}")
	require.Equal(t, expected, tree)
}

func TestIsAncestor_TrueForSelfAndAncestor(t *testing.T) {
	t.Parallel()

	git, tip := newTestRepo(t)

	require.NoError(t, os.WriteFile(filepath.Join(git.WorkDir, "file.txt"), []byte("world\n"), 0o644))
	runGit(t, git.WorkDir, "add", "file.txt")
	runGit(t, git.WorkDir, "commit", "-q", "-m", "second")

	head := runGitOutput(t, git.WorkDir, "rev-parse", "HEAD")

	ok, err := git.IsAncestor(context.Background(), tip, head)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestIsAncestor_FalseForDescendant(t *testing.T) {
	t.Parallel()

	git, tip := newTestRepo(t)

	require.NoError(t, os.WriteFile(filepath.Join(git.WorkDir, "file.txt"), []byte("world\n"), 0o644))
	runGit(t, git.WorkDir, "add", "file.txt")
	runGit(t, git.WorkDir, "commit", "-q", "-m", "second")

	head := runGitOutput(t, git.WorkDir, "rev-parse", "HEAD")

	ok, err := git.IsAncestor(context.Background(), head, tip)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAncestryPath_ListsCommitsOldestFirst(t *testing.T) {
	t.Parallel()

	git, tip := newTestRepo(t)

	for _, name := range []string{"second", "third"} {
		require.NoError(t, os.WriteFile(filepath.Join(git.WorkDir, "file.txt"), []byte(name+"\n"), 0o644))
		runGit(t, git.WorkDir, "add", "file.txt")
		runGit(t, git.WorkDir, "commit", "-q", "-m", name)
	}

	head := runGitOutput(t, git.WorkDir, "rev-parse", "HEAD")

	commits, err := git.AncestryPath(context.Background(), tip, head)
	require.NoError(t, err)
	require.Len(t, commits, 2)
}

func TestHasMerge_FalseOnLinearHistory(t *testing.T) {
	t.Parallel()

	git, tip := newTestRepo(t)

	require.NoError(t, os.WriteFile(filepath.Join(git.WorkDir, "file.txt"), []byte("second\n"), 0o644))
	runGit(t, git.WorkDir, "add", "file.txt")
	runGit(t, git.WorkDir, "commit", "-q", "-m", "second")

	head := runGitOutput(t, git.WorkDir, "rev-parse", "HEAD")

	hasMerge, err := git.HasMerge(context.Background(), tip, head)
	require.NoError(t, err)
	require.False(t, hasMerge)
}

func TestShowCommitMeta_ReadsIdentityAndSubject(t *testing.T) {
	t.Parallel()

	git, tip := newTestRepo(t)

	meta, err := git.ShowCommitMeta(context.Background(), tip)
	require.NoError(t, err)
	require.Equal(t, tip, meta.Hash)
	require.Equal(t, "Recut Test", meta.AuthorName)
	require.Equal(t, "test@recut.dev", meta.AuthorEmail)
	require.Equal(t, "initial", meta.Subject)
	require.Empty(t, meta.ParentHash)
	require.False(t, meta.IsMerge)
}

func TestWriteTreeAndCommitTree_RoundTrip(t *testing.T) {
	t.Parallel()

	git, tip := newTestRepo(t)

	tree, err := git.TreeHash(context.Background(), tip)
	require.NoError(t, err)

	hash, err := git.CommitTree(context.Background(), tree, tip, "synthetic", gitio.CommitTreeOpts{})
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	require.NotEqual(t, tip, hash)

	gotTree, err := git.TreeHash(context.Background(), hash)
	require.NoError(t, err)
	require.Equal(t, tree, gotTree)
}

func TestUpdateRef_RejectsStaleOldValue(t *testing.T) {
	t.Parallel()

	git, tip := newTestRepo(t)

	tree, err := git.TreeHash(context.Background(), tip)
	require.NoError(t, err)

	newCommit, err := git.CommitTree(context.Background(), tree, tip, "synthetic", gitio.CommitTreeOpts{})
	require.NoError(t, err)

	err = git.UpdateRef(context.Background(), "refs/heads/main", newCommit, "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef")
	require.Error(t, err)
}

func TestUpdateRef_SucceedsWithCorrectOldValue(t *testing.T) {
	t.Parallel()

	git, tip := newTestRepo(t)

	tree, err := git.TreeHash(context.Background(), tip)
	require.NoError(t, err)

	newCommit, err := git.CommitTree(context.Background(), tree, tip, "synthetic", gitio.CommitTreeOpts{})
	require.NoError(t, err)

	require.NoError(t, git.UpdateRef(context.Background(), "refs/heads/main", newCommit, tip))

	head := runGitOutput(t, git.WorkDir, "rev-parse", "refs/heads/main")
	require.Equal(t, newCommit, head)
}

func TestUserIdentity_ReadsConfiguredNameAndEmail(t *testing.T) {
	t.Parallel()

	git, _ := newTestRepo(t)

	name, email, err := git.UserIdentity(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Recut Test", name)
	require.Equal(t, "test@recut.dev", email)
}

func TestDiffShortstat_CountsInsertionsAndDeletions(t *testing.T) {
	t.Parallel()

	git, tip := newTestRepo(t)

	require.NoError(t, os.WriteFile(filepath.Join(git.WorkDir, "file.txt"), []byte("hello\nworld\n"), 0o644))
	runGit(t, git.WorkDir, "add", "file.txt")
	runGit(t, git.WorkDir, "commit", "-q", "-m", "second")

	head := runGitOutput(t, git.WorkDir, "rev-parse", "HEAD")

	insertions, deletions, err := git.DiffShortstat(context.Background(), tip, head)
	require.NoError(t, err)
	require.Equal(t, 1, insertions)
	require.Equal(t, 0, deletions)
}

func TestAddAll_StagesWorkingTreeIntoScopedIndex(t *testing.T) {
	t.Parallel()

	git, tip := newTestRepo(t)

	require.NoError(t, os.WriteFile(filepath.Join(git.WorkDir, "new.txt"), []byte("added\n"), 0o644))

	indexPath := filepath.Join(git.WorkDir, ".git", "recut-test.index")
	scoped := git.WithEnv("GIT_INDEX_FILE=" + indexPath)

	require.NoError(t, scoped.ReadTree(context.Background(), tip))
	require.NoError(t, scoped.AddAll(context.Background(), nil))

	tree, err := scoped.WriteTree(context.Background())
	require.NoError(t, err)

	originalTree, err := git.TreeHash(context.Background(), tip)
	require.NoError(t, err)
	require.NotEqual(t, originalTree, tree)
}

func TestCatFileBatch_ResolvesBlobContentInOrder(t *testing.T) {
	t.Parallel()

	git, tip := newTestRepo(t)

	contents, err := git.CatFileBatch(context.Background(), []string{tip + ":file.txt"})
	require.NoError(t, err)
	require.Len(t, contents, 1)
	require.Equal(t, []byte("hello\n"), contents[0])
}

func TestCatFileBatch_MissingObjectYieldsNilEntry(t *testing.T) {
	t.Parallel()

	git, tip := newTestRepo(t)

	contents, err := git.CatFileBatch(context.Background(), []string{tip + ":does-not-exist.txt"})
	require.NoError(t, err)
	require.Len(t, contents, 1)
	require.Nil(t, contents[0])
}
