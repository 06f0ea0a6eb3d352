package fileread_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/recut-dev/recut/internal/fileread"
	"github.com/recut-dev/recut/internal/gitio"
)

func newTestRepo(t *testing.T) (*gitio.Adapter, string) {
	t.Helper()

	dir := t.TempDir()
	runGit(t, dir, "init", "-q", "-b", "main")
	runGit(t, dir, "config", "user.name", "Recut Test")
	runGit(t, dir, "config", "user.email", "test@recut.dev")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("alpha\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("beta\n"), 0o644))
	runGit(t, dir, "add", "a.txt", "b.txt")
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

func TestGitReader_ReadResolvesBlobsInOrder(t *testing.T) {
	t.Parallel()

	git, tip := newTestRepo(t)
	r := fileread.New(git)

	contents, err := r.Read(context.Background(), []string{tip, tip}, []string{"a.txt", "b.txt"})
	require.NoError(t, err)
	require.Len(t, contents, 2)
	require.Equal(t, []byte("alpha\n"), contents[0])
	require.Equal(t, []byte("beta\n"), contents[1])
}

func TestGitReader_Read_MismatchedLengthsErrors(t *testing.T) {
	t.Parallel()

	git, tip := newTestRepo(t)
	r := fileread.New(git)

	_, err := r.Read(context.Background(), []string{tip}, []string{"a.txt", "b.txt"})
	require.Error(t, err)
}

func TestGitReader_Read_MissingPathYieldsNilEntry(t *testing.T) {
	t.Parallel()

	git, tip := newTestRepo(t)
	r := fileread.New(git)

	contents, err := r.Read(context.Background(), []string{tip}, []string{"missing.txt"})
	require.NoError(t, err)
	require.Len(t, contents, 1)
	require.Nil(t, contents[0])
}
