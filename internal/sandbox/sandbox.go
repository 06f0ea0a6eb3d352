// Package sandbox scopes the transient Git index every commit group is
// synthesized against. Each acquisition gets its own GIT_INDEX_FILE path
// under the repository's .git directory, named with a UUID so concurrent
// or overlapping runs never collide, and is guaranteed removed on release
// regardless of how the caller's work concluded.
package sandbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/recut-dev/recut/internal/gitio"
)

// Index is one scoped transient index: a gitio.Adapter pre-configured with
// GIT_INDEX_FILE pointing at a private temp file.
type Index struct {
	Adapter *gitio.Adapter
	path    string
}

// Acquire creates a fresh, empty scoped index rooted at base's working
// directory, under <gitDir>/recut-sandbox/<uuid>.index.
func Acquire(ctx context.Context, base *gitio.Adapter) (*Index, error) {
	gitDir, err := base.RunText(ctx, "rev-parse", "--git-dir")
	if err != nil {
		return nil, fmt.Errorf("sandbox: resolving git dir: %w", err)
	}

	dir := filepath.Join(gitDir, "recut-sandbox")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("sandbox: creating scratch dir: %w", err)
	}

	path := filepath.Join(dir, uuid.NewString()+".index")

	return &Index{
		Adapter: base.WithEnv("GIT_INDEX_FILE=" + path),
		path:    path,
	}, nil
}

// Release removes the scoped index file. Safe to call more than once and
// safe to call even if the file was never written to.
func (idx *Index) Release() error {
	if idx == nil || idx.path == "" {
		return nil
	}

	err := os.Remove(idx.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("sandbox: releasing scoped index: %w", err)
	}

	return nil
}
