// Package fileread is C5: the one place the engine asks Git for blob
// content by (commit, path). It is a thin batching facade over
// internal/gitio's plumbing calls — the boundary exists so C7's context
// manager depends on a narrow read-only contract instead of the full
// gitio.Adapter surface.
package fileread

import (
	"context"
	"fmt"

	"github.com/recut-dev/recut/internal/gitio"
)

// Reader resolves blob content for a batch of commit:path object specs.
type Reader interface {
	Read(ctx context.Context, commits, paths []string) ([][]byte, error)
}

// GitReader is the shipped Reader, backed by `git cat-file --batch`.
type GitReader struct {
	git *gitio.Adapter
}

// New wraps git for blob reads.
func New(git *gitio.Adapter) *GitReader {
	return &GitReader{git: git}
}

// Read fetches one blob per (commits[i], paths[i]) pair in a single batched
// cat-file call. A missing object yields a nil entry at that index rather
// than an error, matching gitio.CatFileBatch's contract.
func (r *GitReader) Read(ctx context.Context, commits, paths []string) ([][]byte, error) {
	if len(commits) != len(paths) {
		return nil, fmt.Errorf("fileread: commits/paths length mismatch: %d vs %d", len(commits), len(paths))
	}

	objects := make([]string, len(commits))
	for i := range commits {
		objects[i] = commits[i] + ":" + paths[i]
	}

	contents, err := r.git.CatFileBatch(ctx, objects)
	if err != nil {
		return nil, fmt.Errorf("fileread: batch read: %w", err)
	}

	return contents, nil
}
