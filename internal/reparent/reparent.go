// Package reparent is C14: replaying the original commits downstream of a
// rewritten target onto the new subchain, preserving each one's author and
// committer identity and dates exactly. Used by both `fix` (once) and
// `clean` (once per candidate commit, threaded through the outer loop).
package reparent

import (
	"context"
	"fmt"
	"strings"

	"github.com/recut-dev/recut/internal/gitio"
	"github.com/recut-dev/recut/internal/rewriteerr"
)

// Reparent replays every original commit strictly after oldTarget up to and
// including tip (first-parent ancestry) onto newTarget, preserving each
// commit's tree, message, and author/committer metadata. Returns the new
// tip hash, or oldTarget itself unchanged if there is nothing downstream.
func Reparent(ctx context.Context, git *gitio.Adapter, oldTarget, tip, newTarget string) (string, error) {
	commits, err := git.AncestryPath(ctx, oldTarget, tip)
	if err != nil {
		return "", fmt.Errorf("%w: %v", rewriteerr.ErrFixReparent, err)
	}

	parent := newTarget

	for _, commit := range commits {
		meta, err := git.ShowCommitMeta(ctx, commit)
		if err != nil {
			return "", fmt.Errorf("%w: reading %s: %v", rewriteerr.ErrFixReparent, commit, err)
		}

		if meta.IsMerge {
			return "", fmt.Errorf("%w: merge commit %s downstream of rewritten target", rewriteerr.ErrMergeInRange, commit)
		}

		hash, err := git.CommitTree(ctx, meta.TreeHash, parent, meta.Body, gitio.CommitTreeOpts{
			AuthorName: meta.AuthorName, AuthorEmail: meta.AuthorEmail, AuthorDate: meta.AuthorDate,
			CommitterName: meta.CommitterName, CommitterEmail: meta.CommitterEmail, CommitterDate: meta.CommitterDate,
		})
		if err != nil {
			return "", fmt.Errorf("%w: replaying %s: %v", rewriteerr.ErrFixReparent, commit, err)
		}

		parent = hash
	}

	return parent, nil
}

// MatchesIgnore reports whether hash starts with any of the configured
// ignore prefixes. On ambiguity (a prefix short enough to match more than
// one candidate commit) the first matching prefix in iteration order wins,
// per the recorded decision for this behavior.
func MatchesIgnore(hash string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(hash, p) {
			return true
		}
	}

	return false
}

// Candidates lists non-merge commits from tip down to (but not including)
// stopAt, newest first, for the `clean` outer loop to filter and replay.
func Candidates(ctx context.Context, git *gitio.Adapter, stopAt, tip string) ([]string, error) {
	ordered, err := git.AncestryPath(ctx, stopAt, tip)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rewriteerr.ErrFixReparent, err)
	}

	reversed := make([]string, len(ordered))
	for i, c := range ordered {
		reversed[len(ordered)-1-i] = c
	}

	return reversed, nil
}
