// Package orchestrator is C13: applying commit groups sequentially against
// a chain of transient indexes, producing the new commit chain. Nothing is
// written to a ref until the whole chain succeeds and its final tree is
// verified against the target; an aborted run leaves only dangling objects.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/recut-dev/recut/internal/change"
	"github.com/recut-dev/recut/internal/gitio"
	"github.com/recut-dev/recut/internal/patchgen"
	"github.com/recut-dev/recut/internal/rewriteerr"
	"github.com/recut-dev/recut/internal/sandbox"
)

// State is one group's position in the per-group state machine.
type State int

const (
	Pending State = iota
	Applying
	Committed
	Failed
)

// Result records the outcome of synthesizing one commit group.
type Result struct {
	Group      change.CommitGroup
	CommitHash string
	TreeHash   string
	State      State
}

// Identity carries the author/committer stamp applied to every synthesized
// commit — normally the run invoker's configured identity, not the
// original commits' (those are only replayed during reparenting, C14).
type Identity struct {
	AuthorName, AuthorEmail, AuthorDate       string
	CommitterName, CommitterEmail, CommitterDate string
}

// Run applies groups in order against base, returning one Result per group
// and the final synthesized commit hash. On any apply failure the run
// aborts: the returned error is non-nil, the last Result's State is Failed,
// and the caller must not update any ref.
func Run(ctx context.Context, git *gitio.Adapter, base string, targetTree string, groups []change.CommitGroup, identity Identity) ([]Result, string, error) {
	results := make([]Result, 0, len(groups))

	parent := base

	for _, group := range groups {
		result, err := applyOne(ctx, git, parent, group, identity)
		if err != nil {
			result.State = Failed
			results = append(results, result)

			return results, "", err
		}

		result.State = Committed
		results = append(results, result)
		parent = result.CommitHash
	}

	if len(results) == 0 {
		return results, base, nil
	}

	finalTree := results[len(results)-1].TreeHash
	if finalTree != targetTree {
		return results, "", fmt.Errorf("%w: final tree %s != target tree %s", rewriteerr.ErrSynthesisMismatch, finalTree, targetTree)
	}

	return results, parent, nil
}

func applyOne(ctx context.Context, git *gitio.Adapter, parent string, group change.CommitGroup, identity Identity) (Result, error) {
	result := Result{Group: group, State: Applying}

	idx, err := sandbox.Acquire(ctx, git)
	if err != nil {
		return result, err
	}
	defer idx.Release()

	if err := idx.Adapter.ReadTree(ctx, parent); err != nil {
		return result, fmt.Errorf("orchestrator: read-tree %s: %w", parent, err)
	}

	patch := patchgen.Patch(group.Container)
	if len(patch) > 0 {
		if err := idx.Adapter.ApplyCached(ctx, patch); err != nil {
			return result, err
		}
	}

	tree, err := idx.Adapter.WriteTree(ctx)
	if err != nil {
		return result, fmt.Errorf("orchestrator: write-tree: %w", err)
	}

	hash, err := git.CommitTree(ctx, tree, parent, group.Message, gitio.CommitTreeOpts{
		AuthorName: identity.AuthorName, AuthorEmail: identity.AuthorEmail, AuthorDate: identity.AuthorDate,
		CommitterName: identity.CommitterName, CommitterEmail: identity.CommitterEmail, CommitterDate: identity.CommitterDate,
	})
	if err != nil {
		return result, fmt.Errorf("orchestrator: commit-tree: %w", err)
	}

	result.TreeHash = tree
	result.CommitHash = hash

	return result, nil
}
