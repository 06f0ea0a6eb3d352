package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/recut-dev/recut/internal/change"
	"github.com/recut-dev/recut/internal/gitio"
	"github.com/recut-dev/recut/internal/sandbox"
)

// resolveBranch returns the checked-out branch's short name, its full ref,
// and the commit hash it currently points at. Every subcommand's single
// ref update is a compare-and-swap against this hash.
func resolveBranch(ctx context.Context, git *gitio.Adapter) (branch, ref, tip string, err error) {
	branch, err = git.CurrentBranch(ctx)
	if err != nil {
		return "", "", "", err
	}

	ref = "refs/heads/" + branch

	tip, err = git.RevParse(ctx, ref)
	if err != nil {
		return "", "", "", err
	}

	return branch, ref, tip, nil
}

// snapshotWorkingTree stages paths (or the whole tree if paths is empty)
// into a scoped index seeded from tip, and writes the result out as a tree
// object — a working-tree snapshot the real Git index never sees.
func snapshotWorkingTree(ctx context.Context, git *gitio.Adapter, tip string, paths []string) (string, error) {
	idx, err := sandbox.Acquire(ctx, git)
	if err != nil {
		return "", err
	}
	defer idx.Release()

	if err := idx.Adapter.ReadTree(ctx, tip); err != nil {
		return "", fmt.Errorf("snapshot: read-tree %s: %w", tip, err)
	}

	if err := idx.Adapter.AddAll(ctx, paths); err != nil {
		return "", fmt.Errorf("snapshot: add -A: %w", err)
	}

	tree, err := idx.Adapter.WriteTree(ctx)
	if err != nil {
		return "", fmt.Errorf("snapshot: write-tree: %w", err)
	}

	return tree, nil
}

// printGroupsTable renders the synthesized commit groups as a preview,
// one row per group: message, file count, and total changed lines.
func printGroupsTable(w io.Writer, groups []change.CommitGroup) {
	if len(groups) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Message", "Files", "Lines"})

	for i, g := range groups {
		t.AppendRow(table.Row{i + 1, g.Message, len(g.Container.CanonicalPaths()), g.Container.Size()})
	}

	t.Render()
}
