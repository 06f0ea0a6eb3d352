package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/recut-dev/recut/internal/gitio"
)

// CommitCommand is `recut commit`: split the working tree's uncommitted
// changes into a sequence of semantically grouped commits appended to the
// current branch. Paths left out of the change, or dropped by filtering,
// remain as uncommitted working-tree diff.
type CommitCommand struct {
	flags *engineFlags
}

// NewCommitCommand builds the cobra command for `recut commit`.
func NewCommitCommand() *cobra.Command {
	cc := &CommitCommand{}

	cmd := &cobra.Command{
		Use:   "commit [paths...]",
		Short: "Split uncommitted working-tree changes into semantic commits",
		RunE:  cc.run,
	}

	cc.flags = registerEngineFlags(cmd)

	return cmd
}

func (cc *CommitCommand) run(cmd *cobra.Command, paths []string) error {
	ctx := cmd.Context()
	git := gitio.New(".")

	log := loggerFromFlags(cmd, "commit")

	cfg, _, err := loadConfig(cmd, cc.flags)
	if err != nil {
		return err
	}

	_, ref, tip, err := resolveBranch(ctx, git)
	if err != nil {
		return err
	}

	snapshotTree, err := snapshotWorkingTree(ctx, git, tip, paths)
	if err != nil {
		return err
	}

	tipTree, err := git.TreeHash(ctx, tip)
	if err != nil {
		return err
	}

	if snapshotTree == tipTree {
		fmt.Fprintln(cmd.OutOrStdout(), "nothing to commit")

		return nil
	}

	snapshotCommit, err := git.CommitTree(ctx, snapshotTree, tip, "recut: working tree snapshot", gitio.CommitTreeOpts{})
	if err != nil {
		return fmt.Errorf("commit: snapshotting working tree: %w", err)
	}

	eng, err := newEngine(git, cfg, log)
	if err != nil {
		return err
	}

	result, err := eng.run(ctx, tip, snapshotCommit, paths)
	if err != nil {
		return err
	}

	if result.NewTip == tip {
		fmt.Fprintln(cmd.OutOrStdout(), "nothing to commit")

		return nil
	}

	if err := git.UpdateRef(ctx, ref, result.NewTip, tip); err != nil {
		return fmt.Errorf("commit: updating %s: %w", ref, err)
	}

	printGroupsTable(cmd.OutOrStdout(), result.Groups)

	if result.Rejected > 0 {
		log.Warn("containers excluded from synthesis remain as uncommitted diff", "count", result.Rejected)
	}

	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "created %d commit(s) on %s\n", len(result.Groups), ref)

	return nil
}
