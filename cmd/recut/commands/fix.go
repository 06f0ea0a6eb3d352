package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/recut-dev/recut/internal/gitio"
	"github.com/recut-dev/recut/internal/reparent"
	"github.com/recut-dev/recut/internal/rewriteerr"
)

// FixCommand is `recut fix <commit> [paths...]`: rewrite one already-landed
// commit's content, then replay every commit downstream of it onto the
// rewritten subchain, preserving their original identity and dates.
type FixCommand struct {
	flags *engineFlags
}

// NewFixCommand builds the cobra command for `recut fix`.
func NewFixCommand() *cobra.Command {
	fc := &FixCommand{}

	cmd := &cobra.Command{
		Use:   "fix <commit> [paths...]",
		Short: "Rewrite a landed commit's content and replay its descendants",
		Args:  cobra.MinimumNArgs(1),
		RunE:  fc.run,
	}

	fc.flags = registerEngineFlags(cmd)

	return cmd
}

func (fc *FixCommand) run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	git := gitio.New(".")

	log := loggerFromFlags(cmd, "fix")

	cfg, _, err := loadConfig(cmd, fc.flags)
	if err != nil {
		return err
	}

	target, err := git.RevParse(ctx, args[0])
	if err != nil {
		return err
	}

	paths := args[1:]

	meta, err := git.ShowCommitMeta(ctx, target)
	if err != nil {
		return err
	}

	if meta.ParentHash == "" {
		return fmt.Errorf("%w: %s is the root commit", rewriteerr.ErrRootCommitUnsupported, target)
	}

	if meta.IsMerge {
		return fmt.Errorf("%w: %s is a merge commit", rewriteerr.ErrMergeInRange, target)
	}

	_, ref, tip, err := resolveBranch(ctx, git)
	if err != nil {
		return err
	}

	hasMerge, err := git.HasMerge(ctx, target, tip)
	if err != nil {
		return err
	}

	if hasMerge {
		return fmt.Errorf("%w: between %s and branch tip", rewriteerr.ErrMergeInRange, target)
	}

	eng, err := newEngine(git, cfg, log)
	if err != nil {
		return err
	}

	result, err := eng.run(ctx, meta.ParentHash, target, paths)
	if err != nil {
		return err
	}

	if result.NewTip == meta.ParentHash {
		fmt.Fprintln(cmd.OutOrStdout(), "nothing to fix")

		return nil
	}

	newTip, err := reparent.Reparent(ctx, git, target, tip, result.NewTip)
	if err != nil {
		return err
	}

	if err := git.UpdateRef(ctx, ref, newTip, tip); err != nil {
		return fmt.Errorf("fix: updating %s: %w", ref, err)
	}

	printGroupsTable(cmd.OutOrStdout(), result.Groups)

	if result.Rejected > 0 {
		log.Warn("containers excluded from synthesis", "count", result.Rejected)
	}

	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "rewrote %s, replayed descendants onto %s\n", target, ref)

	return nil
}
