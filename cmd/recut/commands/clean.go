package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/recut-dev/recut/internal/change"
	"github.com/recut-dev/recut/internal/gitio"
	"github.com/recut-dev/recut/internal/reparent"
)

// CleanCommand is `recut clean`: sweep the whole branch, applying the fix
// flow to every eligible commit from newest to oldest, and land the result
// with a single ref update at the end.
type CleanCommand struct {
	flags *engineFlags
}

// NewCleanCommand builds the cobra command for `recut clean`.
func NewCleanCommand() *cobra.Command {
	cc := &CleanCommand{}

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Sweep the whole branch, rewriting every eligible commit",
		Args:  cobra.NoArgs,
		RunE:  cc.run,
	}

	cc.flags = registerEngineFlags(cmd)

	return cmd
}

func (cc *CleanCommand) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	git := gitio.New(".")

	log := loggerFromFlags(cmd, "clean")

	cfg, _, err := loadConfig(cmd, cc.flags)
	if err != nil {
		return err
	}

	_, ref, originalTip, err := resolveBranch(ctx, git)
	if err != nil {
		return err
	}

	root, err := git.RunText(ctx, "rev-list", "--max-parents=0", originalTip)
	if err != nil {
		return fmt.Errorf("clean: resolving repository root: %w", err)
	}

	candidates, err := reparent.Candidates(ctx, git, root, originalTip)
	if err != nil {
		return err
	}

	eng, err := newEngine(git, cfg, log)
	if err != nil {
		return err
	}

	currentTip := originalTip

	var (
		allGroups []change.CommitGroup
		rejected  int
		fixed     int
	)

	for _, candidate := range candidates {
		meta, err := git.ShowCommitMeta(ctx, candidate)
		if err != nil {
			return err
		}

		if meta.IsMerge {
			log.Debug("skipping merge commit", "commit", candidate)

			continue
		}

		if reparent.MatchesIgnore(candidate, cfg.IgnorePrefixes) {
			log.Debug("skipping ignored commit", "commit", candidate)

			continue
		}

		insertions, deletions, err := git.DiffShortstat(ctx, meta.ParentHash, candidate)
		if err != nil {
			return err
		}

		if insertions+deletions < cfg.MinimumCommitSize {
			log.Debug("skipping commit below minimum size", "commit", candidate)

			continue
		}

		result, err := eng.run(ctx, meta.ParentHash, candidate, nil)
		if err != nil {
			return err
		}

		if result.NewTip == meta.ParentHash {
			continue
		}

		newTip, err := reparent.Reparent(ctx, git, candidate, currentTip, result.NewTip)
		if err != nil {
			return err
		}

		currentTip = newTip
		fixed++
		rejected += result.Rejected
		allGroups = append(allGroups, result.Groups...)
	}

	if fixed == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "nothing to clean")

		return nil
	}

	if err := git.UpdateRef(ctx, ref, currentTip, originalTip); err != nil {
		return fmt.Errorf("clean: updating %s: %w", ref, err)
	}

	printGroupsTable(cmd.OutOrStdout(), allGroups)

	if rejected > 0 {
		log.Warn("containers excluded from synthesis across the sweep", "count", rejected)
	}

	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "rewrote %d commit(s) on %s\n", fixed, ref)

	return nil
}
