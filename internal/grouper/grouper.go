// Package grouper is C11: turning the semantic clusters from internal/semantic
// into final commit groups, each carrying a commit message. Two strategies
// are offered — a single-call brute-force labeling and an embed->cluster->label
// pipeline — plus the minimum-commit-size merge pass both strategies share.
package grouper

import (
	"context"
	"fmt"
	"sort"

	"github.com/recut-dev/recut/internal/change"
	"github.com/recut-dev/recut/internal/cluster"
	"github.com/recut-dev/recut/internal/embedprovider"
	"github.com/recut-dev/recut/internal/llmprovider"
)

// Strategy selects the grouping algorithm.
type Strategy string

const (
	// BruteForce asks the LLM to label every container in one call.
	BruteForce Strategy = "brute_force"
	// EmbedCluster summarizes, embeds, and clusters containers before a
	// per-cluster labeling call.
	EmbedCluster Strategy = "embed_cluster"
)

// Config bundles the grouper's tunables, normally sourced from
// internal/rewriteconfig.
type Config struct {
	Strategy          Strategy
	MinimumCommitSize int
	Concurrency       int // bounded-concurrency cap for batched LLM/embed calls
	Intent            string
}

func (c Config) concurrency() int {
	if c.Concurrency <= 0 {
		return 4
	}

	return c.Concurrency
}

// Group produces the final, ordered list of commit groups from the semantic
// clusters, applying the configured strategy and the minimum-commit-size
// merge pass.
func Group(ctx context.Context, provider llmprovider.Provider, embedder embedprovider.Embedder, clusterer cluster.Clusterer, containers []change.Container, cfg Config) ([]change.CommitGroup, error) {
	if len(containers) == 0 {
		return nil, nil
	}

	var (
		groups []change.CommitGroup
		err    error
	)

	switch cfg.Strategy {
	case EmbedCluster:
		groups, err = groupEmbedCluster(ctx, provider, embedder, clusterer, containers, cfg)
	default:
		groups, err = groupBruteForce(ctx, provider, containers, cfg)
	}

	if err != nil {
		return nil, err
	}

	if cfg.MinimumCommitSize > 1 {
		groups = EnforceMinimumSize(groups, cfg.MinimumCommitSize)
	}

	return groups, nil
}

// fallbackSingleGroupPerContainer is the documented recovery for a
// brute-force response that fails the coverage/bijection check: every
// container becomes its own commit group.
func fallbackSingleGroupPerContainer(containers []change.Container) []change.CommitGroup {
	groups := make([]change.CommitGroup, len(containers))

	for i, c := range containers {
		groups[i] = change.CommitGroup{Container: c, Message: fallbackMessage(c)}
	}

	return groups
}

func fallbackMessage(c change.Container) string {
	paths := c.CanonicalPaths()
	if len(paths) == 0 {
		return "chore: update changes"
	}

	if len(paths) == 1 {
		return fmt.Sprintf("chore: update %s", paths[0])
	}

	return fmt.Sprintf("chore: update %s and %d other files", paths[0], len(paths)-1)
}

// leafIndex flattens every container's leaves into an ID-keyed lookup, used
// by the brute-force path to rebuild containers from the LLM's chunk_ids.
func leafIndex(containers []change.Container) (map[int]change.DiffChunk, []int) {
	index := map[int]change.DiffChunk{}

	var order []int

	for _, c := range containers {
		for _, leaf := range c.Leaves() {
			if _, ok := index[leaf.ID]; !ok {
				order = append(order, leaf.ID)
			}

			index[leaf.ID] = leaf
		}
	}

	sort.Ints(order)

	return index, order
}
