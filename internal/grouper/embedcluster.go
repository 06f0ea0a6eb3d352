package grouper

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/recut-dev/recut/internal/change"
	"github.com/recut-dev/recut/internal/cluster"
	"github.com/recut-dev/recut/internal/embedprovider"
	"github.com/recut-dev/recut/internal/llmprovider"
	"github.com/recut-dev/recut/internal/patchgen"
)

const summarySystemPrompt = "Summarize the following code change in one short sentence."

const combineSystemPrompt = "Combine these related one-line change summaries into a single, " +
	"imperative-mood commit message of one line."

// groupEmbedCluster summarizes each container with a batched, bounded
// LLM call, embeds the summaries, clusters them, and issues one LLM call
// per non-noise cluster to produce its commit message. Noise points (label
// -1) become singleton groups labeled with their own summary.
func groupEmbedCluster(ctx context.Context, provider llmprovider.Provider, embedder embedprovider.Embedder, clusterer cluster.Clusterer, containers []change.Container, cfg Config) ([]change.CommitGroup, error) {
	if provider == nil || embedder == nil || clusterer == nil {
		return fallbackSingleGroupPerContainer(containers), nil
	}

	summaries, err := summarizeAll(ctx, provider, containers, cfg.concurrency())
	if err != nil {
		return fallbackSingleGroupPerContainer(containers), nil
	}

	vectors, err := embedder.Embed(ctx, summaries)
	if err != nil {
		return fallbackSingleGroupPerContainer(containers), nil
	}

	labels, err := clusterer.Cluster(vectors)
	if err != nil {
		return fallbackSingleGroupPerContainer(containers), nil
	}

	members := map[int][]int{}

	for i, label := range labels {
		if label == -1 {
			continue
		}

		members[label] = append(members[label], i)
	}

	var groups []change.CommitGroup

	clusterLabels := make([]int, 0, len(members))
	for label := range members {
		clusterLabels = append(clusterLabels, label)
	}

	sort.Ints(clusterLabels)

	for _, label := range clusterLabels {
		idxs := members[label]

		children := make([]change.Container, 0, len(idxs))

		memberSummaries := make([]string, 0, len(idxs))
		for _, i := range idxs {
			children = append(children, containers[i])
			memberSummaries = append(memberSummaries, summaries[i])
		}

		message, err := combineSummaries(ctx, provider, memberSummaries)
		if err != nil {
			message = memberSummaries[0]
		}

		groups = append(groups, change.CommitGroup{Container: change.Composite(children...), Message: message})
	}

	for i, label := range labels {
		if label != -1 {
			continue
		}

		groups = append(groups, change.CommitGroup{Container: containers[i], Message: summaries[i]})
	}

	return groups, nil
}

// summarizeAll runs one LLM call per container, bounded to concurrency
// in-flight calls at a time, per spec §5's batching requirement.
func summarizeAll(ctx context.Context, provider llmprovider.Provider, containers []change.Container, concurrency int) ([]string, error) {
	summaries := make([]string, len(containers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, c := range containers {
		i, c := i, c

		g.Go(func() error {
			text, err := provider.Invoke(gctx, []llmprovider.Message{
				{Role: llmprovider.System, Content: summarySystemPrompt},
				{Role: llmprovider.User, Content: patchgen.SemanticDiff(c)},
			})
			if err != nil {
				return fmt.Errorf("summarize container %d: %w", i, err)
			}

			summaries[i] = strings.TrimSpace(text)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return summaries, nil
}

func combineSummaries(ctx context.Context, provider llmprovider.Provider, summaries []string) (string, error) {
	text, err := provider.Invoke(ctx, []llmprovider.Message{
		{Role: llmprovider.System, Content: combineSystemPrompt},
		{Role: llmprovider.User, Content: strings.Join(summaries, "\n")},
	})
	if err != nil {
		return "", fmt.Errorf("combine summaries: %w", err)
	}

	return strings.TrimSpace(text), nil
}
