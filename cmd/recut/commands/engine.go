// Package commands wires the rewrite engine's components (C1-C14) behind
// three cobra subcommands: commit, fix, and clean.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/recut-dev/recut/internal/astctx"
	"github.com/recut-dev/recut/internal/change"
	"github.com/recut-dev/recut/internal/chunker"
	"github.com/recut-dev/recut/internal/cluster"
	"github.com/recut-dev/recut/internal/diffparse"
	"github.com/recut-dev/recut/internal/embedprovider"
	"github.com/recut-dev/recut/internal/filters"
	"github.com/recut-dev/recut/internal/fileread"
	"github.com/recut-dev/recut/internal/gitio"
	"github.com/recut-dev/recut/internal/grouper"
	"github.com/recut-dev/recut/internal/langconfig"
	"github.com/recut-dev/recut/internal/llmprovider"
	"github.com/recut-dev/recut/internal/orchestrator"
	"github.com/recut-dev/recut/internal/patchgen"
	"github.com/recut-dev/recut/internal/rewriteconfig"
	"github.com/recut-dev/recut/internal/rewriteerr"
	"github.com/recut-dev/recut/internal/sandbox"
	"github.com/recut-dev/recut/internal/semantic"
)

// maxContextEntries bounds the per-run analysis-context memo; 0 would mean
// unbounded, which is unnecessary for a single-command-invocation lifetime.
const maxContextEntries = 10000

// embeddingDimensions sizes the default hashing embedder's vectors.
const embeddingDimensions = 256

// clusterThreshold is the default single-linkage merge distance for
// L2-normalized hashing-embedder vectors.
const clusterThreshold = 0.5

// engine bundles the rewrite pipeline's external collaborators, built once
// per command invocation from resolved configuration.
type engine struct {
	git       *gitio.Adapter
	cfg       *rewriteconfig.Config
	bundle    langconfig.Bundle
	provider  llmprovider.Provider
	embedder  embedprovider.Embedder
	clusterer cluster.Clusterer
	log       *slog.Logger
}

func newEngine(git *gitio.Adapter, cfg *rewriteconfig.Config, log *slog.Logger) (*engine, error) {
	bundle, err := langconfig.Load(cfg.CustomLanguageConfig)
	if err != nil {
		return nil, fmt.Errorf("engine: loading language config: %w", err)
	}

	return &engine{
		git:       git,
		cfg:       cfg,
		bundle:    bundle,
		provider:  llmprovider.NewAnthropicProvider("", cfg.Model),
		embedder:  embedprovider.NewHashingEmbedder(embeddingDimensions),
		clusterer: cluster.NewSingleLinkage(clusterThreshold),
		log:       log,
	}, nil
}

// pipelineResult is one run of the B..T rewrite pipeline.
type pipelineResult struct {
	NewTip   string
	Groups   []change.CommitGroup
	Rejected int
}

// run executes C2 through C13 over base..target, returning the hash of the
// last synthesized commit (or base unchanged if there was nothing to do).
func (e *engine) run(ctx context.Context, base, target string, paths []string) (*pipelineResult, error) {
	rawDiff, err := e.git.Diff(ctx, base, target, e.cfg.DiffContext, paths)
	if err != nil {
		return nil, err
	}

	binaryPaths, err := e.git.NumstatBinaryPaths(ctx, base, target, paths)
	if err != nil {
		return nil, err
	}

	hunks, err := diffparse.Parse(rawDiff, binaryPaths)
	if err != nil {
		return nil, err
	}

	chunks := diffparse.ToChunks(hunks, base, target)
	if len(chunks) == 0 {
		return &pipelineResult{NewTip: base}, nil
	}

	ctxMgr := astctx.NewManager(fileread.New(e.git), e.bundle, maxContextEntries)
	if err := ctxMgr.Prepare(ctx, chunks); err != nil {
		return nil, err
	}

	chunks = chunker.Chunk(chunks, chunkingLevel(e.cfg.ChunkingLevel), ctxMgr)

	if err := change.ValidateDisjoint(chunks); err != nil {
		return nil, fmt.Errorf("%w: %v", rewriteerr.ErrDiffParse, err)
	}

	containers := semantic.Group(chunks, ctxMgr, fallbackStrategy(e.cfg.FallbackStrategy))

	kept, secretRejected := filters.ScanSecrets(containers, secretAggression(e.cfg.SecretAggression))
	if len(secretRejected) > 0 {
		e.log.Warn("secret scanner rejected containers", "count", len(secretRejected))
	}

	kept, relevanceRejected, relErr := filters.Relevance(ctx, e.provider, kept, e.cfg.Intent, relevanceAggression(e.cfg.RelevanceAggression))
	if relErr != nil {
		e.log.Warn("relevance filter failed open", "error", relErr)
	}

	if len(relevanceRejected) > 0 {
		e.log.Info("relevance filter rejected containers", "count", len(relevanceRejected))
	}

	rejected := len(secretRejected) + len(relevanceRejected)

	if len(kept) == 0 {
		return &pipelineResult{NewTip: base, Rejected: rejected}, nil
	}

	groups, err := grouper.Group(ctx, e.provider, e.embedder, e.clusterer, kept, grouper.Config{
		Strategy:          grouper.Strategy(e.cfg.GroupingStrategy),
		MinimumCommitSize: e.cfg.MinimumCommitSize,
		Concurrency:       e.cfg.Concurrency,
		Intent:            e.cfg.Intent,
	})
	if err != nil {
		return nil, err
	}

	expectedTree, err := e.expectedTree(ctx, base, kept)
	if err != nil {
		return nil, err
	}

	identity, err := e.identity(ctx)
	if err != nil {
		return nil, err
	}

	_, newTip, err := orchestrator.Run(ctx, e.git, base, expectedTree, groups, identity)
	if err != nil {
		return nil, err
	}

	return &pipelineResult{NewTip: newTip, Groups: groups, Rejected: rejected}, nil
}

// expectedTree computes the tree the orchestrator must reproduce: base's
// tree plus every kept container's combined patch, applied in one scoped
// index. Containers dropped by the secret scanner or relevance filter never
// reach synthesis, so the orchestrator is asked to match this reduced tree
// rather than target's full tree.
func (e *engine) expectedTree(ctx context.Context, base string, kept []change.Container) (string, error) {
	combined := change.Composite(kept...)
	patch := patchgen.Patch(combined)

	idx, err := sandbox.Acquire(ctx, e.git)
	if err != nil {
		return "", err
	}
	defer idx.Release()

	if err := idx.Adapter.ReadTree(ctx, base); err != nil {
		return "", fmt.Errorf("engine: read-tree %s: %w", base, err)
	}

	if len(patch) > 0 {
		if err := idx.Adapter.ApplyCached(ctx, patch); err != nil {
			return "", err
		}
	}

	tree, err := idx.Adapter.WriteTree(ctx)
	if err != nil {
		return "", fmt.Errorf("engine: write-tree: %w", err)
	}

	return tree, nil
}

// identity resolves the author/committer stamp applied to every synthesized
// commit from the repository's configured user identity.
func (e *engine) identity(ctx context.Context) (orchestrator.Identity, error) {
	name, email, err := e.git.UserIdentity(ctx)
	if err != nil {
		return orchestrator.Identity{}, err
	}

	now := time.Now().Format(time.RFC3339)

	return orchestrator.Identity{
		AuthorName: name, AuthorEmail: email, AuthorDate: now,
		CommitterName: name, CommitterEmail: email, CommitterDate: now,
	}, nil
}
