// Package astctx is C7: the context manager. It derives the demand set from
// a run's diff chunks, reads every demanded (path, commit) via one batched
// cat-file call, parses and runs the four C6 queries, and memoizes the
// result for the lifetime of one command.
package astctx

import (
	"context"
	"fmt"
	"sort"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
	"github.com/src-d/enry/v2"

	"github.com/recut-dev/recut/internal/change"
	"github.com/recut-dev/recut/internal/fileread"
	"github.com/recut-dev/recut/internal/langconfig"
	"github.com/recut-dev/recut/pkg/alg/lru"
	"github.com/recut-dev/recut/pkg/mathutil"
	"github.com/recut-dev/recut/pkg/textutil"
	"github.com/recut-dev/recut/pkg/uast"
)

// demand is the (path, commit) key queries are issued against.
type demand struct {
	Path   string
	Commit string
}

// Context is the per-(path, commit) analysis artifact: parsed AST root plus
// the three derived maps, per §3's "Analysis context" data model.
type Context struct {
	Path     string
	Commit   string
	Language string

	Available bool // false if unknown language or a parse error touched a demanded range

	content []byte
	tree    *sitter.Tree

	// ScopeMap maps a 0-based line to the IDs of scopes enclosing it.
	ScopeMap map[int][]int
	// SymbolMap maps a 0-based line to the qualified symbol tokens touching it.
	SymbolMap map[int][]string
	// PureCommentLines is the set of 0-based lines whose non-whitespace
	// content lies entirely inside a comment node.
	PureCommentLines map[int]bool

	Scopes []change.Scope
}

// Manager owns every Context created during one command invocation.
// Read-only from the perspective of downstream consumers once Prepare
// returns, per §4.4's concurrency contract.
type Manager struct {
	reader fileread.Reader
	bundle langconfig.Bundle
	cache  *lru.Cache[demand, *Context]
}

// NewManager constructs a context manager bounded by maxEntries memoized
// contexts (0 disables the bound).
func NewManager(reader fileread.Reader, bundle langconfig.Bundle, maxEntries int) *Manager {
	var opts []lru.Option[demand, *Context]
	if maxEntries > 0 {
		opts = append(opts, lru.WithMaxEntries[demand, *Context](maxEntries))
	}

	return &Manager{reader: reader, bundle: bundle, cache: lru.New(opts...)}
}

// Prepare derives the demand set for chunks and populates every context in
// one batched read, per §4.4 steps 1-5.
func (m *Manager) Prepare(ctx context.Context, chunks []change.DiffChunk) error {
	demands := deriveDemands(chunks)
	if len(demands) == 0 {
		return nil
	}

	commits := make([]string, len(demands))
	paths := make([]string, len(demands))

	for i, d := range demands {
		commits[i], paths[i] = d.Commit, d.Path
	}

	contents, err := m.reader.Read(ctx, commits, paths)
	if err != nil {
		return fmt.Errorf("astctx: batch read: %w", err)
	}

	ranges := lineRangesByDemand(chunks)

	for i, d := range demands {
		content := contents[i]
		if content == nil {
			m.cache.Put(d, &Context{Path: d.Path, Commit: d.Commit, Available: false})

			continue
		}

		m.cache.Put(d, buildContext(d, content, m.bundle, ranges[d]))
	}

	return nil
}

// deriveDemands computes, for each chunk, (old-path, B) if any removal
// exists and (new-path, T) if any addition exists; a file addition demands
// only (new-path, T), a deletion only (old-path, B).
func deriveDemands(chunks []change.DiffChunk) []demand {
	seen := map[demand]bool{}

	var out []demand

	add := func(d demand) {
		if d.Path == "" || seen[d] {
			return
		}

		seen[d] = true

		out = append(out, d)
	}

	for _, c := range chunks {
		if c.Opaque {
			continue
		}

		hasRemoval, hasAddition := false, false

		for _, l := range c.Lines {
			if l.Kind == change.Removal {
				hasRemoval = true
			} else {
				hasAddition = true
			}
		}

		if c.IsFileAddition() {
			add(demand{Path: c.NewPath, Commit: c.NewCommit})

			continue
		}

		if c.IsFileDeletion() {
			add(demand{Path: c.OldPath, Commit: c.BaseCommit})

			continue
		}

		if hasRemoval && c.OldPath != "" {
			add(demand{Path: c.OldPath, Commit: c.BaseCommit})
		}

		if hasAddition && c.NewPath != "" {
			add(demand{Path: c.NewPath, Commit: c.NewCommit})
		}
	}

	return out
}

// lineRangesByDemand computes each demand's coalesced line-range coverage:
// every chunk's touching range on that (path, commit), adjacent/overlapping
// ranges merged to reduce query work.
func lineRangesByDemand(chunks []change.DiffChunk) map[demand][]uast.LineRange {
	raw := map[demand][]uast.LineRange{}

	for _, c := range chunks {
		if c.Opaque {
			continue
		}

		if oldMin, oldMax := c.OldRange(); oldMin != 0 && c.OldPath != "" {
			d := demand{Path: c.OldPath, Commit: c.BaseCommit}
			raw[d] = append(raw[d], uast.LineRange{Start: oldMin - 1, End: oldMax - 1})
		}

		if newMin, newMax := c.NewRange(); newMin != 0 && c.NewPath != "" {
			d := demand{Path: c.NewPath, Commit: c.NewCommit}
			raw[d] = append(raw[d], uast.LineRange{Start: newMin - 1, End: newMax - 1})
		}
	}

	out := make(map[demand][]uast.LineRange, len(raw))
	for d, ranges := range raw {
		out[d] = coalesce(ranges)
	}

	return out
}

func coalesce(ranges []uast.LineRange) []uast.LineRange {
	if len(ranges) == 0 {
		return nil
	}

	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Start < ranges[j].Start })

	out := []uast.LineRange{ranges[0]}

	for _, r := range ranges[1:] {
		last := &out[len(out)-1]
		if r.Start <= last.End+1 {
			last.End = mathutil.Max(last.End, r.End)

			continue
		}

		out = append(out, r)
	}

	return out
}

// buildContext parses content, detects language via enry, and runs the four
// C6 queries over ranges.
func buildContext(d demand, content []byte, bundle langconfig.Bundle, ranges []uast.LineRange) *Context {
	if textutil.IsBinary(content) {
		return &Context{Path: d.Path, Commit: d.Commit, Available: false, content: content}
	}

	lang := detectLanguage(d.Path, content)
	if lang == "" {
		return &Context{Path: d.Path, Commit: d.Commit, Available: false, content: content}
	}

	queries := bundle.For(lang)

	parser, err := uast.NewParser(lang)
	if err != nil {
		return &Context{Path: d.Path, Commit: d.Commit, Language: lang, Available: false, content: content}
	}

	tree, err := parser.Parse(context.Background(), content)
	if err != nil {
		return &Context{Path: d.Path, Commit: d.Commit, Language: lang, Available: false, content: content}
	}

	root := tree.RootNode()

	c := &Context{
		Path:             d.Path,
		Commit:           d.Commit,
		Language:         lang,
		Available:        true,
		content:          content,
		tree:             tree,
		ScopeMap:         map[int][]int{},
		SymbolMap:        map[int][]string{},
		PureCommentLines: map[int]bool{},
	}

	scopeMatches, _ := uast.RunQuery(lang, queries.Scope, root, content, ranges)
	c.buildScopes(scopeMatches)

	defMatches, _ := uast.RunQuery(lang, queries.TokenDefinition, root, content, ranges)
	refMatches, _ := uast.RunQuery(lang, queries.TokenReference, root, content, ranges)
	c.indexSymbols(defMatches)
	c.indexSymbols(refMatches)

	commentMatches, _ := uast.RunQuery(lang, queries.Comment, root, content, ranges)
	c.markPureComments(commentMatches)

	return c
}

func (c *Context) buildScopes(matches map[string][]uast.Match) {
	for _, m := range matches["scope"] {
		id := len(c.Scopes)
		c.Scopes = append(c.Scopes, change.Scope{ID: id, Kind: "scope", StartLine: m.StartLine, EndLine: m.EndLine, Parent: -1})

		for line := m.StartLine; line <= m.EndLine; line++ {
			c.ScopeMap[line] = append(c.ScopeMap[line], id)
		}
	}
}

func (c *Context) indexSymbols(matches map[string][]uast.Match) {
	for capture, list := range matches {
		for _, m := range list {
			token := uast.QualifiedToken(capture, m.Text)

			for line := m.StartLine; line <= m.EndLine; line++ {
				c.SymbolMap[line] = append(c.SymbolMap[line], token)
			}
		}
	}
}

func (c *Context) markPureComments(matches map[string][]uast.Match) {
	for _, m := range matches["comment"] {
		for line := m.StartLine; line <= m.EndLine; line++ {
			c.PureCommentLines[line] = true
		}
	}
}

// detectLanguage maps enry's language name to the lowercase key the
// langconfig bundle and uast language registry both use.
func detectLanguage(path string, content []byte) string {
	name := enry.GetLanguage(path, content)
	if name == "" {
		return ""
	}

	return normalizeLanguageName(name)
}

var languageAliases = map[string]string{
	"Go":           "go",
	"Python":       "python",
	"JavaScript":   "javascript",
	"TypeScript":   "typescript",
	"TSX":          "tsx",
	"Java":         "java",
	"C":            "c",
	"C++":          "cpp",
	"C#":           "c_sharp",
	"Ruby":         "ruby",
	"Rust":         "rust",
	"PHP":          "php",
	"Kotlin":       "kotlin",
	"Scala":        "scala",
	"Swift":        "swift",
	"Lua":          "lua",
	"Shell":        "bash",
	"Haskell":      "haskell",
}

func normalizeLanguageName(enryName string) string {
	return languageAliases[enryName]
}

// HasContext reports whether a context exists and has usable analysis for
// (path, commit); isOld is informational for callers that track which side
// of a chunk they're asking about.
func (m *Manager) HasContext(path, commit string, isOld bool) bool {
	c, ok := m.Get(path, commit)

	return ok && c.Available
}

// Get returns the memoized context for (path, commit), if prepared.
func (m *Manager) Get(path, commit string) (*Context, bool) {
	return m.cache.Get(demand{Path: path, Commit: commit})
}
