package semantic

import (
	"bytes"
	"path/filepath"
	"sort"
	"strings"

	"github.com/recut-dev/recut/internal/astctx"
	"github.com/recut-dev/recut/internal/change"
)

// FallbackStrategy decides grouping for containers whose signature is
// invalid (no symbol found on either side).
type FallbackStrategy string

const (
	AllTogether    FallbackStrategy = "all_together"
	ByFilePath     FallbackStrategy = "by_file_path"
	ByFileName     FallbackStrategy = "by_file_name"
	ByFileExtension FallbackStrategy = "by_file_extension"
	AllAlone       FallbackStrategy = "all_alone"
)

// Group runs the two-pass semantic grouping of §4.5 over chunks and returns
// the flat list of resulting containers, each one semantic cluster.
func Group(chunks []change.DiffChunk, ctxMgr *astctx.Manager, fallback FallbackStrategy) []change.Container {
	containers := contextGroupingPass(chunks, ctxMgr)

	return signatureGroupingPass(containers, ctxMgr, fallback)
}

// contextGroupingPass folds context-only chunks (every non-blank line a
// pure comment) into the following code chunk within each file, processing
// files independently and chunks sorted by (old_start, min addition line).
func contextGroupingPass(chunks []change.DiffChunk, ctxMgr *astctx.Manager) []change.Container {
	byFile := map[string][]change.DiffChunk{}

	var opaque []change.DiffChunk

	for _, c := range chunks {
		if c.Opaque {
			opaque = append(opaque, c)

			continue
		}

		byFile[c.CanonicalPath()] = append(byFile[c.CanonicalPath()], c)
	}

	var out []change.Container

	paths := make([]string, 0, len(byFile))
	for p := range byFile {
		paths = append(paths, p)
	}

	sort.Strings(paths)

	for _, path := range paths {
		fileChunks := byFile[path]

		sort.SliceStable(fileChunks, func(i, j int) bool {
			if fileChunks[i].OldStart != fileChunks[j].OldStart {
				return fileChunks[i].OldStart < fileChunks[j].OldStart
			}

			return minAdditionLine(fileChunks[i]) < minAdditionLine(fileChunks[j])
		})

		out = append(out, foldFile(fileChunks, ctxMgr)...)
	}

	for _, op := range opaque {
		out = append(out, change.Leaf(op))
	}

	return out
}

func minAdditionLine(c change.DiffChunk) int {
	minLine := 0

	for _, l := range c.Lines {
		if l.Kind != change.Addition {
			continue
		}

		if minLine == 0 || l.NewLine < minLine {
			minLine = l.NewLine
		}
	}

	return minLine
}

func foldFile(chunks []change.DiffChunk, ctxMgr *astctx.Manager) []change.Container {
	var (
		groups  [][]change.Container
		pending []change.Container
	)

	for _, c := range chunks {
		leaf := change.Leaf(c)

		if isContextOnly(c, ctxMgr) {
			pending = append(pending, leaf)

			continue
		}

		group := append(append([]change.Container{}, pending...), leaf)
		groups = append(groups, group)
		pending = nil
	}

	if len(pending) > 0 {
		if len(groups) > 0 {
			groups[len(groups)-1] = append(groups[len(groups)-1], pending...)
		} else {
			groups = append(groups, pending)
		}
	}

	out := make([]change.Container, len(groups))
	for i, g := range groups {
		out[i] = change.Composite(g...)
	}

	return out
}

func isContextOnly(c change.DiffChunk, ctxMgr *astctx.Manager) bool {
	if ctxMgr == nil {
		return false
	}

	isOldSide := len(c.Lines) > 0 && c.Lines[0].Kind == change.Removal

	path, commit := c.NewPath, c.NewCommit
	if isOldSide {
		path, commit = c.OldPath, c.BaseCommit
	}

	actx, ok := ctxMgr.Get(path, commit)
	if !ok || !actx.Available {
		return false
	}

	hasLine := false

	for _, l := range c.Lines {
		if len(bytes.TrimSpace(l.Content)) == 0 {
			continue
		}

		hasLine = true

		line := l.NewLine - 1
		if l.Kind == change.Removal {
			line = l.OldLine - 1
		}

		if !actx.PureCommentLines[line] {
			return false
		}
	}

	return hasLine
}

// signatureGroupingPass unions containers whose signatures overlap via a
// union-find structure; containers with an invalid signature are routed to
// the fallback pool.
type labeledContainer struct {
	container change.Container
	sig       change.Signature
	opaque    bool
}

func signatureGroupingPass(containers []change.Container, ctxMgr *astctx.Manager, fallback FallbackStrategy) []change.Container {
	entries := make([]labeledContainer, len(containers))

	var validIdx []int

	for i, c := range containers {
		opaque := isOpaqueContainer(c)

		var sig change.Signature
		if !opaque {
			sig = Label(c, ctxMgr)
		}

		entries[i] = labeledContainer{container: c, sig: sig, opaque: opaque}

		if !opaque && sig.Valid() {
			validIdx = append(validIdx, i)
		}
	}

	uf := newUnionFind(len(entries))

	for a := 0; a < len(validIdx); a++ {
		for b := a + 1; b < len(validIdx); b++ {
			i, j := validIdx[a], validIdx[b]
			if entries[i].sig.Overlaps(entries[j].sig) {
				uf.union(i, j)
			}
		}
	}

	groups := map[int][]int{}
	for i := range entries {
		root := uf.find(i)
		groups[root] = append(groups[root], i)
	}

	var out []change.Container

	var invalidIdx []int

	seen := map[int]bool{}

	for _, idx := range validIdx {
		root := uf.find(idx)
		if seen[root] {
			continue
		}

		seen[root] = true

		members := groups[root]

		sort.Ints(members)

		children := make([]change.Container, 0, len(members))
		for _, m := range members {
			children = append(children, entries[m].container)
		}

		out = append(out, change.Composite(children...))
	}

	for i, e := range entries {
		if e.opaque || !e.sig.Valid() {
			invalidIdx = append(invalidIdx, i)
		}
	}

	out = append(out, applyFallback(entries, invalidIdx, fallback)...)

	return out
}

func isOpaqueContainer(c change.Container) bool {
	for _, leaf := range c.Leaves() {
		if leaf.Opaque {
			return true
		}
	}

	return false
}

func applyFallback(entries []labeledContainer, idx []int, strategy FallbackStrategy) []change.Container {
	if len(idx) == 0 {
		return nil
	}

	switch strategy {
	case ByFilePath:
		return bucketBy(entries, idx, func(c change.Container) string {
			return firstPath(c)
		})
	case ByFileName:
		return bucketBy(entries, idx, func(c change.Container) string {
			return filepath.Base(firstPath(c))
		})
	case ByFileExtension:
		return bucketBy(entries, idx, extensionKey)
	case AllAlone:
		var out []change.Container
		for _, i := range idx {
			out = append(out, entries[i].container)
		}

		return out
	default: // AllTogether
		var children []change.Container
		for _, i := range idx {
			children = append(children, entries[i].container)
		}

		return []change.Container{change.Composite(children...)}
	}
}

func bucketBy(entries []labeledContainer, idx []int, key func(change.Container) string) []change.Container {
	buckets := map[string][]change.Container{}

	var order []string

	for _, i := range idx {
		k := key(entries[i].container)
		if _, ok := buckets[k]; !ok {
			order = append(order, k)
		}

		buckets[k] = append(buckets[k], entries[i].container)
	}

	var out []change.Container

	for _, k := range order {
		out = append(out, change.Composite(buckets[k]...))
	}

	return out
}

func firstPath(c change.Container) string {
	paths := c.CanonicalPaths()
	if len(paths) == 0 {
		return ""
	}

	return paths[0]
}

// extensionKey classifies a dotfile (".gitignore") by its name minus the
// leading dot ("gitignore"), not as empty-extension — see DESIGN.md's
// recorded decision for this Open Question.
func extensionKey(c change.Container) string {
	name := filepath.Base(firstPath(c))

	ext := filepath.Ext(name)
	if ext != "" {
		return strings.TrimPrefix(ext, ".")
	}

	if strings.HasPrefix(name, ".") && len(name) > 1 {
		return name[1:]
	}

	return name
}

// unionFind is a plain union-find over container indices.
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}

	return &unionFind{parent: parent, rank: make([]int, n)}
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}

	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}

	if u.rank[ra] < u.rank[rb] {
		ra, rb = rb, ra
	}

	u.parent[rb] = ra

	if u.rank[ra] == u.rank[rb] {
		u.rank[ra]++
	}
}
