package change

// Container is the polymorphic unit the grouper operates on: either a
// single atomic DiffChunk or a composite ordered list of child containers.
// Every operation is a method on the variant (per the arena/tagged-variant
// design note) rather than an inheritance hierarchy — composites never
// mutate their leaves, they only aggregate.
type Container struct {
	chunk    *DiffChunk  // set iff this is a leaf
	children []Container // set iff this is a composite
}

// Leaf wraps a single DiffChunk as an atomic container.
func Leaf(c DiffChunk) Container {
	cc := c

	return Container{chunk: &cc}
}

// Composite folds children into one container. A composite with a single
// child is still a composite — callers that need atomicity should check
// IsLeaf.
func Composite(children ...Container) Container {
	return Container{children: children}
}

// IsLeaf reports whether this container wraps exactly one DiffChunk.
func (c Container) IsLeaf() bool {
	return c.chunk != nil
}

// Chunk returns the wrapped chunk and true if this is a leaf container.
func (c Container) Chunk() (DiffChunk, bool) {
	if c.chunk == nil {
		return DiffChunk{}, false
	}

	return *c.chunk, true
}

// Leaves flattens the container into its ordered list of leaf chunks.
func (c Container) Leaves() []DiffChunk {
	if c.chunk != nil {
		return []DiffChunk{*c.chunk}
	}

	var out []DiffChunk

	for _, child := range c.children {
		out = append(out, child.Leaves()...)
	}

	return out
}

// CanonicalPaths returns the deduplicated, order-preserving set of canonical
// paths touched by this container's leaves.
func (c Container) CanonicalPaths() []string {
	seen := map[string]bool{}

	var out []string

	for _, leaf := range c.Leaves() {
		p := leaf.CanonicalPath()
		if !seen[p] {
			seen[p] = true

			out = append(out, p)
		}
	}

	return out
}

// HunkRange is one chunk's old/new line span, keyed by path in HunkRanges.
type HunkRange struct {
	OldStart, OldLen, NewStart, NewLen int
}

// HunkRanges aggregates every leaf's line span, keyed by canonical path.
func (c Container) HunkRanges() map[string][]HunkRange {
	out := map[string][]HunkRange{}

	for _, leaf := range c.Leaves() {
		if leaf.Opaque {
			continue
		}

		oldMin, oldMax := leaf.OldRange()
		newMin, newMax := leaf.NewRange()

		r := HunkRange{OldStart: oldMin, NewStart: newMin}
		if oldMin != 0 {
			r.OldLen = oldMax - oldMin + 1
		}

		if newMin != 0 {
			r.NewLen = newMax - newMin + 1
		}

		path := leaf.CanonicalPath()
		out[path] = append(out[path], r)
	}

	return out
}

// Size is the total additions+removals across the container's leaves, or 1
// per opaque leaf (per C11's minimum-commit-size pass definition).
func (c Container) Size() int {
	total := 0

	for _, leaf := range c.Leaves() {
		if leaf.Opaque {
			total++

			continue
		}

		total += len(leaf.Lines)
	}

	return total
}

// CommitGroup pairs a container with the commit message logical grouping
// assigned it — the final output of C11.
type CommitGroup struct {
	Container Container
	Message   string
}
