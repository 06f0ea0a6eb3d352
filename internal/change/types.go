// Package change holds the typed representation of a parsed diff: hunks,
// line changes, atomic diff chunks, and the composite container variant the
// grouper folds them into. Nothing in this package touches Git or the
// filesystem; it is pure data plus the invariants the rest of the engine
// leans on.
package change

import (
	"fmt"

	"github.com/recut-dev/recut/pkg/mathutil"
)

// Kind tags a LineChange as an addition or a removal.
type Kind int

const (
	// Addition is a line present only in the new file.
	Addition Kind = iota
	// Removal is a line present only in the old file.
	Removal
)

// LineChange is one added or removed line, with both line-number anchors
// (the unused anchor is 0: OldLine is 0 for a pure addition, NewLine is 0
// for a pure removal).
type LineChange struct {
	Kind    Kind
	Content []byte
	OldLine int
	NewLine int
}

// Hunk is one parser-level diff hunk: either a textual hunk with a body of
// line changes, or an opaque hunk (binary/submodule) holding only the
// canonical path and verbatim patch bytes.
type Hunk struct {
	OldPath  string // empty for file additions
	NewPath  string // empty for file deletions
	FileMode string
	OldStart int
	NewStart int
	Lines    []LineChange

	Opaque      bool
	OpaqueBytes []byte

	// ContainsNewlineFallback records a "\ No newline at end of file" marker
	// on this hunk's trailing line.
	ContainsNewlineFallback bool
}

// CanonicalPath is the path the engine indexes this hunk under: NewPath if
// present, else OldPath.
func (h Hunk) CanonicalPath() string {
	if h.NewPath != "" {
		return h.NewPath
	}

	return h.OldPath
}

// DiffChunk is the atomic change unit: immutable, touches exactly one
// path-pair, and carries the invariants checked before any write-out (see
// Validate).
type DiffChunk struct {
	ID int

	BaseCommit string
	NewCommit  string

	OldPath  string // empty => file addition
	NewPath  string // empty => file deletion
	FileMode string

	Lines    []LineChange
	OldStart int

	ContainsNewlineFallback bool

	Opaque      bool
	OpaqueBytes []byte
}

// CanonicalPath mirrors Hunk.CanonicalPath for a chunk.
func (c DiffChunk) CanonicalPath() string {
	if c.NewPath != "" {
		return c.NewPath
	}

	return c.OldPath
}

// IsFileAddition reports whether this chunk represents a whole new file.
func (c DiffChunk) IsFileAddition() bool {
	return c.OldPath == "" && c.NewPath != ""
}

// IsFileDeletion reports whether this chunk represents a whole file removed:
// NewPath is empty and every removal line number from 1..N is covered by the
// chunk (i.e. the chunk's removals span the entire old file).
func (c DiffChunk) IsFileDeletion() bool {
	if c.NewPath != "" || c.OldPath == "" {
		return false
	}

	seen := map[int]bool{}
	maxLine := 0

	for _, l := range c.Lines {
		if l.Kind != Removal {
			return false
		}

		seen[l.OldLine] = true

		if l.OldLine > maxLine {
			maxLine = l.OldLine
		}
	}

	for i := 1; i <= maxLine; i++ {
		if !seen[i] {
			return false
		}
	}

	return maxLine > 0
}

// IsFileRename reports whether old and new paths differ.
func (c DiffChunk) IsFileRename() bool {
	return c.OldPath != "" && c.NewPath != "" && c.OldPath != c.NewPath
}

// OldRange returns the inclusive [min,max] old-file line range touched by
// this chunk's removal lines, or (0, 0) if it has none.
func (c DiffChunk) OldRange() (min, max int) {
	return lineRange(c.Lines, Removal, func(l LineChange) int { return l.OldLine })
}

// NewRange returns the inclusive [min,max] new-file line range touched by
// this chunk's addition lines, or (0, 0) if it has none.
func (c DiffChunk) NewRange() (min, max int) {
	return lineRange(c.Lines, Addition, func(l LineChange) int { return l.NewLine })
}

func lineRange(lines []LineChange, kind Kind, pick func(LineChange) int) (min, max int) {
	for _, l := range lines {
		if l.Kind != kind {
			continue
		}

		n := pick(l)
		if min == 0 || n < min {
			min = n
		}

		max = mathutil.Max(max, n)
	}

	return min, max
}

// ErrOverlap is returned by Validate when two chunks on the same canonical
// path have overlapping old-coordinate or new-coordinate ranges.
type ErrOverlap struct {
	Path     string
	ChunkA   int
	ChunkB   int
}

func (e *ErrOverlap) Error() string {
	return fmt.Sprintf("chunks %d and %d overlap on %q", e.ChunkA, e.ChunkB, e.Path)
}

// ValidateDisjoint checks invariant (iv): any two chunks sharing a canonical
// path must be disjoint in old-coordinate ranges and in new-coordinate
// ranges. Opaque chunks are excluded (they carry no line coordinates).
func ValidateDisjoint(chunks []DiffChunk) error {
	byPath := map[string][]DiffChunk{}

	for _, c := range chunks {
		if c.Opaque {
			continue
		}

		byPath[c.CanonicalPath()] = append(byPath[c.CanonicalPath()], c)
	}

	for path, group := range byPath {
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if rangesOverlap(group[i], group[j]) {
					return &ErrOverlap{Path: path, ChunkA: group[i].ID, ChunkB: group[j].ID}
				}
			}
		}
	}

	return nil
}

func rangesOverlap(a, b DiffChunk) bool {
	aMinO, aMaxO := a.OldRange()
	bMinO, bMaxO := b.OldRange()

	if aMinO != 0 && bMinO != 0 && intervalsOverlap(aMinO, aMaxO, bMinO, bMaxO) {
		return true
	}

	aMinN, aMaxN := a.NewRange()
	bMinN, bMaxN := b.NewRange()

	if aMinN != 0 && bMinN != 0 && intervalsOverlap(aMinN, aMaxN, bMinN, bMaxN) {
		return true
	}

	return false
}

func intervalsOverlap(aMin, aMax, bMin, bMax int) bool {
	return aMin <= bMax && bMin <= aMax
}
