// Package patchgen is C12: emitting bytewise-exact unified diffs per
// container (matching Git's own `diff --git` format) for patch application,
// and a human-readable semantic diff for display and LLM prompts.
//
// Every chunk's line-number anchors are absolute positions in a tree the
// orchestrator has already materialized via read-tree (see
// internal/orchestrator), so hunks are emitted with zero lines of
// surrounding unchanged context — precise line coordinates are sufficient
// for `git apply --cached` to locate and verify each hunk, and the engine
// never needs to reconstruct context the parser did not retain.
package patchgen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/recut-dev/recut/internal/change"
)

// Patch renders one container as a single bytewise-applicable unified diff,
// one diff --git block per canonical path, hunks ordered by old_start.
func Patch(c change.Container) []byte {
	var b strings.Builder

	for _, path := range c.CanonicalPaths() {
		b.WriteString(fileBlock(c, path))
	}

	return []byte(b.String())
}

func fileBlock(c change.Container, path string) string {
	var leaves []change.DiffChunk

	for _, leaf := range c.Leaves() {
		if leaf.CanonicalPath() == path {
			leaves = append(leaves, leaf)
		}
	}

	if len(leaves) == 0 {
		return ""
	}

	if leaves[0].Opaque {
		return opaqueBlock(leaves[0])
	}

	sort.SliceStable(leaves, func(i, j int) bool { return leaves[i].OldStart < leaves[j].OldStart })

	oldPath, newPath := leaves[0].OldPath, leaves[0].NewPath

	var b strings.Builder

	fmt.Fprintf(&b, "diff --git a/%s b/%s\n", sanitizePath(displayOld(oldPath, newPath)), sanitizePath(displayNew(oldPath, newPath)))

	if oldPath != "" && newPath != "" && oldPath != newPath {
		fmt.Fprintf(&b, "rename from %s\n", sanitizePath(oldPath))
		fmt.Fprintf(&b, "rename to %s\n", sanitizePath(newPath))
	}

	if oldPath == "" {
		mode := leaves[0].FileMode
		if mode == "" {
			mode = "100644"
		}

		fmt.Fprintf(&b, "new file mode %s\n", mode)
	}

	if newPath == "" {
		mode := leaves[0].FileMode
		if mode == "" {
			mode = "100644"
		}

		fmt.Fprintf(&b, "deleted file mode %s\n", mode)
	}

	oldMarker := pathMarker("a", oldPath)
	newMarker := pathMarker("b", newPath)

	fmt.Fprintf(&b, "--- %s\n", sanitizePath(oldMarker))
	fmt.Fprintf(&b, "+++ %s\n", sanitizePath(newMarker))

	for _, leaf := range leaves {
		b.WriteString(hunkText(leaf))
	}

	return b.String()
}

func displayOld(oldPath, newPath string) string {
	if oldPath != "" {
		return oldPath
	}

	return newPath
}

func displayNew(oldPath, newPath string) string {
	if newPath != "" {
		return newPath
	}

	return oldPath
}

func pathMarker(side, path string) string {
	if path == "" {
		return "/dev/null"
	}

	return side + "/" + path
}

// sanitizePath strips trailing tabs from path bytes, per §4.8's
// sanitization rule.
func sanitizePath(p string) string {
	return strings.TrimRight(p, "\t")
}

func hunkText(leaf change.DiffChunk) string {
	oldMin, oldMax := leaf.OldRange()
	newMin, newMax := leaf.NewRange()

	oldStart, oldLen := hunkRange(oldMin, oldMax, leaf.OldStart)
	newStart, newLen := hunkRange(newMin, newMax, leaf.OldStart)

	var b strings.Builder

	fmt.Fprintf(&b, "@@ -%s +%s @@\n", rangeField(oldStart, oldLen), rangeField(newStart, newLen))

	for _, l := range leaf.Lines {
		switch l.Kind {
		case change.Removal:
			b.WriteString("-")
			b.Write(l.Content)
			b.WriteString("\n")
		case change.Addition:
			b.WriteString("+")
			b.Write(l.Content)
			b.WriteString("\n")
		}
	}

	if leaf.ContainsNewlineFallback {
		b.WriteString("\\ No newline at end of file\n")
	}

	return b.String()
}

func hunkRange(min, max, fallbackStart int) (start, length int) {
	if min == 0 {
		return fallbackStart, 0
	}

	return min, max - min + 1
}

func rangeField(start, length int) string {
	if length == 1 {
		return fmt.Sprintf("%d", start)
	}

	return fmt.Sprintf("%d,%d", start, length)
}

func opaqueBlock(leaf change.DiffChunk) string {
	var b strings.Builder

	fmt.Fprintf(&b, "diff --git a/%s b/%s\n", sanitizePath(displayOld(leaf.OldPath, leaf.NewPath)), sanitizePath(displayNew(leaf.OldPath, leaf.NewPath)))
	b.Write(leaf.OpaqueBytes)

	return b.String()
}
