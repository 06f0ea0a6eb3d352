package patchgen

import (
	"fmt"
	"strings"

	"github.com/recut-dev/recut/internal/change"
)

// SemanticDiff renders a container as a human-readable diff for display and
// for LLM prompts: a heading per file naming the operation (modified,
// added, deleted, renamed), then per-hunk "Line N:" headers with +/- lines.
// Never used for patch application — see Patch for the bytewise format.
func SemanticDiff(c change.Container) string {
	var b strings.Builder

	for _, path := range c.CanonicalPaths() {
		semanticFileBlock(&b, c, path)
	}

	return b.String()
}

func semanticFileBlock(b *strings.Builder, c change.Container, path string) {
	var leaves []change.DiffChunk

	for _, leaf := range c.Leaves() {
		if leaf.CanonicalPath() == path {
			leaves = append(leaves, leaf)
		}
	}

	if len(leaves) == 0 {
		return
	}

	fmt.Fprintf(b, "### %s FILE: %s\n", fileOperation(leaves[0]), path)

	if leaves[0].Opaque {
		b.WriteString("(binary content omitted)\n\n")
		return
	}

	for _, leaf := range leaves {
		for _, l := range leaf.Lines {
			switch l.Kind {
			case change.Removal:
				fmt.Fprintf(b, "Line %d:\n-%s\n", l.OldLine, l.Content)
			case change.Addition:
				fmt.Fprintf(b, "Line %d:\n+%s\n", l.NewLine, l.Content)
			}
		}
	}

	b.WriteString("\n")
}

func fileOperation(leaf change.DiffChunk) string {
	switch {
	case leaf.OldPath == "":
		return "ADDED"
	case leaf.NewPath == "":
		return "DELETED"
	case leaf.OldPath != leaf.NewPath:
		return "RENAMED"
	default:
		return "MODIFIED"
	}
}
