// Package chunker is C4: the atomic chunker. It splits pure-addition or
// pure-removal hunks into the smallest defensible units, gluing blank and
// comment-only lines to the nearest following (or, failing that, preceding)
// code line, so every emitted unit carries at least one semantically
// non-trivial line for the labeller to work with.
package chunker

import (
	"bytes"

	"github.com/recut-dev/recut/internal/astctx"
	"github.com/recut-dev/recut/internal/change"
)

// Level is the three-valued chunking level from configuration.
type Level int

const (
	// None passes every chunk through unchanged.
	None Level = iota
	// FullFiles splits only chunks representing a whole-file add/delete.
	FullFiles
	// AllFiles splits every pure-addition or pure-deletion hunk.
	AllFiles
)

// Chunk splits chunks per level, reassigning sequential IDs across the
// output. ctxMgr supplies pure-comment-line classification; it may be nil,
// in which case only blank-line context detection applies.
func Chunk(chunks []change.DiffChunk, level Level, ctxMgr *astctx.Manager) []change.DiffChunk {
	var out []change.DiffChunk

	for _, c := range chunks {
		for _, split := range splitOne(c, level, ctxMgr) {
			split.ID = len(out)
			out = append(out, split)
		}
	}

	return out
}

func splitOne(c change.DiffChunk, level Level, ctxMgr *astctx.Manager) []change.DiffChunk {
	if c.Opaque || level == None {
		return []change.DiffChunk{c}
	}

	if !eligible(c, level) {
		return []change.DiffChunk{c}
	}

	return splitPure(c, ctxMgr)
}

// eligible reports whether c's body is exclusively additions or exclusively
// removals, and whether level authorizes splitting it: FullFiles only for
// whole-file adds/deletes, AllFiles for any pure hunk.
func eligible(c change.DiffChunk, level Level) bool {
	if !isPure(c) {
		return false
	}

	switch level {
	case AllFiles:
		return true
	case FullFiles:
		return c.IsFileAddition() || c.IsFileDeletion()
	default:
		return false
	}
}

func isPure(c change.DiffChunk) bool {
	hasAdd, hasDel := false, false

	for _, l := range c.Lines {
		if l.Kind == change.Addition {
			hasAdd = true
		} else {
			hasDel = true
		}

		if hasAdd && hasDel {
			return false
		}
	}

	return hasAdd != hasDel
}

// splitPure sweeps c's lines, accumulating context lines into a pending
// buffer and emitting one new chunk per (pending ++ code-line) group.
// Trailing context with no following code merges into the last emitted
// chunk; if the whole hunk is context, one chunk holding it all is emitted.
func splitPure(c change.DiffChunk, ctxMgr *astctx.Manager) []change.DiffChunk {
	isOld := isPure(c) && len(c.Lines) > 0 && c.Lines[0].Kind == change.Removal

	var pureComments map[int]bool
	if ctxMgr != nil {
		path, commit := c.NewPath, c.NewCommit
		if isOld {
			path, commit = c.OldPath, c.BaseCommit
		}

		if actx, ok := ctxMgr.Get(path, commit); ok && actx.Available {
			pureComments = actx.PureCommentLines
		}
	}

	var (
		out     []change.DiffChunk
		pending []change.LineChange
	)

	lineIndex := func(l change.LineChange) int {
		if l.Kind == change.Addition {
			return l.NewLine - 1
		}

		return l.OldLine - 1
	}

	isContext := func(l change.LineChange) bool {
		if len(bytes.TrimSpace(l.Content)) == 0 {
			return true
		}

		return pureComments != nil && pureComments[lineIndex(l)]
	}

	emit := func(lines []change.LineChange) {
		cc := c
		cc.Lines = lines
		cc.OldStart = anchorFor(lines, c)
		out = append(out, cc)
	}

	for _, l := range c.Lines {
		if isContext(l) {
			pending = append(pending, l)

			continue
		}

		group := append(append([]change.LineChange{}, pending...), l)
		emit(group)
		pending = nil
	}

	if len(pending) > 0 {
		if len(out) > 0 {
			last := &out[len(out)-1]
			last.Lines = append(last.Lines, pending...)
		} else {
			emit(pending)
		}
	}

	if len(out) == 0 {
		return []change.DiffChunk{c}
	}

	return out
}

// anchorFor recomputes OldStart for a split: the old-file line immediately
// preceding this group's first line, falling back to the parent chunk's
// anchor for pure additions (which carry no old-line numbers).
func anchorFor(lines []change.LineChange, parent change.DiffChunk) int {
	for _, l := range lines {
		if l.Kind == change.Removal {
			return l.OldLine
		}
	}

	return parent.OldStart
}
