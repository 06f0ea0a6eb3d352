package diffparse

import "github.com/recut-dev/recut/internal/change"

// ToChunks converts parsed hunks into atomic change.DiffChunk values,
// stamping each with the commit pair it was diffed between and a
// process-local sequential ID. One hunk produces exactly one chunk; further
// splitting is the atomic chunker's job (C4).
func ToChunks(hunks []change.Hunk, base, target string) []change.DiffChunk {
	chunks := make([]change.DiffChunk, 0, len(hunks))

	for i, h := range hunks {
		chunks = append(chunks, change.DiffChunk{
			ID:                      i,
			BaseCommit:              base,
			NewCommit:               target,
			OldPath:                 h.OldPath,
			NewPath:                 h.NewPath,
			FileMode:                h.FileMode,
			Lines:                   h.Lines,
			OldStart:                h.OldStart,
			ContainsNewlineFallback: h.ContainsNewlineFallback,
			Opaque:                  h.Opaque,
			OpaqueBytes:             h.OpaqueBytes,
		})
	}

	return chunks
}
