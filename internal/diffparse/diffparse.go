// Package diffparse implements C2: turning the byte stream of
// `git diff --binary --no-color -U<N> base..target` into an ordered list of
// change.Hunk values, with binary/submodule files represented as opaque
// hunks.
package diffparse

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/recut-dev/recut/internal/change"
	"github.com/recut-dev/recut/internal/rewriteerr"
)

var (
	gitHeaderPrefix  = []byte("diff --git ")
	newFileMode      = []byte("new file mode ")
	deletedFileMode  = []byte("deleted file mode ")
	oldModeLine      = []byte("old mode ")
	newModeLine      = []byte("new mode ")
	indexLine        = []byte("index ")
	oldPathMarker    = []byte("--- ")
	newPathMarker    = []byte("+++ ")
	binaryDiffers    = []byte("Binary files ")
	noNewlineMarker  = []byte("\\ No newline at end of file")
	hunkHeaderPrefix = []byte("@@ ")
	devNull          = "/dev/null"
)

// Parse parses raw diff output. binaryPaths (from a parallel --numstat call,
// per §4.1) marks canonical paths that are binary; those files' bodies are
// captured verbatim as opaque hunks rather than walked line by line.
func Parse(raw []byte, binaryPaths map[string]bool) ([]change.Hunk, error) {
	var hunks []change.Hunk

	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	var (
		curOldPath, curNewPath, curMode string
		fileBodyStart                   int
		fileLines                       []string
	)

	flushFile := func() error {
		if curOldPath == "" && curNewPath == "" {
			return nil
		}

		path := curNewPath
		if path == "" {
			path = curOldPath
		}

		if binaryPaths[path] {
			hunks = append(hunks, change.Hunk{
				OldPath:     curOldPath,
				NewPath:     curNewPath,
				FileMode:    curMode,
				Opaque:      true,
				OpaqueBytes: []byte(strings.Join(fileLines, "\n") + "\n"),
			})

			return nil
		}

		fh, err := parseFileHunks(fileLines[fileBodyStart:], curOldPath, curNewPath, curMode)
		if err != nil {
			return err
		}

		hunks = append(hunks, fh...)

		return nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		b := []byte(line)

		if bytes.HasPrefix(b, gitHeaderPrefix) {
			if err := flushFile(); err != nil {
				return nil, err
			}

			curOldPath, curNewPath = pathsFromGitHeader(line)
			curMode = ""
			fileLines = nil
			fileBodyStart = 0

			continue
		}

		if curOldPath == "" && curNewPath == "" {
			// Stray line before any "diff --git" header; not a diff we parse.
			continue
		}

		switch {
		case bytes.HasPrefix(b, newFileMode):
			curOldPath = ""
			curMode = strings.TrimPrefix(line, string(newFileMode))
		case bytes.HasPrefix(b, deletedFileMode):
			curNewPath = ""
			curMode = strings.TrimPrefix(line, string(deletedFileMode))
		case bytes.HasPrefix(b, newModeLine):
			curMode = strings.TrimPrefix(line, string(newModeLine))
		case bytes.HasPrefix(b, oldModeLine):
			// informational only when both old/new mode lines present without add/delete.
		case bytes.HasPrefix(b, indexLine):
			// informational only.
		case bytes.HasPrefix(b, oldPathMarker):
			p := strings.TrimPrefix(line, string(oldPathMarker))
			if p == devNull {
				curOldPath = ""
			} else {
				curOldPath = stripPrefixAB(p)
			}
		case bytes.HasPrefix(b, newPathMarker):
			p := strings.TrimPrefix(line, string(newPathMarker))
			if p == devNull {
				curNewPath = ""
			} else {
				curNewPath = stripPrefixAB(p)
			}

			fileBodyStart = len(fileLines) + 1
		default:
			fileLines = append(fileLines, line)

			continue
		}

		fileLines = append(fileLines, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", rewriteerr.ErrDiffParse, err)
	}

	if err := flushFile(); err != nil {
		return nil, err
	}

	return hunks, nil
}

// pathsFromGitHeader recovers old/new paths from `diff --git a/X b/Y` when
// neither --- nor +++ lines appear (the empty-file-addition case).
func pathsFromGitHeader(line string) (oldPath, newPath string) {
	rest := strings.TrimPrefix(line, string(gitHeaderPrefix))

	idx := strings.Index(rest, " b/")
	if idx < 0 {
		return "", ""
	}

	oldPath = strings.TrimPrefix(rest[:idx], "a/")
	newPath = rest[idx+3:]

	return oldPath, newPath
}

func stripPrefixAB(p string) string {
	if strings.HasPrefix(p, "a/") || strings.HasPrefix(p, "b/") {
		return p[2:]
	}

	return p
}

// parseFileHunks walks one file's body lines (everything after the +++
// line), splitting on "@@" hunk headers and "Binary files ... differ".
func parseFileHunks(body []string, oldPath, newPath, mode string) ([]change.Hunk, error) {
	if len(body) > 0 && strings.HasPrefix(body[0], string(binaryDiffers)) {
		return []change.Hunk{{
			OldPath:     oldPath,
			NewPath:     newPath,
			FileMode:    mode,
			Opaque:      true,
			OpaqueBytes: []byte(strings.Join(body, "\n") + "\n"),
		}}, nil
	}

	var hunks []change.Hunk

	i := 0
	for i < len(body) {
		line := body[i]
		if !strings.HasPrefix(line, string(hunkHeaderPrefix)) {
			i++

			continue
		}

		oldStart, _, newStart, _, err := parseHunkHeader(line)
		if err != nil {
			return nil, err
		}

		j := i + 1
		for j < len(body) && !strings.HasPrefix(body[j], string(hunkHeaderPrefix)) {
			j++
		}

		lines, fallback, err := walkHunkBody(body[i+1:j], oldStart, newStart)
		if err != nil {
			return nil, err
		}

		hunks = append(hunks, change.Hunk{
			OldPath:                 oldPath,
			NewPath:                 newPath,
			FileMode:                mode,
			OldStart:                oldStart,
			NewStart:                newStart,
			Lines:                   lines,
			ContainsNewlineFallback: fallback,
		})

		i = j
	}

	return hunks, nil
}

// parseHunkHeader parses "@@ -a,b +c,d @@" (b/d default to 1 when omitted).
func parseHunkHeader(line string) (oldStart, oldLen, newStart, newLen int, err error) {
	body := strings.TrimPrefix(line, string(hunkHeaderPrefix))

	end := strings.Index(body, " @@")
	if end < 0 {
		return 0, 0, 0, 0, fmt.Errorf("%w: malformed hunk header %q", rewriteerr.ErrDiffParse, line)
	}

	parts := strings.Fields(body[:end])
	if len(parts) != 2 {
		return 0, 0, 0, 0, fmt.Errorf("%w: malformed hunk header %q", rewriteerr.ErrDiffParse, line)
	}

	oldStart, oldLen, err = parseRange(parts[0], "-")
	if err != nil {
		return 0, 0, 0, 0, err
	}

	newStart, newLen, err = parseRange(parts[1], "+")
	if err != nil {
		return 0, 0, 0, 0, err
	}

	return oldStart, oldLen, newStart, newLen, nil
}

func parseRange(field, sign string) (start, length int, err error) {
	field = strings.TrimPrefix(field, sign)

	start = 1
	length = 1

	parts := strings.SplitN(field, ",", 2)

	start, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: bad range %q: %v", rewriteerr.ErrDiffParse, field, err)
	}

	if len(parts) == 2 {
		length, err = strconv.Atoi(parts[1])
		if err != nil {
			return 0, 0, fmt.Errorf("%w: bad range length %q: %v", rewriteerr.ErrDiffParse, field, err)
		}
	}

	return start, length, nil
}

// walkHunkBody converts hunk body lines into change.LineChange values with
// absolute line counters, per §4.1: each '-' increments old, each '+'
// increments new, each ' ' increments both. A trailing "\ No newline at end
// of file" marker sets the fallback flag.
func walkHunkBody(body []string, oldStart, newStart int) ([]change.LineChange, bool, error) {
	var lines []change.LineChange

	fallback := false
	old, new := oldStart-1, newStart-1

	for _, raw := range body {
		if strings.HasPrefix(raw, string(noNewlineMarker)) {
			fallback = true

			continue
		}

		if raw == "" {
			continue
		}

		switch raw[0] {
		case '-':
			old++
			lines = append(lines, change.LineChange{Kind: change.Removal, Content: []byte(raw[1:]), OldLine: old})
		case '+':
			new++
			lines = append(lines, change.LineChange{Kind: change.Addition, Content: []byte(raw[1:]), NewLine: new})
		case ' ':
			old++
			new++
			// Context lines are not materialized as LineChanges (the model
			// only tags additions/removals); they are implied by the
			// contiguous anchor math downstream.
		default:
			return nil, false, fmt.Errorf("%w: unexpected hunk body line %q", rewriteerr.ErrDiffParse, raw)
		}
	}

	return lines, fallback, nil
}
