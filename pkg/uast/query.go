// Package uast is C6: the AST/query layer. It exposes four query kinds per
// file per language — scope, token definition, token reference, comment —
// each a set of tree-sitter pattern strings with named captures (supplied as
// configuration, see internal/langconfig). Running a query against a parsed
// root node within a set of inclusive line ranges yields a map from capture
// name to the matching nodes, clipped to those ranges.
//
// Query execution is built directly on sitter.NewQuery/NewQueryCursor, the
// same primitives the language registry below already pulls in for parsing.
package uast

import (
	"context"
	"fmt"
	"strings"
	"sync"

	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// LineRange is an inclusive, 0-based line range.
type LineRange struct {
	Start, End int
}

// Contains reports whether line lies within [r.Start, r.End].
func (r LineRange) Contains(line int) bool {
	return line >= r.Start && line <= r.End
}

// Match is one captured node from a query run, clipped to the requested
// ranges.
type Match struct {
	Capture   string
	Text      string
	StartLine int
	EndLine   int
}

// Parser wraps a single tree-sitter parser instance. Not safe for concurrent
// use; callers create one per goroutine (the context manager is
// single-threaded per command, see internal/astctx).
type Parser struct {
	ts *sitter.Parser
}

// NewParser returns a Parser for the named language, or an error if the
// language is not registered.
func NewParser(language string) (*Parser, error) {
	lang := GetLanguage(language)
	if lang == nil {
		return nil, fmt.Errorf("uast: unsupported language %q", language)
	}

	p := sitter.NewParser()
	if err := p.SetLanguage(lang); err != nil {
		return nil, fmt.Errorf("uast: set language %q: %w", language, err)
	}

	return &Parser{ts: p}, nil
}

// Parse parses content and returns its root node. The caller owns the
// returned tree's lifetime via the *sitter.Tree handle.
func (p *Parser) Parse(ctx context.Context, content []byte) (*sitter.Tree, error) {
	tree, err := p.ts.ParseString(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("uast: parse: %w", err)
	}

	return tree, nil
}

// queryCache memoizes compiled queries per (language, joined-pattern) pair,
// mirroring the teacher's PatternMatcher cache.
var queryCache sync.Map // map[string]*sitter.Query

// compileQuery joins pattern strings (each a full S-expression query
// pattern) into one query and compiles it against lang, caching the result.
func compileQuery(language string, lang *sitter.Language, patterns []string) (*sitter.Query, error) {
	if len(patterns) == 0 {
		return nil, nil
	}

	joined := strings.Join(patterns, "\n")
	key := language + "\x00" + joined

	if cached, ok := queryCache.Load(key); ok {
		q, _ := cached.(*sitter.Query)

		return q, nil
	}

	q, err := sitter.NewQuery(lang, []byte(joined))
	if err != nil {
		return nil, fmt.Errorf("uast: compile query for %q: %w", language, err)
	}

	queryCache.Store(key, q)

	return q, nil
}

// RunQuery compiles and runs patterns against root, returning every match
// whose start line falls within any of ranges, grouped by capture name. An
// empty or nil patterns list (an unconfigured language, per §4.3) yields an
// empty result, never an error.
func RunQuery(language string, patterns []string, root sitter.Node, source []byte, ranges []LineRange) (map[string][]Match, error) {
	lang := GetLanguage(language)
	if lang == nil || len(patterns) == 0 {
		return map[string][]Match{}, nil
	}

	query, err := compileQuery(language, lang, patterns)
	if err != nil {
		return nil, err
	}

	cursor := sitter.NewQueryCursor()
	matches := cursor.Matches(query, root, source)

	out := map[string][]Match{}

	for {
		m := matches.Next()
		if m == nil {
			break
		}

		for _, cap := range m.Captures {
			if cap.Node.IsNull() {
				continue
			}

			start := int(cap.Node.StartPoint().Row)
			end := int(cap.Node.EndPoint().Row)

			if len(ranges) > 0 && !anyRangeOverlaps(ranges, start, end) {
				continue
			}

			name := query.CaptureNameForID(cap.Index)
			out[name] = append(out[name], Match{
				Capture:   name,
				Text:      cap.Node.Content(source),
				StartLine: start,
				EndLine:   end,
			})
		}
	}

	return out, nil
}

func anyRangeOverlaps(ranges []LineRange, start, end int) bool {
	for _, r := range ranges {
		if start <= r.End && r.Start <= end {
			return true
		}
	}

	return false
}

// QualifiedToken joins a capture name with its textual content, e.g.
// "function_definition:foo" — the token signature-overlap checks compare.
func QualifiedToken(captureName, text string) string {
	return captureName + ":" + text
}
