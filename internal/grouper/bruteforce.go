package grouper

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/recut-dev/recut/internal/change"
	"github.com/recut-dev/recut/internal/llmprovider"
	"github.com/recut-dev/recut/internal/patchgen"
)

const bruteForceResponseSchema = `{
  "type": "object",
  "additionalProperties": {
    "type": "object",
    "required": ["chunk_ids", "commit_message"],
    "properties": {
      "chunk_ids": {"type": "array", "items": {"type": "integer"}},
      "commit_message": {"type": "string"}
    }
  }
}`

var bruteForceSchemaLoader = gojsonschema.NewStringLoader(bruteForceResponseSchema)

type bruteForceEntry struct {
	ChunkIDs      []int  `json:"chunk_ids"`
	CommitMessage string `json:"commit_message"`
}

const bruteForceSystemPrompt = "You group code changes into logical commits. " +
	"Respond with a single JSON object mapping an arbitrary group id to " +
	"{\"chunk_ids\": [int], \"commit_message\": string}. Every chunk id given " +
	"to you must appear in exactly one group."

// groupBruteForce issues one LLM call with every container's annotated
// patch, validates full coverage and bijection of chunk ids in the
// response, and falls back to one group per container on violation.
func groupBruteForce(ctx context.Context, provider llmprovider.Provider, containers []change.Container, cfg Config) ([]change.CommitGroup, error) {
	if provider == nil {
		return fallbackSingleGroupPerContainer(containers), nil
	}

	index, order := leafIndex(containers)

	prompt := buildBruteForcePrompt(containers, cfg.Intent)

	text, err := provider.Invoke(ctx, []llmprovider.Message{
		{Role: llmprovider.System, Content: bruteForceSystemPrompt},
		{Role: llmprovider.User, Content: prompt},
	})
	if err != nil {
		return fallbackSingleGroupPerContainer(containers), nil
	}

	entries, err := parseBruteForceResponse(text)
	if err != nil {
		return fallbackSingleGroupPerContainer(containers), nil
	}

	if !coversExactlyOnce(entries, order) {
		return fallbackSingleGroupPerContainer(containers), nil
	}

	return buildGroupsFromEntries(entries, index), nil
}

func buildBruteForcePrompt(containers []change.Container, intent string) string {
	var b strings.Builder

	if intent != "" {
		b.WriteString("Intent: ")
		b.WriteString(intent)
		b.WriteString("\n\n")
	}

	for _, c := range containers {
		ids := make([]int, 0)
		for _, leaf := range c.Leaves() {
			ids = append(ids, leaf.ID)
		}

		fmt.Fprintf(&b, "chunk_ids: %v\n", ids)
		b.WriteString(patchgen.SemanticDiff(c))
		b.WriteString("\n")
	}

	return b.String()
}

func parseBruteForceResponse(text string) (map[string]bruteForceEntry, error) {
	cleaned := stripCodeFences(text)

	result, err := gojsonschema.Validate(bruteForceSchemaLoader, gojsonschema.NewStringLoader(cleaned))
	if err != nil {
		return nil, fmt.Errorf("schema check: %w", err)
	}

	if !result.Valid() {
		return nil, fmt.Errorf("response failed schema: %v", result.Errors())
	}

	var entries map[string]bruteForceEntry
	if err := json.Unmarshal([]byte(cleaned), &entries); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}

	return entries, nil
}

// coversExactlyOnce checks the bijection invariant: every id in want appears
// in exactly one entry's chunk_ids, and no entry names an unknown id.
func coversExactlyOnce(entries map[string]bruteForceEntry, want []int) bool {
	counts := map[int]int{}

	for _, e := range entries {
		for _, id := range e.ChunkIDs {
			counts[id]++
		}
	}

	if len(counts) != len(want) {
		return false
	}

	for _, id := range want {
		if counts[id] != 1 {
			return false
		}
	}

	return true
}

func buildGroupsFromEntries(entries map[string]bruteForceEntry, index map[int]change.DiffChunk) []change.CommitGroup {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	groups := make([]change.CommitGroup, 0, len(keys))

	for _, k := range keys {
		e := entries[k]

		ids := append([]int{}, e.ChunkIDs...)
		sort.Ints(ids)

		children := make([]change.Container, 0, len(ids))
		for _, id := range ids {
			children = append(children, change.Leaf(index[id]))
		}

		groups = append(groups, change.CommitGroup{
			Container: change.Composite(children...),
			Message:   e.CommitMessage,
		})
	}

	return groups
}

func stripCodeFences(text string) string {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "```") {
		return t
	}

	t = strings.TrimPrefix(t, "```json")
	t = strings.TrimPrefix(t, "```")
	t = strings.TrimSuffix(t, "```")

	return strings.TrimSpace(t)
}
