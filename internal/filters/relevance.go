package filters

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/recut-dev/recut/internal/change"
	"github.com/recut-dev/recut/internal/llmprovider"
	"github.com/recut-dev/recut/internal/patchgen"
)

// relevanceResponseSchema validates the LLM's {rejected_chunk_ids, reasoning}
// response before the engine trusts it, per §6's JSON-contract handling.
const relevanceResponseSchema = `{
  "type": "object",
  "required": ["rejected_chunk_ids", "reasoning"],
  "properties": {
    "rejected_chunk_ids": {"type": "array", "items": {"type": "integer"}},
    "reasoning": {"type": "string"}
  }
}`

var relevanceSchemaLoader = gojsonschema.NewStringLoader(relevanceResponseSchema)

type relevanceResponse struct {
	RejectedChunkIDs []int  `json:"rejected_chunk_ids"`
	Reasoning        string `json:"reasoning"`
}

// Relevance sends every container's semantic diff plus intent and
// aggression to provider, and rejects the containers named in the
// response. Fail-open: any transport, parse, or schema-validation error
// keeps every container and returns the underlying error for logging.
func Relevance(ctx context.Context, provider llmprovider.Provider, containers []change.Container, intent string, level Aggression) (kept, rejected []change.Container, err error) {
	if level == None || provider == nil {
		return containers, nil, nil
	}

	prompt := buildRelevancePrompt(containers, intent, level)

	text, invokeErr := provider.Invoke(ctx, []llmprovider.Message{
		{Role: llmprovider.System, Content: relevanceSystemPrompt},
		{Role: llmprovider.User, Content: prompt},
	})
	if invokeErr != nil {
		return containers, nil, fmt.Errorf("relevance filter: %w", invokeErr)
	}

	resp, parseErr := parseRelevanceResponse(text)
	if parseErr != nil {
		return containers, nil, fmt.Errorf("relevance filter: %w", parseErr)
	}

	rejectSet := make(map[int]bool, len(resp.RejectedChunkIDs))
	for _, id := range resp.RejectedChunkIDs {
		rejectSet[id] = true
	}

	for _, c := range containers {
		if containerRejected(c, rejectSet) {
			rejected = append(rejected, c)
		} else {
			kept = append(kept, c)
		}
	}

	return kept, rejected, nil
}

func containerRejected(c change.Container, rejectSet map[int]bool) bool {
	for _, leaf := range c.Leaves() {
		if rejectSet[leaf.ID] {
			return true
		}
	}

	return false
}

const relevanceSystemPrompt = "You review proposed code changes for relevance to the stated intent. " +
	"Respond with a single JSON object: {\"rejected_chunk_ids\": [int], \"reasoning\": string}."

func buildRelevancePrompt(containers []change.Container, intent string, level Aggression) string {
	var b strings.Builder

	if intent != "" {
		b.WriteString("Intent: ")
		b.WriteString(intent)
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Aggression: %d\n\n", level)

	for _, c := range containers {
		b.WriteString(patchgen.SemanticDiff(c))
		b.WriteString("\n")
	}

	return b.String()
}

// parseRelevanceResponse strips Markdown code fences (the engine's
// documented recovery step, §6) before parsing and schema-validating.
func parseRelevanceResponse(text string) (relevanceResponse, error) {
	cleaned := stripCodeFences(text)

	result, err := gojsonschema.Validate(relevanceSchemaLoader, gojsonschema.NewStringLoader(cleaned))
	if err != nil {
		return relevanceResponse{}, fmt.Errorf("schema check: %w", err)
	}

	if !result.Valid() {
		return relevanceResponse{}, fmt.Errorf("response failed schema: %v", result.Errors())
	}

	var resp relevanceResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return relevanceResponse{}, fmt.Errorf("unmarshal: %w", err)
	}

	return resp, nil
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
