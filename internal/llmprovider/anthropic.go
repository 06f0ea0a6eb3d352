package llmprovider

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.opentelemetry.io/otel"

	"github.com/recut-dev/recut/internal/rewriteerr"
)

var tracer = otel.Tracer("recut/llmprovider")

// AnthropicProvider is the one concrete Provider the engine ships, grounded
// on anthropic-sdk-go (already present in the pack's dependency graph).
type AnthropicProvider struct {
	client *anthropic.Client
	model  anthropic.Model
}

// NewAnthropicProvider constructs a provider using apiKey and model (e.g.
// "claude-sonnet-4-5"); an empty apiKey reads ANTHROPIC_API_KEY from the
// environment via the SDK's default option chain.
func NewAnthropicProvider(apiKey, model string) *AnthropicProvider {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	client := anthropic.NewClient(opts...)

	return &AnthropicProvider{client: &client, model: anthropic.Model(model)}
}

// Name implements Provider.
func (p *AnthropicProvider) Name() string { return "anthropic" }

// Invoke implements Provider. It does not retry on transport error, per the
// explicit Non-goal "network retries against LLM providers" — failure
// propagates as ErrAdapterFailure for the caller to fail-open or fall back.
func (p *AnthropicProvider) Invoke(ctx context.Context, messages []Message) (string, error) {
	ctx, span := tracer.Start(ctx, "llm.invoke")
	defer span.End()

	var (
		system string
		turns  []anthropic.MessageParam
	)

	for _, m := range messages {
		switch m.Role {
		case System:
			system = m.Content
		case User:
			turns = append(turns, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: 4096,
		Messages:  turns,
	}

	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: anthropic invoke: %v", rewriteerr.ErrAdapterFailure, err)
	}

	var text string

	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return text, nil
}
