// Package llmprovider defines the LLM contract (§6): a single operation,
// invoke(messages) -> text, where messages is a short list of role-tagged
// turns. Provider adapters are external collaborators by design — only this
// contract is specified; one grounded implementation is shipped.
package llmprovider

import "context"

// Role tags one message turn.
type Role string

const (
	System Role = "system"
	User   Role = "user"
)

// Message is one role-tagged turn.
type Message struct {
	Role    Role
	Content string
}

// Provider is the engine's sole LLM touchpoint.
type Provider interface {
	// Invoke sends messages and returns the model's raw text response.
	Invoke(ctx context.Context, messages []Message) (string, error)
	// Name identifies the provider for logging.
	Name() string
}
