package llmprovider_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/recut-dev/recut/internal/llmprovider"
)

func TestAnthropicProvider_Name(t *testing.T) {
	t.Parallel()

	p := llmprovider.NewAnthropicProvider("test-key", "claude-sonnet-4-5")
	assert.Equal(t, "anthropic", p.Name())
}

func TestNewAnthropicProvider_EmptyAPIKeyStillConstructs(t *testing.T) {
	t.Parallel()

	p := llmprovider.NewAnthropicProvider("", "claude-sonnet-4-5")
	assert.NotNil(t, p)
	assert.Equal(t, "anthropic", p.Name())
}
