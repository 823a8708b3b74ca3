package provider

import (
	"context"

	"github.com/mdelehaye/cvchat/pkg/types"
)

// LLMProvider synthesizes chat completions.
type LLMProvider interface {
	// Name returns the provider name (e.g., "openai").
	Name() string

	// Complete generates a completion for the given conversation.
	// The system prompt is passed separately so providers can map it to
	// their native message format.
	Complete(ctx context.Context, system string, messages []types.Message) (string, error)

	// Model returns the configured model name.
	Model() string

	// Available checks whether the provider can serve requests.
	Available(ctx context.Context) error

	// Close releases any resources.
	Close() error
}

// LLMConfig contains configuration for LLM providers.
type LLMConfig struct {
	Provider    string  // "openai"
	Model       string  // e.g. "gpt-3.5-turbo"
	APIKey      string  // API key
	Endpoint    string  // Optional custom endpoint
	Temperature float32 // Sampling temperature
}
