// Package openai implements LLMProvider using OpenAI's chat completion API.
package openai

import (
	"context"
	"fmt"
	"os"

	"github.com/sashabaranov/go-openai"

	"github.com/mdelehaye/cvchat/pkg/provider"
	"github.com/mdelehaye/cvchat/pkg/types"
)

// Default values
const (
	DefaultModel       = openai.GPT3Dot5Turbo
	DefaultTemperature = 0.7
)

// Config contains OpenAI LLM provider configuration.
type Config struct {
	Model       string
	APIKey      string // If empty, uses OPENAI_API_KEY env var
	BaseURL     string // Optional: custom API endpoint
	Temperature float32
}

// Provider implements the LLMProvider interface for OpenAI.
type Provider struct {
	config Config
	client *openai.Client
}

// New creates a new OpenAI LLM provider.
func New(cfg Config) *Provider {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Provider{
		config: cfg,
		client: openai.NewClientWithConfig(clientConfig),
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "openai"
}

// Model returns the configured model name.
func (p *Provider) Model() string {
	return p.config.Model
}

// Complete generates a chat completion for the given conversation.
func (p *Provider) Complete(ctx context.Context, system string, messages []types.Message) (string, error) {
	chatMessages := make([]openai.ChatCompletionMessage, 0, len(messages)+1)

	if system != "" {
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}

	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		if m.Role == types.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		chatMessages = append(chatMessages, openai.ChatCompletionMessage{
			Role:    role,
			Content: m.Content,
		})
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.config.Model,
		Messages:    chatMessages,
		Temperature: p.config.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

// Available checks if the OpenAI API is configured.
func (p *Provider) Available(ctx context.Context) error {
	if p.config.APIKey == "" && os.Getenv("OPENAI_API_KEY") == "" {
		return fmt.Errorf("OPENAI_API_KEY not set: %w", types.ErrProviderNotAvailable)
	}
	return nil
}

// Close releases resources.
func (p *Provider) Close() error {
	return nil
}

// Ensure Provider implements LLMProvider interface
var _ provider.LLMProvider = (*Provider)(nil)
