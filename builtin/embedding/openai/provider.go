// Package openai provides an EmbeddingProvider backed by the OpenAI
// embeddings API.
package openai

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/sashabaranov/go-openai"

	"github.com/mdelehaye/cvchat/pkg/provider"
)

const (
	// DefaultModel is used when the config names no model.
	DefaultModel = string(openai.AdaEmbeddingV2)
	// DefaultBatchSize keeps requests well under OpenAI's 2048-input limit.
	DefaultBatchSize = 100
	// DefaultDimensions matches text-embedding-ada-002.
	DefaultDimensions = 1536
)

// dimensionsFor reports the vector width of the known OpenAI embedding
// models, falling back to DefaultDimensions for anything unrecognized.
func dimensionsFor(model string) int {
	switch model {
	case "text-embedding-ada-002", "text-embedding-3-small":
		return 1536
	case "text-embedding-3-large":
		return 3072
	default:
		return DefaultDimensions
	}
}

// Config holds the settings for the OpenAI embedding provider.
type Config struct {
	Model      string
	APIKey     string // falls back to OPENAI_API_KEY
	BaseURL    string // override for Azure or proxies
	BatchSize  int
	Dimensions int // 0 means derive from the model
}

// Provider calls the OpenAI embeddings endpoint in batches.
type Provider struct {
	config     Config
	client     *openai.Client
	mu         sync.RWMutex
	dimensions int
}

var _ provider.EmbeddingProvider = (*Provider)(nil)

// New builds a Provider from cfg, filling in defaults for any field
// left empty.
func New(cfg Config) *Provider {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = dimensionsFor(cfg.Model)
	}

	key := cfg.APIKey
	if key == "" {
		key = os.Getenv("OPENAI_API_KEY")
	}
	clientCfg := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Provider{
		config:     cfg,
		client:     openai.NewClientWithConfig(clientCfg),
		dimensions: cfg.Dimensions,
	}
}

func (p *Provider) Name() string { return "openai" }

// Embed returns one vector per input text, issuing as many API calls
// as the batch size requires. Results keep the input order.
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, len(texts))
	for start := 0; start < len(texts); start += p.config.BatchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := min(start+p.config.BatchSize, len(texts))
		resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: texts[start:end],
			Model: openai.EmbeddingModel(p.config.Model),
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedding failed: %w", err)
		}
		for i, d := range resp.Data {
			vectors[start+i] = d.Embedding
		}

		p.recordDimensions(resp.Data)
	}

	return vectors, nil
}

// recordDimensions corrects the advertised vector width when a live
// response disagrees with the configured one.
func (p *Provider) recordDimensions(data []openai.Embedding) {
	if len(data) == 0 {
		return
	}
	p.mu.Lock()
	p.dimensions = len(data[0].Embedding)
	p.mu.Unlock()
}

func (p *Provider) Dimensions() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.dimensions
}

func (p *Provider) MaxBatchSize() int { return p.config.BatchSize }

// Warmup verifies credentials are present and the API answers an
// embedding request.
func (p *Provider) Warmup(ctx context.Context) error {
	if p.config.APIKey == "" && os.Getenv("OPENAI_API_KEY") == "" {
		return fmt.Errorf("OPENAI_API_KEY not set")
	}
	if _, err := p.Embed(ctx, []string{"warmup"}); err != nil {
		return fmt.Errorf("openai API not reachable: %w", err)
	}
	return nil
}

func (p *Provider) Close() error { return nil }
