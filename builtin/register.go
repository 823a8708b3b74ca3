// Package builtin registers all built-in providers with the default registry.
package builtin

import (
	"context"
	"time"

	ollamaEmbed "github.com/mdelehaye/cvchat/builtin/embedding/ollama"
	openaiEmbed "github.com/mdelehaye/cvchat/builtin/embedding/openai"
	openaiLLM "github.com/mdelehaye/cvchat/builtin/llm/openai"
	"github.com/mdelehaye/cvchat/builtin/vectorstore/chromem"
	"github.com/mdelehaye/cvchat/builtin/vectorstore/pgvector"
	"github.com/mdelehaye/cvchat/builtin/vectorstore/sqlitevec"
	"github.com/mdelehaye/cvchat/pkg/provider"
)

func init() {
	// Register embedding providers
	provider.RegisterEmbedding("openai", func(cfg provider.EmbeddingConfig) (provider.EmbeddingProvider, error) {
		return openaiEmbed.New(openaiEmbed.Config{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			BaseURL:   cfg.Endpoint,
			BatchSize: cfg.BatchSize,
		}), nil
	})

	provider.RegisterEmbedding("ollama", func(cfg provider.EmbeddingConfig) (provider.EmbeddingProvider, error) {
		return ollamaEmbed.New(ollamaEmbed.Config{
			Endpoint:  cfg.Endpoint,
			Model:     cfg.Model,
			BatchSize: cfg.BatchSize,
		}), nil
	})

	// Register LLM providers
	provider.RegisterLLM("openai", func(cfg provider.LLMConfig) (provider.LLMProvider, error) {
		return openaiLLM.New(openaiLLM.Config{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			BaseURL:     cfg.Endpoint,
			Temperature: cfg.Temperature,
		}), nil
	})

	// Register vector stores
	provider.RegisterVectorStore("pgvector", func(cfg provider.VectorStoreConfig) (provider.VectorStore, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return pgvector.New(ctx, pgvector.Config{
			URL:        cfg.URL,
			Table:      cfg.Table,
			Dimensions: cfg.Dimensions,
		})
	})

	provider.RegisterVectorStore("chromem", func(cfg provider.VectorStoreConfig) (provider.VectorStore, error) {
		return chromem.New(chromem.Config{
			Collection: cfg.Table,
		})
	})

	provider.RegisterVectorStore("sqlitevec", func(cfg provider.VectorStoreConfig) (provider.VectorStore, error) {
		return sqlitevec.New(sqlitevec.Config{
			Path:       cfg.Path,
			Dimensions: cfg.Dimensions,
		})
	})
}
