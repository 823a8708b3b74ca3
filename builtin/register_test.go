package builtin

import (
	"testing"

	"github.com/mdelehaye/cvchat/pkg/provider"
)

func TestBuiltinRegistration(t *testing.T) {
	for _, name := range []string{"pgvector", "chromem", "sqlitevec"} {
		if !provider.DefaultRegistry.HasVectorStore(name) {
			t.Errorf("vector store %q not registered", name)
		}
	}

	embedding, err := provider.DefaultRegistry.CreateEmbedding("openai", provider.EmbeddingConfig{
		Model: "text-embedding-ada-002",
	})
	if err != nil {
		t.Fatalf("CreateEmbedding(openai) error = %v", err)
	}
	if embedding.Dimensions() != 1536 {
		t.Errorf("openai ada-002 dimensions = %d, want 1536", embedding.Dimensions())
	}

	llm, err := provider.DefaultRegistry.CreateLLM("openai", provider.LLMConfig{})
	if err != nil {
		t.Fatalf("CreateLLM(openai) error = %v", err)
	}
	if llm.Model() == "" {
		t.Error("CreateLLM(openai) returned provider with no default model")
	}

	store, err := provider.DefaultRegistry.CreateVectorStore("chromem", provider.VectorStoreConfig{
		Table: "cv_embeddings",
	})
	if err != nil {
		t.Fatalf("CreateVectorStore(chromem) error = %v", err)
	}
	store.Close()
}
