package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewDefaults(t *testing.T) {
	p := New(Config{})

	if p.config.Model != DefaultModel {
		t.Errorf("model = %q, want %q", p.config.Model, DefaultModel)
	}
	if p.MaxBatchSize() != DefaultBatchSize {
		t.Errorf("MaxBatchSize() = %d, want %d", p.MaxBatchSize(), DefaultBatchSize)
	}
	if p.Dimensions() != DefaultDimensions {
		t.Errorf("Dimensions() = %d, want %d", p.Dimensions(), DefaultDimensions)
	}
	if p.Name() != "openai" {
		t.Errorf("Name() = %q, want openai", p.Name())
	}
}

func TestDimensionsFor(t *testing.T) {
	tests := []struct {
		model string
		want  int
	}{
		{"text-embedding-ada-002", 1536},
		{"text-embedding-3-small", 1536},
		{"text-embedding-3-large", 3072},
		{"some-future-model", DefaultDimensions},
	}
	for _, tt := range tests {
		if got := dimensionsFor(tt.model); got != tt.want {
			t.Errorf("dimensionsFor(%q) = %d, want %d", tt.model, got, tt.want)
		}
	}
}

func TestEmbedBatches(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++

		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Input) > 2 {
			t.Errorf("batch of %d inputs, want at most 2", len(req.Input))
		}

		type item struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		resp := struct {
			Data []item `json:"data"`
		}{}
		for i := range req.Input {
			resp.Data = append(resp.Data, item{Embedding: []float32{0.1, 0.2}, Index: i})
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p := New(Config{APIKey: "test-key", BaseURL: srv.URL, BatchSize: 2})

	vectors, err := p.Embed(context.Background(), []string{"a", "b", "c", "d", "e"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vectors) != 5 {
		t.Fatalf("got %d vectors, want 5", len(vectors))
	}
	for i, v := range vectors {
		if len(v) != 2 {
			t.Errorf("vector %d has %d elements, want 2", i, len(v))
		}
	}
	if requests != 3 {
		t.Errorf("server saw %d requests, want 3", requests)
	}
	if p.Dimensions() != 2 {
		t.Errorf("Dimensions() after embed = %d, want 2", p.Dimensions())
	}
}

func TestEmbedEmptyInput(t *testing.T) {
	p := New(Config{APIKey: "test-key"})
	vectors, err := p.Embed(context.Background(), nil)
	if err != nil {
		t.Fatalf("Embed(nil) error = %v", err)
	}
	if vectors != nil {
		t.Errorf("Embed(nil) = %v, want nil", vectors)
	}
}

func TestWarmupRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	p := New(Config{})
	if err := p.Warmup(context.Background()); err == nil {
		t.Error("Warmup() with no API key returned nil error")
	}
}
