package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/mdelehaye/cvchat/pkg/provider"
	"github.com/mdelehaye/cvchat/pkg/types"
)

type fakeEmbedding struct {
	batchSize int
	calls     int
	fail      bool
}

func (f *fakeEmbedding) Name() string { return "fake" }

func (f *fakeEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.fail {
		return nil, errors.New("embedding backend down")
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(len(texts[i])), 0, 1}
	}
	return out, nil
}

func (f *fakeEmbedding) Dimensions() int { return 3 }

func (f *fakeEmbedding) MaxBatchSize() int                { return f.batchSize }
func (f *fakeEmbedding) Warmup(ctx context.Context) error { return nil }
func (f *fakeEmbedding) Close() error                     { return nil }

type fakeStore struct {
	docs []*types.DocumentWithEmbedding
	fail bool
}

func (f *fakeStore) Name() string { return "fake" }

func (f *fakeStore) Add(ctx context.Context, docs []*types.DocumentWithEmbedding) error {
	if f.fail {
		return errors.New("store down")
	}
	f.docs = append(f.docs, docs...)
	return nil
}

func (f *fakeStore) Search(ctx context.Context, queryVec []float32, k int) ([]*types.SearchResult, error) {
	var out []*types.SearchResult
	for i, d := range f.docs {
		if i >= k {
			break
		}
		out = append(out, &types.SearchResult{Document: d.Document, Similarity: 0.9})
	}
	return out, nil
}

func (f *fakeStore) Stats(ctx context.Context) (*types.StoreStats, error) {
	return &types.StoreStats{Documents: len(f.docs), Dimensions: 3}, nil
}

func (f *fakeStore) Close() error { return nil }

var (
	_ provider.EmbeddingProvider = (*fakeEmbedding)(nil)
	_ provider.VectorStore       = (*fakeStore)(nil)
)

func TestIngestDocuments(t *testing.T) {
	embedding := &fakeEmbedding{batchSize: 100}
	store := &fakeStore{}

	p := New(Config{
		ChunkSize:    500,
		ChunkOverlap: 50,
		Embedding:    embedding,
		Store:        store,
	})

	docs := []*types.Document{
		{Title: "Education", Content: "Studied physics and software engineering.", Source: "cv"},
		{Title: "Experience", Content: "Built embedded systems for medical devices.", Source: "cv"},
	}

	stored, err := p.IngestDocuments(context.Background(), docs)
	if err != nil {
		t.Fatalf("IngestDocuments() error = %v", err)
	}
	if stored != 2 {
		t.Errorf("IngestDocuments() stored = %d, want 2", stored)
	}
	if len(store.docs) != 2 {
		t.Errorf("store has %d documents, want 2", len(store.docs))
	}

	for _, d := range store.docs {
		if d.Document.ID == "" {
			t.Error("stored chunk has no ID")
		}
		if d.Document.Title == "" {
			t.Error("stored chunk lost its title")
		}
		if len(d.Embedding) != 3 {
			t.Errorf("stored chunk embedding has %d dims, want 3", len(d.Embedding))
		}
		if d.Document.Metadata["chunk"] == "" {
			t.Error("stored chunk has no chunk index metadata")
		}
	}
}

func TestIngestDocumentsBatches(t *testing.T) {
	embedding := &fakeEmbedding{batchSize: 2}
	store := &fakeStore{}

	p := New(Config{Embedding: embedding, Store: store})

	docs := make([]*types.Document, 5)
	for i := range docs {
		docs[i] = &types.Document{
			Title:   "Section",
			Content: "Some short section content.",
			Source:  "cv",
		}
	}

	stored, err := p.IngestDocuments(context.Background(), docs)
	if err != nil {
		t.Fatalf("IngestDocuments() error = %v", err)
	}
	if stored != 5 {
		t.Errorf("IngestDocuments() stored = %d, want 5", stored)
	}
	if embedding.calls != 3 {
		t.Errorf("Embed called %d times, want 3 batches of <=2", embedding.calls)
	}
}

func TestIngestDocumentsEmpty(t *testing.T) {
	p := New(Config{Embedding: &fakeEmbedding{}, Store: &fakeStore{}})

	stored, err := p.IngestDocuments(context.Background(), nil)
	if err != nil {
		t.Fatalf("IngestDocuments() error = %v", err)
	}
	if stored != 0 {
		t.Errorf("IngestDocuments() stored = %d, want 0", stored)
	}
}

func TestIngestDocumentsEmbeddingFailure(t *testing.T) {
	p := New(Config{
		Embedding: &fakeEmbedding{fail: true},
		Store:     &fakeStore{},
	})

	docs := []*types.Document{{Title: "T", Content: "some content", Source: "cv"}}

	_, err := p.IngestDocuments(context.Background(), docs)
	if !errors.Is(err, types.ErrEmbeddingFailed) {
		t.Errorf("IngestDocuments() error = %v, want ErrEmbeddingFailed", err)
	}
}

func TestIngestDocumentsStoreFailure(t *testing.T) {
	p := New(Config{
		Embedding: &fakeEmbedding{},
		Store:     &fakeStore{fail: true},
	})

	docs := []*types.Document{{Title: "T", Content: "some content", Source: "cv"}}

	_, err := p.IngestDocuments(context.Background(), docs)
	if !errors.Is(err, types.ErrStoreFailed) {
		t.Errorf("IngestDocuments() error = %v, want ErrStoreFailed", err)
	}
}

func TestIngestDocumentsProgress(t *testing.T) {
	var phases []string
	p := New(Config{
		Embedding: &fakeEmbedding{},
		Store:     &fakeStore{},
		OnProgress: func(pr types.IngestProgress) {
			phases = append(phases, pr.Phase)
		},
	})

	docs := []*types.Document{{Title: "T", Content: "some content", Source: "cv"}}

	if _, err := p.IngestDocuments(context.Background(), docs); err != nil {
		t.Fatalf("IngestDocuments() error = %v", err)
	}

	want := map[string]bool{"splitting": false, "embedding": false, "storing": false, "done": false}
	for _, ph := range phases {
		want[ph] = true
	}
	for ph, seen := range want {
		if !seen {
			t.Errorf("progress phase %q never reported", ph)
		}
	}
}
