// Package chromem implements VectorStore using the in-process chromem-go
// database. It backs the fallback mode used when no PostgreSQL connection
// is configured or reachable.
package chromem

import (
	"context"
	"fmt"

	"github.com/philippgille/chromem-go"

	"github.com/mdelehaye/cvchat/pkg/provider"
	"github.com/mdelehaye/cvchat/pkg/types"
)

// DefaultCollection is the collection name used when none is configured.
const DefaultCollection = "cv_embeddings"

// Config contains chromem store configuration.
type Config struct {
	Collection string
}

// Store implements the VectorStore interface on chromem-go.
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// New creates a new in-memory chromem store.
func New(cfg Config) (*Store, error) {
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}

	db := chromem.NewDB()

	// All documents arrive with precomputed embeddings, so no embedding
	// function is wired into the collection.
	collection, err := db.GetOrCreateCollection(cfg.Collection, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	return &Store{
		db:         db,
		collection: collection,
	}, nil
}

// Name returns the store name.
func (s *Store) Name() string {
	return "chromem"
}

// Add inserts documents with their embeddings.
func (s *Store) Add(ctx context.Context, docs []*types.DocumentWithEmbedding) error {
	for _, d := range docs {
		id := d.Document.ID
		if id == "" {
			id = d.Document.GenerateID()
		}

		metadata := make(map[string]string, len(d.Document.Metadata)+2)
		for k, v := range d.Document.Metadata {
			metadata[k] = v
		}
		if d.Document.Title != "" {
			metadata["title"] = d.Document.Title
		}
		if d.Document.Source != "" {
			metadata["source"] = d.Document.Source
		}

		err := s.collection.AddDocument(ctx, chromem.Document{
			ID:        id,
			Content:   d.Document.Content,
			Metadata:  metadata,
			Embedding: d.Embedding,
		})
		if err != nil {
			return fmt.Errorf("failed to add document %s: %w", id, err)
		}
	}

	return nil
}

// Search returns the k nearest documents to the query vector.
func (s *Store) Search(ctx context.Context, queryVec []float32, k int) ([]*types.SearchResult, error) {
	// chromem rejects nResults larger than the collection size
	if count := s.collection.Count(); k > count {
		k = count
	}
	if k == 0 {
		return nil, nil
	}

	found, err := s.collection.QueryEmbedding(ctx, queryVec, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	results := make([]*types.SearchResult, 0, len(found))
	for _, r := range found {
		doc := &types.Document{
			ID:       r.ID,
			Title:    r.Metadata["title"],
			Content:  r.Content,
			Source:   r.Metadata["source"],
			Metadata: r.Metadata,
		}
		results = append(results, &types.SearchResult{
			Document:   doc,
			Similarity: r.Similarity,
		})
	}

	return results, nil
}

// Stats returns store statistics.
func (s *Store) Stats(ctx context.Context) (*types.StoreStats, error) {
	return &types.StoreStats{
		Documents: s.collection.Count(),
	}, nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

// Ensure Store implements VectorStore interface
var _ provider.VectorStore = (*Store)(nil)
