package provider

import (
	"context"

	"github.com/mdelehaye/cvchat/pkg/types"
)

// VectorStore stores and searches vector embeddings of CV documents.
// Similarity ranking is delegated entirely to the backend; implementations
// own no caching or eviction policy of their own.
type VectorStore interface {
	// Name returns the store name (e.g., "pgvector", "chromem", "sqlitevec").
	Name() string

	// Add inserts documents with their embeddings.
	Add(ctx context.Context, docs []*types.DocumentWithEmbedding) error

	// Search returns the k nearest documents to the query vector,
	// ordered by descending similarity.
	Search(ctx context.Context, queryVec []float32, k int) ([]*types.SearchResult, error)

	// Stats returns store statistics.
	Stats(ctx context.Context) (*types.StoreStats, error)

	// Close releases resources and closes connections.
	Close() error
}

// VectorStoreConfig contains configuration for vector stores.
type VectorStoreConfig struct {
	Provider   string // "pgvector", "chromem", "sqlitevec"
	URL        string // Connection string (pgvector)
	Path       string // Database file path (sqlitevec)
	Table      string // Table / collection name
	Dimensions int    // Embedding dimensions
}
