// Package pgvector implements VectorStore on PostgreSQL with the pgvector
// extension. Similarity ranking is delegated to the extension's cosine
// distance operator; the store itself is two SQL statements over one table.
package pgvector

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvec "github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/mdelehaye/cvchat/pkg/provider"
	"github.com/mdelehaye/cvchat/pkg/types"
)

// Default values
const (
	DefaultTable      = "cv_embeddings"
	DefaultDimensions = 1536
	DefaultMinConns   = 1
	DefaultMaxConns   = 5
)

// Config contains pgvector store configuration.
type Config struct {
	URL        string // Postgres connection string
	Table      string // Table name, default "cv_embeddings"
	Dimensions int    // Embedding dimensions, default 1536
	MinConns   int32
	MaxConns   int32
}

// Store implements the VectorStore interface on PostgreSQL + pgvector.
type Store struct {
	pool  *pgxpool.Pool
	table string
	dims  int
}

// New connects to PostgreSQL and ensures the embeddings table exists.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if cfg.MinConns == 0 {
		cfg.MinConns = DefaultMinConns
	}
	if cfg.MaxConns == 0 {
		cfg.MaxConns = DefaultMaxConns
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid database url: %w", err)
	}
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.ConnConfig.ConnectTimeout = 30 * time.Second

	// Register the vector type on every new connection
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	s := &Store{
		pool:  pool,
		table: cfg.Table,
		dims:  cfg.Dimensions,
	}

	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// ensureSchema creates the extension and the embeddings table if missing.
func (s *Store) ensureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("pgvector extension not available: %w", err)
	}

	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			metadata JSONB,
			embedding vector(%d)
		)
	`, s.table, s.dims)

	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.table, err)
	}
	return nil
}

// Name returns the store name.
func (s *Store) Name() string {
	return "pgvector"
}

// Add inserts documents with their embeddings, upserting on ID.
func (s *Store) Add(ctx context.Context, docs []*types.DocumentWithEmbedding) error {
	if len(docs) == 0 {
		return nil
	}

	sql := fmt.Sprintf(`
		INSERT INTO %s (id, content, metadata, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET content = EXCLUDED.content,
		    metadata = EXCLUDED.metadata,
		    embedding = EXCLUDED.embedding
	`, s.table)

	for _, d := range docs {
		meta := docMetadata(d.Document)
		metaJSON, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}

		id := d.Document.ID
		if id == "" {
			id = d.Document.GenerateID()
		}

		_, err = s.pool.Exec(ctx, sql, id, d.Document.Content, metaJSON, pgvec.NewVector(d.Embedding))
		if err != nil {
			return fmt.Errorf("failed to insert document %s: %w", id, err)
		}
	}

	return nil
}

// Search returns the k nearest documents using cosine distance (<=>).
func (s *Store) Search(ctx context.Context, queryVec []float32, k int) ([]*types.SearchResult, error) {
	sql := fmt.Sprintf(`
		SELECT id, content, metadata,
		       1 - (embedding <=> $1) AS similarity
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2
	`, s.table)

	rows, err := s.pool.Query(ctx, sql, pgvec.NewVector(queryVec), k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	defer rows.Close()

	var results []*types.SearchResult
	for rows.Next() {
		var (
			id         string
			content    string
			metaJSON   []byte
			similarity float32
		)
		if err := rows.Scan(&id, &content, &metaJSON, &similarity); err != nil {
			return nil, err
		}

		doc := &types.Document{
			ID:      id,
			Content: content,
		}
		if len(metaJSON) > 0 {
			meta := map[string]string{}
			if err := json.Unmarshal(metaJSON, &meta); err == nil {
				doc.Title = meta["title"]
				doc.Source = meta["source"]
				doc.Metadata = meta
			}
		}

		results = append(results, &types.SearchResult{
			Document:   doc,
			Similarity: similarity,
		})
	}

	return results, rows.Err()
}

// Stats returns store statistics.
func (s *Store) Stats(ctx context.Context) (*types.StoreStats, error) {
	var count int
	sql := fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table)
	if err := s.pool.QueryRow(ctx, sql).Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}

	return &types.StoreStats{
		Documents:  count,
		Dimensions: s.dims,
	}, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// docMetadata flattens document fields into the stored metadata map.
func docMetadata(d *types.Document) map[string]string {
	meta := make(map[string]string, len(d.Metadata)+2)
	for k, v := range d.Metadata {
		meta[k] = v
	}
	if d.Title != "" {
		meta["title"] = d.Title
	}
	if d.Source != "" {
		meta["source"] = d.Source
	}
	return meta
}

// Ensure Store implements VectorStore interface
var _ provider.VectorStore = (*Store)(nil)
