// Package sqlitevec implements VectorStore using sqlite-vec. It gives a
// persistent local store for development without PostgreSQL.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mdelehaye/cvchat/pkg/provider"
	"github.com/mdelehaye/cvchat/pkg/types"
)

var (
	// Ensure sqlite-vec Auto() is called exactly once before any db connection
	vecAutoOnce sync.Once
)

// DefaultPath is the database path used when none is configured.
const DefaultPath = "cvchat.db"

// Config contains sqlite-vec store configuration.
type Config struct {
	Path       string
	Dimensions int
}

// Store implements the VectorStore interface using sqlite-vec.
type Store struct {
	db   *sql.DB
	path string
	dims int
}

// New opens (or creates) the database at the given path.
func New(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}

	// Register sqlite-vec extension before opening any database connection.
	vecAutoOnce.Do(func() {
		sqlite_vec.Auto()
	})

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// WAL mode for concurrent reads, busy_timeout to wait for locks
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("SELECT vec_version()"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite-vec extension not available: %w", err)
	}

	s := &Store{
		db:   db,
		path: cfg.Path,
		dims: cfg.Dimensions,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return s, nil
}

// createSchema creates the documents table. The vector table is created
// lazily once the embedding dimensions are known.
func (s *Store) createSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			title TEXT,
			content TEXT NOT NULL,
			source TEXT,
			metadata TEXT
		)
	`)
	if err != nil {
		return err
	}

	if s.dims > 0 {
		return s.createVectorTable(s.dims)
	}
	return nil
}

// createVectorTable creates the vec0 virtual table with the given dimensions.
func (s *Store) createVectorTable(dimensions int) error {
	s.dims = dimensions

	_, err := s.db.Exec(fmt.Sprintf(`
		CREATE VIRTUAL TABLE IF NOT EXISTS document_embeddings USING vec0(
			document_id TEXT PRIMARY KEY,
			embedding float[%d]
		)
	`, dimensions))
	if err != nil {
		return fmt.Errorf("failed to create vector table: %w", err)
	}
	return nil
}

// Name returns the store name.
func (s *Store) Name() string {
	return "sqlitevec"
}

// Add inserts documents with their embeddings.
func (s *Store) Add(ctx context.Context, docs []*types.DocumentWithEmbedding) error {
	if len(docs) == 0 {
		return nil
	}

	if len(docs[0].Embedding) > 0 {
		if err := s.createVectorTable(len(docs[0].Embedding)); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, d := range docs {
		id := d.Document.ID
		if id == "" {
			id = d.Document.GenerateID()
		}

		metaJSON, err := json.Marshal(d.Document.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO documents (id, title, content, source, metadata)
			VALUES (?, ?, ?, ?, ?)
		`, id, d.Document.Title, d.Document.Content, d.Document.Source, string(metaJSON))
		if err != nil {
			return fmt.Errorf("failed to insert document %s: %w", id, err)
		}

		_, _ = tx.ExecContext(ctx, "DELETE FROM document_embeddings WHERE document_id = ?", id)
		_, err = tx.ExecContext(ctx, `
			INSERT INTO document_embeddings (document_id, embedding)
			VALUES (?, ?)
		`, id, floatsToBytes(d.Embedding))
		if err != nil {
			return fmt.Errorf("failed to insert embedding for %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// Search returns the k nearest documents using cosine distance.
func (s *Store) Search(ctx context.Context, queryVec []float32, k int) ([]*types.SearchResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			de.document_id,
			vec_distance_cosine(de.embedding, ?) as distance,
			d.title, d.content, d.source, d.metadata
		FROM document_embeddings de
		JOIN documents d ON de.document_id = d.id
		ORDER BY distance ASC
		LIMIT ?
	`, floatsToBytes(queryVec), k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	defer rows.Close()

	var results []*types.SearchResult
	for rows.Next() {
		var (
			id       string
			distance float64
			doc      types.Document
			metaJSON string
		)
		if err := rows.Scan(&id, &distance, &doc.Title, &doc.Content, &doc.Source, &metaJSON); err != nil {
			return nil, err
		}

		doc.ID = id
		if metaJSON != "" {
			_ = json.Unmarshal([]byte(metaJSON), &doc.Metadata)
		}

		results = append(results, &types.SearchResult{
			Document:   &doc,
			Similarity: float32(1.0 - distance),
		})
	}

	return results, rows.Err()
}

// Stats returns store statistics.
func (s *Store) Stats(ctx context.Context) (*types.StoreStats, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}

	return &types.StoreStats{
		Documents:  count,
		Dimensions: s.dims,
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// floatsToBytes serializes a float32 slice for sqlite-vec.
func floatsToBytes(floats []float32) []byte {
	bytes := make([]byte, len(floats)*4)
	for i, f := range floats {
		bits := math.Float32bits(f)
		bytes[i*4] = byte(bits)
		bytes[i*4+1] = byte(bits >> 8)
		bytes[i*4+2] = byte(bits >> 16)
		bytes[i*4+3] = byte(bits >> 24)
	}
	return bytes
}

// Ensure Store implements VectorStore interface
var _ provider.VectorStore = (*Store)(nil)
