// Package types contains shared data types used across the cvchat project.
package types

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// Document represents a piece of CV content stored in the vector store.
type Document struct {
	ID       string            `json:"id"`
	Title    string            `json:"title"`    // CV section title, e.g. "Technical Skills"
	Content  string            `json:"content"`  // Chunk content
	Source   string            `json:"source"`   // Origin, e.g. "cv" or a file path
	Metadata map[string]string `json:"metadata"` // Additional key/value metadata
}

// GenerateID creates a unique ID for the document from its content.
func (d *Document) GenerateID() string {
	h := sha256.Sum256([]byte(d.Title + "\n" + d.Content))
	return d.Source + ":" + hex.EncodeToString(h[:8])
}

// DocumentWithEmbedding is a Document with its vector embedding.
type DocumentWithEmbedding struct {
	Document  *Document
	Embedding []float32
}

// SearchResult represents a single nearest-neighbor search result.
type SearchResult struct {
	Document   *Document
	Similarity float32 // Cosine similarity, higher is closer
}

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single conversation turn.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatResult is the outcome of one conversational retrieval turn.
type ChatResult struct {
	Answer    string   // Synthesized answer
	Sources   []string // Deduplicated section titles of retrieved documents
	SessionID string   // Session the turn belongs to
}

// IngestProgress reports progress during CV ingestion.
type IngestProgress struct {
	Phase     string // "splitting", "embedding", "storing", "done"
	Documents int    // Documents processed so far
	Total     int    // Total documents
}

// String formats ingest progress for logging.
func (p IngestProgress) String() string {
	return p.Phase + " " + strconv.Itoa(p.Documents) + "/" + strconv.Itoa(p.Total)
}

// StoreStats contains statistics about the vector store.
type StoreStats struct {
	Documents  int
	Dimensions int
}
