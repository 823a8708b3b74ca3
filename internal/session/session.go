// Package session stores per-session conversation state. Two drivers are
// provided: an in-memory map with TTL eviction for single-instance
// deployments, and Redis for multi-replica deployments.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/mdelehaye/cvchat/pkg/types"
)

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("session not found")

// Session holds one conversation's state.
type Session struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	History   []types.Message `json:"history"`
}

// Trim keeps only the last n exchanges (2n messages) of history.
func (s *Session) Trim(exchanges int) {
	max := exchanges * 2
	if len(s.History) > max {
		s.History = s.History[len(s.History)-max:]
	}
}

// Clone returns a deep copy of the session. Stores hand out copies so
// concurrent callers never share a History slice.
func (s *Session) Clone() *Session {
	c := *s
	c.History = make([]types.Message, len(s.History))
	copy(c.History, s.History)
	return &c
}

// Store defines the interface for session storage operations.
type Store interface {
	// Get retrieves a session by ID.
	// Returns nil if the session is not found (not an error).
	Get(ctx context.Context, id string) (*Session, error)

	// Put creates or replaces a session.
	Put(ctx context.Context, s *Session) error

	// Delete removes a session by ID.
	// Returns ErrNotFound if the session does not exist.
	Delete(ctx context.Context, id string) error

	// List returns the IDs of all live sessions.
	List(ctx context.Context) ([]string, error)

	// Count returns the number of live sessions.
	Count(ctx context.Context) (int, error)

	// Close closes the store and releases any resources.
	Close() error
}
