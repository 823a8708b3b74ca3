package session

import (
	"context"
	"sync"
	"time"
)

// Default values
const (
	DefaultTTL           = 24 * time.Hour
	defaultSweepInterval = time.Minute
)

// MemoryStore implements Store using an in-memory map. Entries expire after
// a TTL, refreshed on every read and write, so an abandoned session cannot
// pin memory forever.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*memoryEntry
	ttl      time.Duration

	stopOnce sync.Once
	stop     chan struct{}
}

type memoryEntry struct {
	session  *Session
	deadline time.Time
}

// NewMemoryStore creates a new in-memory session store and starts its
// eviction janitor.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	s := &MemoryStore{
		sessions: make(map[string]*memoryEntry),
		ttl:      ttl,
		stop:     make(chan struct{}),
	}
	go s.janitor()
	return s
}

// janitor periodically evicts expired sessions.
func (s *MemoryStore) janitor() {
	ticker := time.NewTicker(defaultSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.evictExpired(now)
		}
	}
}

func (s *MemoryStore) evictExpired(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.sessions {
		if now.After(e.deadline) {
			delete(s.sessions, id)
		}
	}
}

// Get implements Store. Refreshes the TTL on read.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	if time.Now().After(e.deadline) {
		delete(s.sessions, id)
		return nil, nil
	}

	e.deadline = time.Now().Add(s.ttl)
	// Copy so the caller cannot mutate the stored session outside the lock
	return e.session.Clone(), nil
}

// Put implements Store.
func (s *MemoryStore) Put(ctx context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	sess.UpdatedAt = now

	s.sessions[sess.ID] = &memoryEntry{
		session:  sess.Clone(),
		deadline: now.Add(s.ttl),
	}
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

// List implements Store.
func (s *MemoryStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	ids := make([]string, 0, len(s.sessions))
	for id, e := range s.sessions {
		if now.After(e.deadline) {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Count implements Store.
func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	ids, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// Close implements Store. Stops the janitor and drops all sessions.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() {
		close(s.stop)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]*memoryEntry)
	return nil
}

// Ensure MemoryStore implements Store interface
var _ Store = (*MemoryStore)(nil)
