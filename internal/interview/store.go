package interview

import (
	"errors"
	"sync"
)

// Sentinel errors surfaced to the orchestrator's caller. Every other
// failure is absorbed by a fallback path.
var (
	ErrSessionNotFound  = errors.New("interview session not found")
	ErrDuplicateSession = errors.New("interview session already exists")
)

// Store holds one record per interview session, keyed by session id.
// Implementations must support safe concurrent access across session
// ids; per-key consistency is enough, no cross-session ordering.
type Store interface {
	Create(s *Session) error
	Get(id string) (*Session, error)
	Delete(id string) error
	Len() int
}

// MemoryStore is the in-process Store used by the gateway. Completed
// sessions stay resident for audit until explicitly deleted.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

// Create inserts a new session, failing if the id already exists.
func (m *MemoryStore) Create(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; ok {
		return ErrDuplicateSession
	}
	m.sessions[s.ID] = s
	return nil
}

// Get returns the session for id, or ErrSessionNotFound.
func (m *MemoryStore) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Delete removes the session for id, if present.
func (m *MemoryStore) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len returns the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
