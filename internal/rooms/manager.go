package rooms

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Manager tracks the rooms opened for running interviews. Provider
// failures degrade the interview to chat-only and are never surfaced
// to the candidate path. All methods are nil-safe.
type Manager struct {
	provider Provider
	log      *zap.Logger

	mu    sync.Mutex
	rooms map[string]*Room // interview ID -> room
}

// NewManager creates a manager over provider.
func NewManager(provider Provider, log *zap.Logger) *Manager {
	return &Manager{
		provider: provider,
		log:      log,
		rooms:    make(map[string]*Room),
	}
}

// Open creates a room for an interview. Returns nil when the provider
// is unavailable; the interview then runs chat-only.
func (m *Manager) Open(ctx context.Context, interviewID string) *Room {
	if m == nil {
		return nil
	}
	room, err := m.provider.Create(ctx, interviewID)
	if err != nil {
		m.log.Warn("room creation failed, continuing chat-only",
			zap.String("interview_id", interviewID), zap.Error(err))
		return nil
	}
	m.mu.Lock()
	m.rooms[interviewID] = room
	m.mu.Unlock()
	return room
}

// Get returns the room for an interview, or false when it runs chat-only.
func (m *Manager) Get(interviewID string) (*Room, bool) {
	if m == nil {
		return nil, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[interviewID]
	return room, ok
}

// Release closes the room for an interview, if one was opened.
func (m *Manager) Release(ctx context.Context, interviewID string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	room, ok := m.rooms[interviewID]
	delete(m.rooms, interviewID)
	m.mu.Unlock()
	if !ok {
		return
	}
	if err := m.provider.Close(ctx, room.ID); err != nil {
		m.log.Warn("room close failed",
			zap.String("interview_id", interviewID), zap.String("room_id", room.ID), zap.Error(err))
	}
}

// Healthy reports whether the provider is reachable.
func (m *Manager) Healthy(ctx context.Context) bool {
	if m == nil {
		return false
	}
	return m.provider.Healthy(ctx)
}
