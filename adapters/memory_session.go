package adapters

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/avatarlive/server/domain/entities"
	"github.com/avatarlive/server/domain/repositories"
)

// MemorySessionRepository is an in-memory SessionRepository
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*entities.Session
}

var _ repositories.SessionRepository = (*MemorySessionRepository)(nil)

// NewMemorySessionRepository creates an empty repository
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[string]*entities.Session),
	}
}

// Add implements SessionRepository interface
func (m *MemorySessionRepository) Add(ctx context.Context, session *entities.Session) error {
	if session == nil {
		return errors.New("session cannot be nil")
	}
	if session.ID == "" {
		return errors.New("session ID cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[session.ID]; exists {
		return errors.New("session already registered")
	}
	m.sessions[session.ID] = session
	return nil
}

// Get implements SessionRepository interface
func (m *MemorySessionRepository) Get(ctx context.Context, id string) (*entities.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[id]
	if !exists {
		return nil, repositories.ErrSessionNotFound
	}
	return session, nil
}

// Remove implements SessionRepository interface
func (m *MemorySessionRepository) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[id]; !exists {
		return repositories.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

// List returns snapshots of all sessions, oldest first
func (m *MemorySessionRepository) List(ctx context.Context) ([]entities.SessionInfo, error) {
	m.mu.RLock()
	infos := make([]entities.SessionInfo, 0, len(m.sessions))
	for _, session := range m.sessions {
		infos = append(infos, session.Snapshot())
	}
	m.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ConnectedAt.Before(infos[j].ConnectedAt)
	})
	return infos, nil
}

// Count implements SessionRepository interface
func (m *MemorySessionRepository) Count(ctx context.Context) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
