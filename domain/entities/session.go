package entities

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionStatus represents the status of a session
type SessionStatus string

const (
	SessionStatusActive SessionStatus = "active"
	SessionStatusClosed SessionStatus = "closed"
)

// Session represents one duplex connection between a browser client and the server.
// It is pure transit: nothing here is persisted and a reconnecting client gets a new one.
type Session struct {
	ID          string        `json:"id"`
	Origin      string        `json:"origin,omitempty"`
	RemoteAddr  string        `json:"remote_addr,omitempty"`
	ConnectedAt time.Time     `json:"connected_at"`
	ClosedAt    *time.Time    `json:"closed_at,omitempty"`
	Status      SessionStatus `json:"status"`

	mu sync.Mutex
}

// NewSession creates a new active session for an accepted connection
func NewSession(origin, remoteAddr string) *Session {
	return &Session{
		ID:          uuid.New().String(),
		Origin:      origin,
		RemoteAddr:  remoteAddr,
		ConnectedAt: time.Now(),
		Status:      SessionStatusActive,
	}
}

// Close marks the session as closed. It reports whether this call performed the
// transition, so callers can run teardown exactly once.
func (s *Session) Close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status == SessionStatusClosed {
		return false
	}
	now := time.Now()
	s.ClosedAt = &now
	s.Status = SessionStatusClosed
	return true
}

// IsActive reports whether the session has not been closed yet
func (s *Session) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Status == SessionStatusActive
}

// Duration returns how long the session has been (or was) connected
func (s *Session) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ClosedAt != nil {
		return s.ClosedAt.Sub(s.ConnectedAt)
	}
	return time.Since(s.ConnectedAt)
}

// SessionInfo is a lock-free copy of a Session's fields, safe to hand out to readers
type SessionInfo struct {
	ID          string        `json:"id"`
	Origin      string        `json:"origin,omitempty"`
	RemoteAddr  string        `json:"remote_addr,omitempty"`
	ConnectedAt time.Time     `json:"connected_at"`
	ClosedAt    *time.Time    `json:"closed_at,omitempty"`
	Status      SessionStatus `json:"status"`
}

// Snapshot copies the current session state
func (s *Session) Snapshot() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	return SessionInfo{
		ID:          s.ID,
		Origin:      s.Origin,
		RemoteAddr:  s.RemoteAddr,
		ConnectedAt: s.ConnectedAt,
		ClosedAt:    s.ClosedAt,
		Status:      s.Status,
	}
}
