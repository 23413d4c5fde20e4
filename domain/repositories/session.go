package repositories

import (
	"context"
	"errors"

	"github.com/avatarlive/server/domain/entities"
)

// ErrSessionNotFound is returned when a session id is not registered
var ErrSessionNotFound = errors.New("session not found")

// SessionRepository tracks the sessions that are currently connected.
// Closed sessions are removed; nothing outlives the process.
type SessionRepository interface {
	Add(ctx context.Context, session *entities.Session) error
	Get(ctx context.Context, id string) (*entities.Session, error)
	Remove(ctx context.Context, id string) error
	List(ctx context.Context) ([]entities.SessionInfo, error)
	Count(ctx context.Context) int
}
