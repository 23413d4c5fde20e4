package api

import (
	"github.com/avatarlive/server/domain/entities"
	"github.com/avatarlive/server/domain/repositories"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status         string `json:"status"`
	Service        string `json:"service"`
	ActiveSessions int    `json:"activeSessions"`
}

// ProvidersResponse reports the resolved mode of each provider
type ProvidersResponse map[string]repositories.ProviderMode

// SessionsResponse lists the connected sessions
type SessionsResponse struct {
	Sessions []entities.SessionInfo `json:"sessions"`
	Count    int                    `json:"count"`
}
