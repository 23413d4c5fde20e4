package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/avatarlive/server/domain/repositories"
	"github.com/avatarlive/server/internal/observability"
)

const serviceName = "avatarlive-server"

// ProviderStatus reports the mode each provider resolved to at startup
type ProviderStatus interface {
	Modes() map[string]repositories.ProviderMode
}

// Dependencies are the components the HTTP surface exposes
type Dependencies struct {
	WebSocket echo.HandlerFunc
	Sessions  repositories.SessionRepository
	Providers ProviderStatus
	Metrics   *observability.Metrics
	Logger    *zap.Logger
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, deps Dependencies) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, HealthResponse{
			Status:         "ok",
			Service:        serviceName,
			ActiveSessions: deps.Sessions.Count(c.Request().Context()),
		})
	})

	// Duplex avatar session
	e.GET("/ws", deps.WebSocket)

	if deps.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(deps.Metrics.Handler()))
	}

	v1 := e.Group("/api/v1")

	v1.GET("/providers", func(c echo.Context) error {
		return c.JSON(http.StatusOK, ProvidersResponse(deps.Providers.Modes()))
	})

	v1.GET("/sessions", func(c echo.Context) error {
		return listSessions(c, deps)
	})
	v1.GET("/sessions/:id", func(c echo.Context) error {
		return getSession(c, deps)
	})
}

func listSessions(c echo.Context, deps Dependencies) error {
	sessions, err := deps.Sessions.List(c.Request().Context())
	if err != nil {
		deps.Logger.Error("Failed to list sessions", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to list sessions",
		})
	}

	return c.JSON(http.StatusOK, SessionsResponse{
		Sessions: sessions,
		Count:    len(sessions),
	})
}

func getSession(c echo.Context, deps Dependencies) error {
	session, err := deps.Sessions.Get(c.Request().Context(), c.Param("id"))
	if errors.Is(err, repositories.ErrSessionNotFound) {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Session not found",
		})
	}
	if err != nil {
		deps.Logger.Error("Failed to get session", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal_error",
		})
	}

	return c.JSON(http.StatusOK, session.Snapshot())
}
