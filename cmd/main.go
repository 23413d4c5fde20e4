package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/avatarlive/server/adapters"
	"github.com/avatarlive/server/adapters/ace"
	"github.com/avatarlive/server/adapters/audio2face"
	"github.com/avatarlive/server/adapters/llm"
	"github.com/avatarlive/server/adapters/tts"
	"github.com/avatarlive/server/internal/api"
	"github.com/avatarlive/server/internal/config"
	"github.com/avatarlive/server/internal/observability"
	"github.com/avatarlive/server/internal/websocket"
	"github.com/avatarlive/server/usecase"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger is not configured yet
		bootstrap, _ := zap.NewProduction()
		bootstrap.Fatal("Invalid configuration", zap.Error(err))
	}

	// Initialize logger
	var logger *zap.Logger
	if cfg.IsDevelopment() {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics(cfg.Metrics)

	// Initialize adapters
	providers := usecase.Providers{
		Chat:   llm.New(ctx, cfg.Chat, logger),
		Speech: tts.New(cfg.Speech, logger),
		Face:   audio2face.New(cfg.Face, logger),
		Pose:   ace.New(cfg.Pose, logger),
	}
	sessionService := usecase.NewSessionService(providers, metrics, logger)
	sessions := adapters.NewMemorySessionRepository()

	hub := websocket.NewHub(sessionService, sessions, websocket.Options{
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		PingInterval:      cfg.Server.PingInterval,
		SerializeHandlers: cfg.Server.SerializeHandlers,
	}, metrics, logger)
	go hub.Run()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Error(v.Error))
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: cfg.CORS}))

	api.InitRoutes(e, api.Dependencies{
		WebSocket: hub.HandleWebSocket,
		Sessions:  sessions,
		Providers: sessionService,
		Metrics:   metrics,
		Logger:    logger,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Avatar session server started",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.AppEnv),
		zap.Any("providers", sessionService.Modes()))

	<-ctx.Done()
	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := hub.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Session hub did not drain in time", zap.Error(err))
	}
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
