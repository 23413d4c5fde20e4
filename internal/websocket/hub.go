package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/avatarlive/server/domain"
	"github.com/avatarlive/server/domain/entities"
	"github.com/avatarlive/server/domain/repositories"
	"github.com/avatarlive/server/internal/observability"
	"github.com/avatarlive/server/usecase"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 1024 * 1024

	// Read deadline, in ping intervals, before a silent peer is considered dead.
	pongIntervals = 3

	defaultPingInterval = 5 * time.Second

	// CloseReasonOriginNotAllowed accompanies close code 1008
	CloseReasonOriginNotAllowed = "Origin not allowed"
)

// Origins are checked after the upgrade so the client receives a proper close code.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// MessageHandler processes one decoded inbound message for a connection
type MessageHandler interface {
	Handle(ctx context.Context, msg domain.InboundMessage, out usecase.Responder)
}

// Options configures connection handling
type Options struct {
	AllowedOrigins    []string
	PingInterval      time.Duration
	SerializeHandlers bool
}

// Hub maintains the set of active clients.
type Hub struct {
	// Registered clients.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	allowed  map[string]struct{}
	options  Options
	handler  MessageHandler
	sessions repositories.SessionRepository
	metrics  *observability.Metrics
	logger   *zap.Logger

	// Parent of every connection context; cancelled on shutdown.
	ctx    context.Context
	cancel context.CancelFunc

	quit     chan struct{}
	quitOnce sync.Once
}

// NewHub creates a new WebSocket hub
func NewHub(
	handler MessageHandler,
	sessions repositories.SessionRepository,
	options Options,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Hub {
	if options.PingInterval <= 0 {
		options.PingInterval = defaultPingInterval
	}

	allowed := make(map[string]struct{}, len(options.AllowedOrigins))
	for _, origin := range options.AllowedOrigins {
		allowed[origin] = struct{}{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		allowed:    allowed,
		options:    options,
		handler:    handler,
		sessions:   sessions,
		metrics:    metrics,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		quit:       make(chan struct{}),
	}
}

// Run starts the hub's main loop. It returns after Shutdown.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.add(client)
		case client := <-h.unregister:
			h.remove(client)
		case <-h.quit:
			return
		}
	}
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	h.clients[client.session.ID] = client
	h.mu.Unlock()

	if err := h.sessions.Add(h.ctx, client.session); err != nil {
		h.logger.Error("Failed to track session", zap.String("sessionID", client.session.ID), zap.Error(err))
	} else {
		h.metrics.SessionOpened()
	}
	h.logger.Info("Client registered",
		zap.String("sessionID", client.session.ID),
		zap.String("origin", client.session.Origin))
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client.session.ID]
	delete(h.clients, client.session.ID)
	h.mu.Unlock()
	if !ok {
		return
	}

	client.session.Close()
	if err := h.sessions.Remove(h.ctx, client.session.ID); err != nil {
		h.logger.Debug("Session was not tracked", zap.String("sessionID", client.session.ID), zap.Error(err))
	} else {
		h.metrics.SessionClosed()
	}
	h.logger.Info("Client unregistered",
		zap.String("sessionID", client.session.ID),
		zap.Duration("duration", client.session.Duration()))
}

func (h *Hub) registerClient(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.quit:
		return false
	}
}

func (h *Hub) unregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
		h.remove(client)
	}
}

// OriginAllowed reports whether a handshake origin may open a session. An
// absent origin (non-browser client) is always allowed.
func (h *Hub) OriginAllowed(origin string) bool {
	if origin == "" {
		return true
	}
	_, ok := h.allowed[origin]
	return ok
}

func (h *Hub) pongWait() time.Duration {
	return h.options.PingInterval * pongIntervals
}

// HandleWebSocket upgrades the request and starts a session.
func (h *Hub) HandleWebSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return nil
	}

	origin := c.Request().Header.Get("Origin")
	if !h.OriginAllowed(origin) {
		h.metrics.OriginRejected()
		h.logger.Warn("Rejected connection from disallowed origin", zap.String("origin", origin))
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, CloseReasonOriginNotAllowed),
			time.Now().Add(writeWait))
		conn.Close()
		return nil
	}

	session := entities.NewSession(origin, c.RealIP())
	client := newClient(h, conn, session)
	if !h.registerClient(client) {
		client.closeWith(websocket.CloseGoingAway, "server shutting down")
		return nil
	}

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	client.start()
	return nil
}

// ActiveSessions returns the number of connected clients
func (h *Hub) ActiveSessions() int {
	return h.sessions.Count(h.ctx)
}

// Sessions lists the connected sessions
func (h *Hub) Sessions(ctx context.Context) ([]entities.SessionInfo, error) {
	return h.sessions.List(ctx)
}

// Shutdown stops the hub and closes every connection with 1001 going away.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.quitOnce.Do(func() {
		close(h.quit)
	})

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	h.logger.Info("Closing sessions", zap.Int("count", len(clients)))
	for _, client := range clients {
		if ctx.Err() != nil {
			break
		}
		client.closeWith(websocket.CloseGoingAway, "server shutting down")
	}
	h.cancel()
	return ctx.Err()
}
