package websocket

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/avatarlive/server/domain"
	"github.com/avatarlive/server/domain/entities"
	"github.com/avatarlive/server/internal/observability"
)

// ErrClientClosed is returned by Send once the connection has been torn down
var ErrClientClosed = errors.New("client connection closed")

const (
	sendBufferSize  = 256
	inboxBufferSize = 64
)

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of encoded outbound frames. Never closed; writers
	// select on done instead.
	send chan []byte

	// Serialized mode only: inbound messages waiting for the worker.
	inbox chan domain.InboundMessage

	done      chan struct{}
	closeOnce sync.Once

	// Cancelled at teardown so in-flight provider calls are abandoned.
	ctx    context.Context
	cancel context.CancelFunc

	session  *entities.Session
	liveness *Liveness
	metrics  *observability.Metrics
	logger   *zap.Logger
}

func newClient(hub *Hub, conn *websocket.Conn, session *entities.Session) *Client {
	ctx, cancel := context.WithCancel(hub.ctx)
	c := &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
		session: session,
		metrics: hub.metrics,
		logger:  hub.logger.With(zap.String("sessionID", session.ID)),
	}
	if hub.options.SerializeHandlers {
		c.inbox = make(chan domain.InboundMessage, inboxBufferSize)
	}
	c.liveness = NewLiveness(hub.options.PingInterval, c.ping, c.logger)
	return c
}

// Send queues msg for delivery. It blocks while the send buffer is full and
// fails with ErrClientClosed once the connection is gone.
func (c *Client) Send(msg domain.OutboundMessage) error {
	data, err := Encode(msg)
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	select {
	case c.send <- data:
		c.metrics.Message(observability.DirectionOutbound, string(msg.Type))
		return nil
	case <-c.done:
		return ErrClientClosed
	}
}

// Session returns the transit session record of this connection
func (c *Client) Session() *entities.Session {
	return c.session
}

func (c *Client) start() {
	c.liveness.Start()
	if c.inbox != nil {
		go c.serialWorker()
	}
	go c.writePump()
	go c.readPump()
}

// readPump pumps messages from the websocket connection to the session service.
func (c *Client) readPump() {
	defer c.close()

	pongWait := c.hub.pongWait()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.logger.Warn("WebSocket error", zap.Error(err))
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		msg, err := Decode(messageType, message)
		if err != nil {
			c.metrics.Message(observability.DirectionInbound, "invalid")
			c.logger.Debug("Rejected inbound message", zap.Error(err))
			c.Send(domain.NewError(err.Error()))
			continue
		}
		if msg == nil {
			c.metrics.Message(observability.DirectionInbound, "ignored")
			continue
		}

		c.metrics.Message(observability.DirectionInbound, string(msg.InboundType()))
		c.dispatch(msg)
	}
}

// dispatch hands msg to the session service: on its own goroutine by default,
// or through the per-connection inbox when handlers are serialized.
func (c *Client) dispatch(msg domain.InboundMessage) {
	if c.inbox == nil {
		go c.hub.handler.Handle(c.ctx, msg, c)
		return
	}

	select {
	case c.inbox <- msg:
	case <-c.done:
	}
}

func (c *Client) serialWorker() {
	for {
		select {
		case msg := <-c.inbox:
			c.hub.handler.Handle(c.ctx, msg, c)
		case <-c.done:
			return
		}
	}
}

// writePump pumps queued frames to the websocket connection.
func (c *Client) writePump() {
	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debug("Failed to write message", zap.Error(err))
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Client) ping() error {
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// closeWith sends a close frame with code and reason, then tears down.
func (c *Client) closeWith(code int, reason string) {
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(writeWait))
	c.close()
}

// close tears the connection down exactly once.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.done)
		c.liveness.Stop()
		c.conn.Close()
		c.hub.unregisterClient(c)
	})
}
