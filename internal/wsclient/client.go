package wsclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/avatarlive/server/domain"
)

// ErrClosed is returned when sending on a closed connection
var ErrClosed = errors.New("connection closed")

const writeWait = 10 * time.Second

type state int

const (
	stateConnecting state = iota
	stateOpen
	stateClosed
)

// Message is a decoded server frame
type Message struct {
	Type    domain.OutboundType `json:"type"`
	Payload json.RawMessage     `json:"payload,omitempty"`
	Error   string              `json:"error,omitempty"`
}

type frame struct {
	messageType int
	data        []byte
}

// Conn is a session connection as a browser client sees it. Sends issued
// before the connection opens are queued and flushed in order once it does.
type Conn struct {
	url    string
	header http.Header
	dialer *websocket.Dialer
	logger *zap.Logger

	mu    sync.Mutex
	state state
	queue []frame
	ws    *websocket.Conn

	messages  chan Message
	done      chan struct{}
	closing   chan struct{}
	closeOnce sync.Once
}

// Option customizes a Conn
type Option func(*Conn)

// WithOrigin sets the Origin header sent during the handshake
func WithOrigin(origin string) Option {
	return func(c *Conn) {
		c.header.Set("Origin", origin)
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Conn) {
		c.logger = logger
	}
}

// New creates an unopened connection to url
func New(url string, opts ...Option) *Conn {
	c := &Conn{
		url:      url,
		header:   http.Header{},
		dialer:   websocket.DefaultDialer,
		logger:   zap.NewNop(),
		messages: make(chan Message, 64),
		done:     make(chan struct{}),
		closing:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect dials the server, flushes queued sends and starts reading.
func (c *Conn) Connect(ctx context.Context) error {
	ws, _, err := c.dialer.DialContext(ctx, c.url, c.header)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.url, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == stateClosed {
		ws.Close()
		return ErrClosed
	}

	for i, f := range c.queue {
		if err := write(ws, f); err != nil {
			c.queue = c.queue[i:]
			ws.Close()
			return fmt.Errorf("failed to flush queued message: %w", err)
		}
	}
	c.logger.Debug("Connection open", zap.Int("flushed", len(c.queue)))
	c.queue = nil
	c.ws = ws
	c.state = stateOpen

	go c.readLoop(ws)
	return nil
}

// Messages delivers decoded server messages. It is closed when the connection ends.
func (c *Conn) Messages() <-chan Message {
	return c.messages
}

// Done is closed when the read side ends.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Pending returns the number of queued sends
func (c *Conn) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// SendChat sends a chat message
func (c *Conn) SendChat(text string) error {
	return c.SendJSON(map[string]any{
		"type":    domain.InboundChat,
		"payload": map[string]string{"text": text},
	})
}

// SendPose sends a pose payload
func (c *Conn) SendPose(pose any) error {
	return c.SendJSON(map[string]any{
		"type":    domain.InboundPose,
		"payload": pose,
	})
}

// SendAudio sends one audio chunk as a binary frame
func (c *Conn) SendAudio(chunk []byte) error {
	return c.send(frame{messageType: websocket.BinaryMessage, data: chunk})
}

// SendJSON sends v as a text frame
func (c *Conn) SendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	return c.send(frame{messageType: websocket.TextMessage, data: data})
}

func (c *Conn) send(f frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case stateConnecting:
		c.queue = append(c.queue, f)
		return nil
	case stateOpen:
		return write(c.ws, f)
	default:
		return ErrClosed
	}
}

func write(ws *websocket.Conn, f frame) error {
	ws.SetWriteDeadline(time.Now().Add(writeWait))
	return ws.WriteMessage(f.messageType, f.data)
}

func (c *Conn) readLoop(ws *websocket.Conn) {
	defer close(c.done)
	defer close(c.messages)
	defer c.release(ws)

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug("Read loop ended", zap.Error(err))
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("Ignoring malformed server message", zap.Error(err))
			continue
		}

		select {
		case c.messages <- msg:
		case <-c.closing:
			return
		}
	}
}

// release marks the connection closed and closes ws unless Close already did.
func (c *Conn) release(ws *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = stateClosed
	if c.ws == ws {
		ws.Close()
		c.ws = nil
	}
}

// Close sends a normal close frame and closes the connection. A reader blocked
// on Messages is released.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.closing)
	})

	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.state
	c.state = stateClosed
	c.queue = nil
	if c.ws == nil {
		return nil
	}

	ws := c.ws
	c.ws = nil
	if prev == stateOpen {
		ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
	}
	return ws.Close()
}
