package wsclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap/zaptest"

	"github.com/avatarlive/server/domain"
)

type received struct {
	messageType int
	data        string
}

// newRecordingServer records every frame it receives and answers each text
// frame with a chat reply.
func newRecordingServer(t *testing.T) (string, <-chan received, <-chan string) {
	t.Helper()
	frames := make(chan received, 16)
	origins := make(chan string, 1)
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origins <- r.Header.Get("Origin")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		for {
			messageType, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			frames <- received{messageType: messageType, data: string(data)}
			if messageType == websocket.TextMessage {
				conn.WriteJSON(domain.NewChatReply("ack"))
			}
		}
	}))
	t.Cleanup(server.Close)

	return "ws" + strings.TrimPrefix(server.URL, "http"), frames, origins
}

func next(t *testing.T, frames <-chan received) received {
	t.Helper()
	select {
	case f := <-frames:
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for frame")
		return received{}
	}
}

func TestConn_QueuesUntilOpen(t *testing.T) {
	url, frames, origins := newRecordingServer(t)
	conn := New(url, WithOrigin("http://localhost:5173"), WithLogger(zaptest.NewLogger(t)))
	defer conn.Close()

	if err := conn.SendChat("first"); err != nil {
		t.Fatalf("SendChat failed: %v", err)
	}
	if err := conn.SendAudio([]byte{1, 2, 3}); err != nil {
		t.Fatalf("SendAudio failed: %v", err)
	}
	if err := conn.SendPose(map[string]float64{"headYaw": 0.1}); err != nil {
		t.Fatalf("SendPose failed: %v", err)
	}

	if conn.Pending() != 3 {
		t.Fatalf("Expected 3 queued sends, got %d", conn.Pending())
	}

	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if conn.Pending() != 0 {
		t.Errorf("Expected queue flushed, got %d", conn.Pending())
	}
	if origin := <-origins; origin != "http://localhost:5173" {
		t.Errorf("Expected origin header, got %q", origin)
	}

	first := next(t, frames)
	if first.messageType != websocket.TextMessage || !strings.Contains(first.data, `"first"`) {
		t.Errorf("Expected chat first, got %+v", first)
	}
	second := next(t, frames)
	if second.messageType != websocket.BinaryMessage || second.data != string([]byte{1, 2, 3}) {
		t.Errorf("Expected audio second, got %+v", second)
	}
	third := next(t, frames)
	if !strings.Contains(third.data, `"pose"`) {
		t.Errorf("Expected pose third, got %+v", third)
	}

	// Sends after open go straight out.
	if err := conn.SendChat("later"); err != nil {
		t.Fatalf("SendChat failed: %v", err)
	}
	if f := next(t, frames); !strings.Contains(f.data, `"later"`) {
		t.Errorf("Expected later chat, got %+v", f)
	}
}

func TestConn_ReceivesMessages(t *testing.T) {
	url, _, _ := newRecordingServer(t)
	conn := New(url)
	defer conn.Close()

	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	conn.SendChat("hello")

	select {
	case msg := <-conn.Messages():
		if msg.Type != domain.OutboundChat || !strings.Contains(string(msg.Payload), "ack") {
			t.Errorf("Unexpected message %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for reply")
	}
}

func TestConn_SendAfterClose(t *testing.T) {
	conn := New("ws://127.0.0.1:1/ws")
	conn.SendChat("dropped")
	conn.Close()

	if conn.Pending() != 0 {
		t.Error("Close must drop the queue")
	}
	if err := conn.SendChat("x"); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}

// newScriptedServer runs script against every accepted connection.
func newScriptedServer(t *testing.T, script func(conn *websocket.Conn)) string {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		script(conn)
	}))
	t.Cleanup(server.Close)

	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func waitDone(t *testing.T, conn *Conn) {
	t.Helper()
	select {
	case <-conn.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for the read side to end")
	}
}

func TestConn_ServerCloseReleasesSocket(t *testing.T) {
	url := newScriptedServer(t, func(conn *websocket.Conn) {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
	})

	conn := New(url, WithLogger(zaptest.NewLogger(t)))
	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	waitDone(t, conn)

	conn.mu.Lock()
	ws := conn.ws
	conn.mu.Unlock()
	if ws != nil {
		t.Error("Socket should be closed once the server closes the connection")
	}

	if err := conn.Close(); err != nil {
		t.Errorf("Close after server close returned %v", err)
	}
	if err := conn.SendChat("late"); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}

func TestConn_CloseWithUnreadMessages(t *testing.T) {
	url := newScriptedServer(t, func(conn *websocket.Conn) {
		// More than the client buffers, so its reader blocks.
		for i := 0; i < 200; i++ {
			if err := conn.WriteJSON(domain.NewChatReply("flood")); err != nil {
				return
			}
		}
		conn.ReadMessage()
	})

	conn := New(url, WithLogger(zaptest.NewLogger(t)))
	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	// Let the reader fill the buffer.
	deadline := time.Now().Add(2 * time.Second)
	for len(conn.messages) < cap(conn.messages) && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if err := conn.Close(); err != nil {
		t.Errorf("Close returned %v", err)
	}
	waitDone(t, conn)
}
