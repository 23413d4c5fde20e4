package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
)

func newGeminiServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/"+defaultGeminiModel+":generateContent") {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("Unexpected API key header %q", r.Header.Get("x-goog-api-key"))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestGemini(t *testing.T, server *httptest.Server) *GeminiBackend {
	t.Helper()
	backend, err := NewGeminiBackend(context.Background(),
		Config{GeminiAPIKey: "test-key", GeminiBaseURL: server.URL}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewGeminiBackend failed: %v", err)
	}
	return backend
}

func TestGeminiBackend_Generate(t *testing.T) {
	server := newGeminiServer(t, http.StatusOK, `{
		"candidates": [
			{"content": {"role": "model", "parts": [{"text": "  Hello "}, {"text": "from Gemini!  "}]}},
			{"content": {"role": "model", "parts": [{"text": "second candidate"}]}}
		]
	}`)
	backend := newTestGemini(t, server)

	reply, err := backend.Generate(context.Background(), "Hi")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if reply != "Hello from Gemini!" {
		t.Errorf("Expected joined parts of the first candidate, got %q", reply)
	}
}

func TestGeminiBackend_NoCandidates(t *testing.T) {
	server := newGeminiServer(t, http.StatusOK, `{"candidates": []}`)
	backend := newTestGemini(t, server)

	reply, err := backend.Generate(context.Background(), "Hi")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if reply != "" {
		t.Errorf("Expected empty reply, got %q", reply)
	}
}

func TestGeminiBackend_ErrorStatus(t *testing.T) {
	server := newGeminiServer(t, http.StatusBadRequest,
		`{"error": {"code": 400, "message": "bad request", "status": "INVALID_ARGUMENT"}}`)
	backend := newTestGemini(t, server)

	if _, err := backend.Generate(context.Background(), "Hi"); err == nil {
		t.Error("Expected error for rejected request")
	}
}

func TestNewGeminiBackend_RequiresKey(t *testing.T) {
	if _, err := NewGeminiBackend(context.Background(), Config{}, zaptest.NewLogger(t)); err == nil {
		t.Error("Expected error without API key")
	}
}
