package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/avatarlive/server/domain/repositories"
	"github.com/avatarlive/server/internal/audio"
)

func TestNewElevenLabsTTS(t *testing.T) {
	logger := zaptest.NewLogger(t)

	_, err := NewElevenLabsTTS(Config{}, logger)
	if err == nil {
		t.Error("Expected error when API key is not set")
	}

	tts, err := NewElevenLabsTTS(Config{APIKey: "test-api-key"}, logger)
	if err != nil {
		t.Fatalf("Failed to create ElevenLabsTTS: %v", err)
	}

	if tts.apiKey != "test-api-key" {
		t.Errorf("Expected API key 'test-api-key', got '%s'", tts.apiKey)
	}

	if tts.voiceID != defaultVoiceID {
		t.Errorf("Expected default voice ID '%s', got '%s'", defaultVoiceID, tts.voiceID)
	}

	if tts.apiBaseURL != defaultAPIBaseURL {
		t.Errorf("Expected default base URL '%s', got '%s'", defaultAPIBaseURL, tts.apiBaseURL)
	}
}

func newTestServer(t *testing.T, status int, body []byte) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/text-to-speech/voice-1/stream" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("output_format") != "pcm_16000" {
			t.Errorf("Unexpected output format %q", r.URL.Query().Get("output_format"))
		}
		if r.Header.Get("xi-api-key") != "secret" {
			t.Errorf("Missing api key header")
		}

		var req ElevenLabsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		if req.Text != "hello there" {
			t.Errorf("Expected text 'hello there', got %q", req.Text)
		}

		w.WriteHeader(status)
		w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func newLiveTTS(t *testing.T, baseURL string) *ElevenLabsTTS {
	t.Helper()

	tts, err := NewElevenLabsTTS(Config{APIKey: "secret", APIBaseURL: baseURL, VoiceID: "voice-1"}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("Failed to create ElevenLabsTTS: %v", err)
	}
	return tts
}

func TestElevenLabsTTS_WrapsRawPCM(t *testing.T) {
	pcm := bytes.Repeat([]byte{0x10, 0x00}, 320)
	server := newTestServer(t, http.StatusOK, pcm)

	out, err := newLiveTTS(t, server.URL).Synthesize(context.Background(), "hello there")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	h, data, err := audio.DecodeWAV(out)
	if err != nil {
		t.Fatalf("Expected WAV output: %v", err)
	}

	if h.SampleRate != 16000 || h.NumChannels != 1 {
		t.Errorf("Expected 16000Hz mono, got %dHz %dch", h.SampleRate, h.NumChannels)
	}

	if !bytes.Equal(data, pcm) {
		t.Error("Wrapped payload should match provider bytes")
	}
}

func TestElevenLabsTTS_KeepsWAV(t *testing.T) {
	wav := audio.EncodeWAV(bytes.Repeat([]byte{1}, 100), 22050, 1)
	server := newTestServer(t, http.StatusOK, wav)

	out, err := newLiveTTS(t, server.URL).Synthesize(context.Background(), "hello there")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	if !bytes.Equal(out, wav) {
		t.Error("A WAV response should be returned unchanged")
	}
}

func TestElevenLabsTTS_ErrorStatus(t *testing.T) {
	server := newTestServer(t, http.StatusUnauthorized, []byte(`{"detail":"bad key"}`))

	_, err := newLiveTTS(t, server.URL).Synthesize(context.Background(), "hello there")
	if err == nil {
		t.Fatal("Expected error for non-success status")
	}

	var perr *repositories.ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected ProviderError, got %T", err)
	}

	if err.Error() != "ElevenLabs TTS failed: 401" {
		t.Errorf("Unexpected error message %q", err.Error())
	}
}

func TestSilentTTS(t *testing.T) {
	tts := NewSilentTTS(zap.NewNop())

	if tts.Mode() != repositories.ModeSimulated {
		t.Errorf("Expected simulated mode, got %s", tts.Mode())
	}

	for _, text := range []string{"", "hi", "a much longer sentence"} {
		out, err := tts.Synthesize(context.Background(), text)
		if err != nil {
			t.Fatalf("Synthesize failed: %v", err)
		}

		if !audio.IsWAV(out) {
			t.Fatal("Simulated speech must be a WAV container")
		}

		h, _ := audio.ParseHeader(out)
		if h.Subchunk2Size != 16000 {
			t.Errorf("Expected half a second at 16 kHz (16000 bytes), got %d", h.Subchunk2Size)
		}
	}
}

func TestNew_ModeSelection(t *testing.T) {
	logger := zap.NewNop()

	if New(Config{}, logger).Mode() != repositories.ModeSimulated {
		t.Error("Expected simulated mode without API key")
	}

	if New(Config{APIKey: "k", ForceSimulated: true}, logger).Mode() != repositories.ModeSimulated {
		t.Error("Expected simulated mode when forced")
	}

	if New(Config{APIKey: "k"}, logger).Mode() != repositories.ModeLive {
		t.Error("Expected live mode with API key")
	}
}
