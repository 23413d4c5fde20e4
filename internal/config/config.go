package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/avatarlive/server/adapters/ace"
	"github.com/avatarlive/server/adapters/audio2face"
	"github.com/avatarlive/server/adapters/llm"
	"github.com/avatarlive/server/adapters/tts"
)

const (
	defaultPort            = "8080"
	defaultAllowedOrigin   = "http://localhost:5173"
	defaultPingInterval    = 5 * time.Second
	defaultProviderTimeout = 60 * time.Second
	defaultMetricsNS       = "avatarlive"
)

// Config is built once at startup and handed to every component by value.
// Adapters receive their own section and never read the environment themselves.
type Config struct {
	Port     string
	AppEnv   string
	Metrics  string
	CORS     []string
	Server   ServerConfig
	Chat     llm.Config
	Speech   tts.Config
	Face     audio2face.Config
	Pose     ace.Config
	Simulate bool
}

// ServerConfig holds the duplex session settings
type ServerConfig struct {
	AllowedOrigins    []string
	PingInterval      time.Duration
	SerializeHandlers bool
}

// IsDevelopment reports whether APP_ENV selects the development logger
func (c Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// Load reads an optional .env file and then the process environment.
// Malformed durations or booleans are reported as an error.
func Load() (Config, error) {
	// A missing .env is normal in production.
	_ = godotenv.Load()
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup, which has the signature of os.LookupEnv.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	r := &reader{lookup: lookup}

	simulate := r.bool("USE_MOCK_PROVIDERS", false) || r.bool("USE_MOCK_NVIDIA", false)
	timeout := r.duration("PROVIDER_TIMEOUT", defaultProviderTimeout)

	cfg := Config{
		Port:     r.string("PORT", defaultPort),
		AppEnv:   r.string("APP_ENV", ""),
		Metrics:  r.string("METRICS_NAMESPACE", defaultMetricsNS),
		CORS:     r.list("CORS_ORIGIN", defaultAllowedOrigin),
		Simulate: simulate,
		Server: ServerConfig{
			AllowedOrigins:    r.list("WS_ALLOWED_ORIGINS", defaultAllowedOrigin),
			PingInterval:      r.duration("WS_PING_INTERVAL", defaultPingInterval),
			SerializeHandlers: r.bool("WS_SERIALIZE_HANDLERS", false),
		},
		Chat: llm.Config{
			GeminiAPIKey:   r.string("GEMINI_API_KEY", ""),
			GeminiModel:    r.string("GEMINI_MODEL", ""),
			OpenAIAPIKey:   r.string("OPENAI_API_KEY", ""),
			OpenAIModel:    r.string("OPENAI_MODEL", ""),
			OpenAIBaseURL:  r.string("OPENAI_BASE_URL", ""),
			Timeout:        timeout,
			ForceSimulated: simulate,
		},
		Speech: tts.Config{
			APIKey:         r.string("ELEVENLABS_API_KEY", ""),
			APIBaseURL:     r.string("ELEVENLABS_API_BASE_URL", ""),
			VoiceID:        r.string("ELEVENLABS_VOICE_ID", ""),
			ModelID:        r.string("ELEVENLABS_MODEL_ID", ""),
			Timeout:        timeout,
			ForceSimulated: simulate,
		},
		Face: audio2face.Config{
			CloudURL:       r.string("A2F_API_URL", ""),
			APIKey:         r.string("A2F_API_KEY", ""),
			UseLocal:       r.bool("USE_LOCAL_A2F", false),
			LocalURL:       r.string("A2F_LOCAL_URL", ""),
			Timeout:        timeout,
			ForceSimulated: simulate,
		},
		Pose: ace.Config{
			APIURL:         r.string("ACE_API_URL", ""),
			APIKey:         r.string("ACE_API_KEY", ""),
			Timeout:        timeout,
			ForceSimulated: simulate,
		},
	}

	if cfg.Server.PingInterval <= 0 {
		r.errs = append(r.errs, fmt.Errorf("WS_PING_INTERVAL must be positive"))
	}

	if err := errors.Join(r.errs...); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

type reader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (r *reader) string(key, fallback string) string {
	if v, ok := r.lookup(key); ok {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return fallback
}

func (r *reader) bool(key string, fallback bool) bool {
	v := r.string(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return b
}

func (r *reader) duration(key string, fallback time.Duration) time.Duration {
	v := r.string(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return d
}

// list splits a comma-separated value, dropping blanks.
func (r *reader) list(key, fallback string) []string {
	var out []string
	for _, item := range strings.Split(r.string(key, fallback), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
