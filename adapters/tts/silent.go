package tts

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/avatarlive/server/domain/repositories"
	"github.com/avatarlive/server/internal/audio"
)

const silenceDuration = 500 * time.Millisecond

// SilentTTS is the simulated speech adapter: every call yields half a second of
// 16 kHz mono silence.
type SilentTTS struct {
	logger *zap.Logger
}

var _ repositories.TextToSpeech = (*SilentTTS)(nil)

// NewSilentTTS creates a new simulated text-to-speech service
func NewSilentTTS(logger *zap.Logger) *SilentTTS {
	return &SilentTTS{logger: logger}
}

func (s *SilentTTS) Mode() repositories.ProviderMode {
	return repositories.ModeSimulated
}

func (s *SilentTTS) Synthesize(ctx context.Context, text string) ([]byte, error) {
	s.logger.Debug("Simulating text-to-speech", zap.Int("textLength", len(text)))
	return audio.Silence(audio.DefaultSampleRate, 1, silenceDuration), nil
}
