package tts

import (
	"go.uber.org/zap"

	"github.com/avatarlive/server/domain/repositories"
)

// New picks the speech adapter for config. It never fails: an unusable live
// configuration falls back to the simulated adapter.
func New(config Config, logger *zap.Logger) repositories.TextToSpeech {
	if repositories.ResolveMode(config.ForceSimulated, config.APIKey) == repositories.ModeSimulated {
		logger.Info("Speech synthesis running in simulated mode")
		return NewSilentTTS(logger)
	}

	live, err := NewElevenLabsTTS(config, logger)
	if err != nil {
		logger.Warn("Falling back to simulated speech synthesis", zap.Error(err))
		return NewSilentTTS(logger)
	}

	logger.Info("Speech synthesis running in live mode", zap.String("voiceID", live.voiceID))
	return live
}
