package audio2face

import (
	"go.uber.org/zap"

	"github.com/avatarlive/server/domain/repositories"
)

// New picks the audio-to-animation adapter for config.
func New(config Config, logger *zap.Logger) repositories.AudioToFace {
	var mode repositories.ProviderMode
	if config.localEnabled() {
		mode = repositories.ResolveMode(config.ForceSimulated, config.LocalURL)
	} else {
		mode = repositories.ResolveMode(config.ForceSimulated, config.CloudURL, config.APIKey)
	}

	if mode == repositories.ModeSimulated {
		logger.Info("Audio2Face running in simulated mode")
		return NewSimulatedAudioToFace(logger)
	}

	live, err := NewHTTPAudioToFace(config, logger)
	if err != nil {
		logger.Warn("Falling back to simulated Audio2Face", zap.Error(err))
		return NewSimulatedAudioToFace(logger)
	}

	logger.Info("Audio2Face running in live mode", zap.String("provider", live.Name()))
	return live
}
