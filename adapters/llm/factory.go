package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/avatarlive/server/domain/repositories"
)

// Config holds credentials and options for the chat backends. Backends are tried
// in a fixed priority order: Gemini, then OpenAI.
type Config struct {
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	Timeout        time.Duration
	ForceSimulated bool
}

// New builds the chat model for config: a ChainChat over every backend that has
// credentials, or CannedChat when none does.
func New(ctx context.Context, config Config, logger *zap.Logger) repositories.ChatModel {
	var backends []repositories.ChatBackend

	if repositories.ResolveMode(config.ForceSimulated, config.GeminiAPIKey) == repositories.ModeLive {
		gemini, err := NewGeminiBackend(ctx, config, logger)
		if err != nil {
			logger.Warn("Skipping Gemini backend", zap.Error(err))
		} else {
			backends = append(backends, gemini)
		}
	}

	if repositories.ResolveMode(config.ForceSimulated, config.OpenAIAPIKey) == repositories.ModeLive {
		oai, err := NewOpenAIBackend(config, logger)
		if err != nil {
			logger.Warn("Skipping OpenAI backend", zap.Error(err))
		} else {
			backends = append(backends, oai)
		}
	}

	if len(backends) == 0 {
		logger.Info("Chat running in simulated mode")
		return NewCannedChat(logger)
	}

	chain := NewChainChat(logger, backends...)
	if config.Timeout > 0 {
		chain = chain.WithTimeout(config.Timeout)
	}
	logger.Info("Chat running in live mode", zap.Strings("backends", chain.Backends()))
	return chain
}
