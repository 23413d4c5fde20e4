package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/avatarlive/server/domain/repositories"
)

// CannedReply is the deterministic reply used in simulated mode and after every
// configured backend has failed.
func CannedReply(text string) string {
	return fmt.Sprintf("You said: \"%s\". Here's a friendly response from the mock assistant.", text)
}

// CannedChat is the simulated ChatModel
type CannedChat struct {
	logger *zap.Logger
}

var _ repositories.ChatModel = (*CannedChat)(nil)

// NewCannedChat creates a new simulated chat model
func NewCannedChat(logger *zap.Logger) *CannedChat {
	return &CannedChat{logger: logger}
}

func (c *CannedChat) Mode() repositories.ProviderMode {
	return repositories.ModeSimulated
}

func (c *CannedChat) Reply(ctx context.Context, text string) (string, error) {
	return CannedReply(text), nil
}
