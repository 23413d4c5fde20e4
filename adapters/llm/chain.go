package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/avatarlive/server/domain/repositories"
)

// ChainChat tries each backend in priority order and returns the first non-empty
// reply. When every backend fails it answers with CannedReply instead of an error.
type ChainChat struct {
	backends []repositories.ChatBackend
	timeout  time.Duration
	logger   *zap.Logger
}

var _ repositories.ChatModel = (*ChainChat)(nil)

// NewChainChat creates a live chat model over the given backends
func NewChainChat(logger *zap.Logger, backends ...repositories.ChatBackend) *ChainChat {
	return &ChainChat{backends: backends, logger: logger}
}

// WithTimeout bounds every individual backend attempt
func (c *ChainChat) WithTimeout(d time.Duration) *ChainChat {
	c.timeout = d
	return c
}

func (c *ChainChat) Mode() repositories.ProviderMode {
	return repositories.ModeLive
}

// Backends returns the backend names in the order they are tried
func (c *ChainChat) Backends() []string {
	names := make([]string, len(c.backends))
	for i, b := range c.backends {
		names[i] = b.Name()
	}
	return names
}

func (c *ChainChat) Reply(ctx context.Context, text string) (string, error) {
	for _, backend := range c.backends {
		reply, err := c.generate(ctx, backend, text)
		if err != nil {
			c.logger.Warn("Chat backend failed, trying next",
				zap.String("backend", backend.Name()),
				zap.Error(err))
			continue
		}
		if reply == "" {
			c.logger.Warn("Chat backend returned empty reply", zap.String("backend", backend.Name()))
			continue
		}
		return reply, nil
	}

	c.logger.Warn("All chat backends exhausted, using canned reply",
		zap.Int("backends", len(c.backends)))
	return CannedReply(text), nil
}

func (c *ChainChat) generate(ctx context.Context, backend repositories.ChatBackend, text string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return backend.Generate(ctx, text)
}
