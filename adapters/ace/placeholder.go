package ace

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/avatarlive/server/domain"
	"github.com/avatarlive/server/domain/repositories"
)

// PlaceholderImage is a 1x1 transparent PNG data URL
const PlaceholderImage = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mP8Xw8AApMBfQ7mGswAAAAASUVORK5CYII="

// PlaceholderEnhancer is the simulated pose enhancer. The pose is ignored.
type PlaceholderEnhancer struct {
	logger *zap.Logger
}

var _ repositories.PoseEnhancer = (*PlaceholderEnhancer)(nil)

func NewPlaceholderEnhancer(logger *zap.Logger) *PlaceholderEnhancer {
	return &PlaceholderEnhancer{logger: logger}
}

func (p *PlaceholderEnhancer) Mode() repositories.ProviderMode {
	return repositories.ModeSimulated
}

func (p *PlaceholderEnhancer) Enhance(ctx context.Context, pose json.RawMessage) (domain.EnhancedFace, error) {
	return domain.EnhancedFace{ImageBase64: PlaceholderImage}, nil
}

// New picks the pose enhancer for config.
func New(config Config, logger *zap.Logger) repositories.PoseEnhancer {
	if repositories.ResolveMode(config.ForceSimulated, config.APIURL, config.APIKey) == repositories.ModeSimulated {
		logger.Info("Pose enhancement running in simulated mode")
		return NewPlaceholderEnhancer(logger)
	}

	live, err := NewHTTPPoseEnhancer(config, logger)
	if err != nil {
		logger.Warn("Falling back to simulated pose enhancement", zap.Error(err))
		return NewPlaceholderEnhancer(logger)
	}

	logger.Info("Pose enhancement running in live mode")
	return live
}
