package repositories

import (
	"context"
	"encoding/json"

	"github.com/avatarlive/server/domain"
)

// PoseEnhancer turns a head-pose payload into an enhanced face image
type PoseEnhancer interface {
	Provider
	Enhance(ctx context.Context, pose json.RawMessage) (domain.EnhancedFace, error)
}
