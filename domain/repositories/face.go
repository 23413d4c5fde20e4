package repositories

import (
	"context"

	"github.com/avatarlive/server/domain"
)

// AudioToFace converts an audio clip into a fresh sequence of blendshape frames
type AudioToFace interface {
	Provider
	Blendshapes(ctx context.Context, audio []byte) ([]domain.BlendshapeFrame, error)
}
