package audio2face

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/avatarlive/server/domain"
	"github.com/avatarlive/server/domain/repositories"
)

const (
	simulatedFrames  = 30
	simulatedFrameMs = 33
)

var simulatedShapes = []string{"jawOpen", "eyeBlinkLeft", "eyeBlinkRight", "mouthSmileLeft", "mouthSmileRight"}

// SimulatedAudioToFace returns a fixed one-second sine-wave animation regardless of input.
type SimulatedAudioToFace struct {
	logger *zap.Logger
}

var _ repositories.AudioToFace = (*SimulatedAudioToFace)(nil)

func NewSimulatedAudioToFace(logger *zap.Logger) *SimulatedAudioToFace {
	return &SimulatedAudioToFace{logger: logger}
}

func (s *SimulatedAudioToFace) Mode() repositories.ProviderMode {
	return repositories.ModeSimulated
}

func (s *SimulatedAudioToFace) Blendshapes(ctx context.Context, audio []byte) ([]domain.BlendshapeFrame, error) {
	s.logger.Debug("Simulating blendshapes", zap.Int("audioBytes", len(audio)))
	return SimulatedFrames(), nil
}

// SimulatedFrames builds a fresh slice of 30 frames, 33ms apart. Each coefficient
// is sin(i/3 + len(name))*0.5 + 0.5, rounded to three decimals.
func SimulatedFrames() []domain.BlendshapeFrame {
	frames := make([]domain.BlendshapeFrame, simulatedFrames)
	for i := range frames {
		coefficients := make(map[string]float64, len(simulatedShapes))
		for _, name := range simulatedShapes {
			v := math.Sin(float64(i)/3+float64(len(name)))*0.5 + 0.5
			coefficients[name] = math.Round(v*1000) / 1000
		}
		frames[i] = domain.BlendshapeFrame{
			TimestampMs:  int64(i * simulatedFrameMs),
			Coefficients: coefficients,
		}
	}
	return frames
}
