package audio2face

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/avatarlive/server/domain"
	"github.com/avatarlive/server/domain/repositories"
)

const (
	cloudProviderName = "Audio2Face"
	localProviderName = "Local Audio2Face"
	blendshapesPath   = "/audio2face/blendshapes"
)

// HTTPAudioToFace posts raw WAV bytes to an audio2face service and decodes the
// returned frame list.
type HTTPAudioToFace struct {
	name     string
	endpoint string
	apiKey   string
	client   *http.Client
	logger   *zap.Logger
}

var _ repositories.AudioToFace = (*HTTPAudioToFace)(nil)

// NewHTTPAudioToFace creates the live adapter, choosing the local endpoint when
// it is enabled and the cloud endpoint otherwise.
func NewHTTPAudioToFace(config Config, logger *zap.Logger) (*HTTPAudioToFace, error) {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	a := &HTTPAudioToFace{
		apiKey: config.APIKey,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}

	switch {
	case config.localEnabled():
		a.name = localProviderName
		a.endpoint = strings.TrimRight(config.LocalURL, "/") + blendshapesPath
	case config.CloudURL != "" && config.APIKey != "":
		a.name = cloudProviderName
		a.endpoint = strings.TrimRight(config.CloudURL, "/") + blendshapesPath
	default:
		return nil, fmt.Errorf("audio2face requires a local URL or a cloud URL and API key")
	}

	return a, nil
}

func (a *HTTPAudioToFace) Mode() repositories.ProviderMode {
	return repositories.ModeLive
}

// Name reports which endpoint the adapter talks to.
func (a *HTTPAudioToFace) Name() string {
	return a.name
}

func (a *HTTPAudioToFace) Blendshapes(ctx context.Context, audio []byte) ([]domain.BlendshapeFrame, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(audio))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		a.logger.Error("Audio2Face returned error",
			zap.String("provider", a.name),
			zap.Int("statusCode", resp.StatusCode))
		return nil, &repositories.ProviderError{
			Provider:   a.name,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	var frames []domain.BlendshapeFrame
	if err := json.NewDecoder(resp.Body).Decode(&frames); err != nil {
		return nil, fmt.Errorf("failed to decode blendshapes: %w", err)
	}
	if frames == nil {
		frames = []domain.BlendshapeFrame{}
	}

	a.logger.Debug("Received blendshapes", zap.String("provider", a.name), zap.Int("frames", len(frames)))
	return frames, nil
}
