package ace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/avatarlive/server/domain"
	"github.com/avatarlive/server/domain/repositories"
)

const (
	defaultTimeout = 60 * time.Second
	providerName   = "ACE pose enhance"
)

// Config holds the pose-enhancement endpoint. Both APIURL and APIKey are needed
// for live mode.
type Config struct {
	APIURL         string
	APIKey         string
	Timeout        time.Duration
	ForceSimulated bool
}

type enhanceRequest struct {
	Pose json.RawMessage `json:"pose"`
}

// HTTPPoseEnhancer forwards pose payloads to the ACE service
type HTTPPoseEnhancer struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   *zap.Logger
}

var _ repositories.PoseEnhancer = (*HTTPPoseEnhancer)(nil)

func NewHTTPPoseEnhancer(config Config, logger *zap.Logger) (*HTTPPoseEnhancer, error) {
	if config.APIURL == "" || config.APIKey == "" {
		return nil, fmt.Errorf("ace API URL and key are required")
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &HTTPPoseEnhancer{
		endpoint: strings.TrimRight(config.APIURL, "/") + "/pose/enhance",
		apiKey:   config.APIKey,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}, nil
}

func (p *HTTPPoseEnhancer) Mode() repositories.ProviderMode {
	return repositories.ModeLive
}

func (p *HTTPPoseEnhancer) Enhance(ctx context.Context, pose json.RawMessage) (domain.EnhancedFace, error) {
	if len(pose) == 0 {
		pose = json.RawMessage("null")
	}
	body, err := json.Marshal(enhanceRequest{Pose: pose})
	if err != nil {
		return domain.EnhancedFace{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.EnhancedFace{}, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return domain.EnhancedFace{}, fmt.Errorf("failed to execute HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		p.logger.Error("ACE returned error", zap.Int("statusCode", resp.StatusCode))
		return domain.EnhancedFace{}, &repositories.ProviderError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			Body:       string(errorBody),
		}
	}

	var face domain.EnhancedFace
	if err := json.NewDecoder(resp.Body).Decode(&face); err != nil {
		return domain.EnhancedFace{}, fmt.Errorf("failed to decode enhanced face: %w", err)
	}
	return face, nil
}
