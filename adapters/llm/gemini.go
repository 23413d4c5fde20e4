package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/avatarlive/server/domain/repositories"
)

const defaultGeminiModel = "gemini-1.5-flash"

// GeminiBackend generates replies with Google's Gemini API
type GeminiBackend struct {
	client *genai.Client
	logger *zap.Logger
	model  string
}

var _ repositories.ChatBackend = (*GeminiBackend)(nil)

// NewGeminiBackend creates a new Gemini backend
func NewGeminiBackend(ctx context.Context, config Config, logger *zap.Logger) (*GeminiBackend, error) {
	if config.GeminiAPIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  config.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.GeminiBaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: config.GeminiBaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := config.GeminiModel
	if model == "" {
		model = defaultGeminiModel
	}

	return &GeminiBackend{
		client: client,
		logger: logger,
		model:  model,
	}, nil
}

func (g *GeminiBackend) Name() string {
	return "gemini"
}

// Generate sends a single user turn and returns the trimmed text of the first candidate
func (g *GeminiBackend) Generate(ctx context.Context, text string) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}

	response, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return "", nil
	}

	var sb strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
