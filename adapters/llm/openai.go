package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/avatarlive/server/domain/repositories"
)

const (
	defaultOpenAIModel = "gpt-4o-mini"
	systemPrompt       = "You are a helpful, concise assistant speaking to a user via an animated avatar."
	replyTemperature   = 0.6
	replyMaxTokens     = 200
)

// OpenAIBackend generates replies with the OpenAI chat completions API
type OpenAIBackend struct {
	client *openai.Client
	logger *zap.Logger
	model  string
}

var _ repositories.ChatBackend = (*OpenAIBackend)(nil)

// NewOpenAIBackend creates a new OpenAI backend
func NewOpenAIBackend(config Config, logger *zap.Logger, extra ...option.RequestOption) (*OpenAIBackend, error) {
	if config.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(config.OpenAIAPIKey)}
	if config.OpenAIBaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.OpenAIBaseURL))
	}
	opts = append(opts, extra...)
	client := openai.NewClient(opts...)

	model := config.OpenAIModel
	if model == "" {
		model = defaultOpenAIModel
	}

	return &OpenAIBackend{
		client: &client,
		logger: logger,
		model:  model,
	}, nil
}

func (o *OpenAIBackend) Name() string {
	return "openai"
}

func (o *OpenAIBackend) Generate(ctx context.Context, text string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(text),
		},
		Temperature: openai.Float(replyTemperature),
		MaxTokens:   openai.Int(replyMaxTokens),
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
