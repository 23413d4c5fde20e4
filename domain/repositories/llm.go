package repositories

import "context"

// ChatModel abstracts any chat/LLM provider. Implementations never fail past the
// point of configured-backend exhaustion; they degrade to canned text instead.
type ChatModel interface {
	Provider
	// Reply takes a user message and returns the assistant's reply text
	Reply(ctx context.Context, text string) (string, error)
}

// ChatBackend is a single language-model backend tried by a ChatModel in priority order
type ChatBackend interface {
	Name() string
	Generate(ctx context.Context, text string) (string, error)
}
