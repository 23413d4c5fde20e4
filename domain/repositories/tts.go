package repositories

import "context"

// TextToSpeech abstracts speech synthesis. The returned bytes are always a complete
// WAV container, whatever the underlying provider sends.
type TextToSpeech interface {
	Provider
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
