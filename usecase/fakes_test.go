package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/avatarlive/server/domain"
	"github.com/avatarlive/server/domain/repositories"
)

type recorder struct {
	mu       sync.Mutex
	messages []domain.OutboundMessage
	err      error
}

func (r *recorder) Send(msg domain.OutboundMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, msg)
	return nil
}

func (r *recorder) types() []domain.OutboundType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.OutboundType, len(r.messages))
	for i, m := range r.messages {
		out[i] = m.Type
	}
	return out
}

type fakeChat struct {
	reply string
	err   error
}

func (f *fakeChat) Mode() repositories.ProviderMode { return repositories.ModeLive }

func (f *fakeChat) Reply(ctx context.Context, text string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.reply != "" {
		return f.reply, nil
	}
	return "echo: " + text, nil
}

type fakeSpeech struct {
	audio []byte
	err   error
	got   string
}

func (f *fakeSpeech) Mode() repositories.ProviderMode { return repositories.ModeSimulated }

func (f *fakeSpeech) Synthesize(ctx context.Context, text string) ([]byte, error) {
	f.got = text
	return f.audio, f.err
}

type fakeFace struct {
	frames []domain.BlendshapeFrame
	err    error
	got    []byte
	panics bool
}

func (f *fakeFace) Mode() repositories.ProviderMode { return repositories.ModeSimulated }

func (f *fakeFace) Blendshapes(ctx context.Context, audio []byte) ([]domain.BlendshapeFrame, error) {
	if f.panics {
		panic("face exploded")
	}
	f.got = audio
	return f.frames, f.err
}

type fakePose struct {
	err error
	got json.RawMessage
}

func (f *fakePose) Mode() repositories.ProviderMode { return repositories.ModeLive }

func (f *fakePose) Enhance(ctx context.Context, pose json.RawMessage) (domain.EnhancedFace, error) {
	f.got = pose
	if f.err != nil {
		return domain.EnhancedFace{}, f.err
	}
	return domain.EnhancedFace{ImageBase64: "img"}, nil
}

var errProvider = errors.New("provider down")

func oneFrame() []domain.BlendshapeFrame {
	return []domain.BlendshapeFrame{{TimestampMs: 0, Coefficients: map[string]float64{"jawOpen": 0.5}}}
}
