package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/avatarlive/server/domain"
	"github.com/avatarlive/server/domain/repositories"
	"github.com/avatarlive/server/internal/observability"
	"github.com/avatarlive/server/internal/turn"
)

// Chat turn step ids
const (
	StepReply         turn.StepID = "reply"
	StepSendReply     turn.StepID = "send_reply"
	StepSynthesize    turn.StepID = "synthesize"
	StepSendSpeech    turn.StepID = "send_speech"
	StepAnimate       turn.StepID = "animate"
	StepSendAnimation turn.StepID = "send_animation"
)

const chatTurnTimeout = 2 * time.Minute

// ChatTurn is the data shared by the steps of one chat turn
type ChatTurn struct {
	Text   string
	Reply  string
	Speech []byte
	Frames []domain.BlendshapeFrame

	out Responder
}

// ChatService runs the chat turn: reply, speak, animate
type ChatService struct {
	chat    repositories.ChatModel
	speech  repositories.TextToSpeech
	face    repositories.AudioToFace
	runner  *turn.Runner[ChatTurn]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewChatService creates a new chat service
func NewChatService(
	chat repositories.ChatModel,
	speech repositories.TextToSpeech,
	face repositories.AudioToFace,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *ChatService {
	s := &ChatService{
		chat:    chat,
		speech:  speech,
		face:    face,
		metrics: metrics,
		logger:  logger,
	}
	s.runner = turn.NewRunner(s.definition(), logger).OnEvent(s.onEvent)
	return s
}

func (s *ChatService) definition() turn.Definition[ChatTurn] {
	return turn.Definition[ChatTurn]{
		Name:    "chat",
		Timeout: chatTurnTimeout,
		Steps: []turn.Step[ChatTurn]{
			{ID: StepReply, Run: s.reply},
			{ID: StepSendReply, Run: sendReply},
			{ID: StepSynthesize, Run: s.synthesize},
			{ID: StepSendSpeech, Run: sendSpeech},
			{ID: StepAnimate, Policy: turn.BestEffort, Run: s.animate},
			{ID: StepSendAnimation, Policy: turn.BestEffort, DependsOn: StepAnimate, Run: sendAnimation},
		},
	}
}

// Run executes one turn for text, sending every outbound message through out.
// A failure of the reply or speech steps is returned; animation failures are not.
func (s *ChatService) Run(ctx context.Context, text string, out Responder) (turn.Record, error) {
	record, err := s.runner.Run(ctx, &ChatTurn{Text: text, out: out})
	s.metrics.ObserveChatTurn(record.Duration())
	return record, err
}

func (s *ChatService) reply(ctx context.Context, t *ChatTurn) error {
	reply, err := s.chat.Reply(ctx, t.Text)
	if err != nil {
		return err
	}
	t.Reply = reply
	return nil
}

func (s *ChatService) synthesize(ctx context.Context, t *ChatTurn) error {
	speech, err := s.speech.Synthesize(ctx, t.Reply)
	if err != nil {
		return err
	}
	t.Speech = speech
	return nil
}

func (s *ChatService) animate(ctx context.Context, t *ChatTurn) error {
	frames, err := s.face.Blendshapes(ctx, t.Speech)
	if err != nil {
		return err
	}
	t.Frames = frames
	return nil
}

func sendReply(_ context.Context, t *ChatTurn) error {
	return t.out.Send(domain.NewChatReply(t.Reply))
}

func sendSpeech(_ context.Context, t *ChatTurn) error {
	return t.out.Send(domain.NewTTSAudio(domain.TTSAudioMIME, t.Speech))
}

func sendAnimation(_ context.Context, t *ChatTurn) error {
	return t.out.Send(domain.NewFacialAnimation(t.Frames))
}

var stepProviders = map[turn.StepID]string{
	StepReply:      ProviderChat,
	StepSynthesize: ProviderSpeech,
	StepAnimate:    ProviderFace,
}

func (s *ChatService) onEvent(e turn.Event) {
	if e.Type != turn.EventStepFailed {
		return
	}
	if provider, ok := stepProviders[e.Step]; ok {
		s.metrics.ProviderError(provider)
	}
}
