package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/avatarlive/server/domain"
	"github.com/avatarlive/server/domain/repositories"
	"github.com/avatarlive/server/internal/observability"
	"github.com/avatarlive/server/internal/turn"
)

// Provider labels used in logs, metrics and the provider status endpoint
const (
	ProviderChat   = "chat"
	ProviderSpeech = "speech"
	ProviderFace   = "face"
	ProviderPose   = "pose"
)

// Responder delivers outbound messages to one connected client
type Responder interface {
	Send(msg domain.OutboundMessage) error
}

// Providers bundles the four inference adapters
type Providers struct {
	Chat   repositories.ChatModel
	Speech repositories.TextToSpeech
	Face   repositories.AudioToFace
	Pose   repositories.PoseEnhancer
}

// SessionService dispatches decoded inbound messages to the providers and
// answers through the connection's Responder. It is stateless and shared by
// every connection.
type SessionService struct {
	providers Providers
	chat      *ChatService
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewSessionService creates a new session service
func NewSessionService(providers Providers, metrics *observability.Metrics, logger *zap.Logger) *SessionService {
	return &SessionService{
		providers: providers,
		chat:      NewChatService(providers.Chat, providers.Speech, providers.Face, metrics, logger),
		metrics:   metrics,
		logger:    logger,
	}
}

// Modes reports the resolved mode of every provider
func (s *SessionService) Modes() map[string]repositories.ProviderMode {
	return map[string]repositories.ProviderMode{
		ProviderChat:   s.providers.Chat.Mode(),
		ProviderSpeech: s.providers.Speech.Mode(),
		ProviderFace:   s.providers.Face.Mode(),
		ProviderPose:   s.providers.Pose.Mode(),
	}
}

// Handle processes one inbound message. Failures are reported to the client as
// an error message; Handle never panics and never returns an error.
func (s *SessionService) Handle(ctx context.Context, msg domain.InboundMessage, out Responder) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Recovered from handler panic", zap.Any("panic", r))
			s.reportError(out, fmt.Errorf("internal error: %v", r))
		}
	}()

	switch m := msg.(type) {
	case domain.AudioMessage:
		s.handleAudio(ctx, m, out)
	case domain.PoseMessage:
		s.handlePose(ctx, m, out)
	case domain.ChatMessage:
		s.handleChat(ctx, m, out)
	default:
		s.reportError(out, fmt.Errorf("unsupported inbound message %T", msg))
	}
}

func (s *SessionService) handleAudio(ctx context.Context, msg domain.AudioMessage, out Responder) {
	frames, err := s.providers.Face.Blendshapes(ctx, msg.Data)
	if err != nil {
		s.metrics.ProviderError(ProviderFace)
		s.logger.Warn("Audio to animation failed", zap.Int("audioBytes", len(msg.Data)), zap.Error(err))
		s.reportError(out, err)
		return
	}
	s.send(out, domain.NewFacialAnimation(frames))
}

func (s *SessionService) handlePose(ctx context.Context, msg domain.PoseMessage, out Responder) {
	face, err := s.providers.Pose.Enhance(ctx, msg.Payload)
	if err != nil {
		s.metrics.ProviderError(ProviderPose)
		s.logger.Warn("Pose enhancement failed", zap.Error(err))
		s.reportError(out, err)
		return
	}
	s.send(out, domain.NewEnhancedFace(face))
}

func (s *SessionService) handleChat(ctx context.Context, msg domain.ChatMessage, out Responder) {
	if msg.Text == "" {
		return
	}

	_, err := s.chat.Run(ctx, msg.Text, out)
	if err == nil {
		return
	}

	var stepErr *turn.StepError
	if errors.As(err, &stepErr) {
		err = stepErr.Err
	}
	s.reportError(out, err)
}

func (s *SessionService) reportError(out Responder, err error) {
	if errors.Is(err, context.Canceled) {
		// The connection is gone; nobody is listening.
		return
	}
	s.send(out, domain.NewError(err.Error()))
}

func (s *SessionService) send(out Responder, msg domain.OutboundMessage) {
	if err := out.Send(msg); err != nil {
		s.logger.Debug("Dropping outbound message", zap.String("type", string(msg.Type)), zap.Error(err))
	}
}
