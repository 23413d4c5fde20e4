package domain

import (
	"encoding/base64"
	"encoding/json"
)

// InboundType discriminates messages sent by the browser client
type InboundType string

const (
	InboundAudio InboundType = "audio"
	InboundPose  InboundType = "pose"
	InboundChat  InboundType = "chat"
)

// InboundMessage is the closed set of client messages. Binary frames are wrapped as
// AudioMessage on receipt so dispatch never has to look at the transport frame type.
type InboundMessage interface {
	InboundType() InboundType
}

// AudioMessage carries raw audio bytes, normally a WAV chunk from the client framer
type AudioMessage struct {
	Data []byte
}

// PoseMessage carries a free-form head pose payload (headYaw and friends)
type PoseMessage struct {
	Payload json.RawMessage
}

// ChatMessage carries user text for a chat turn
type ChatMessage struct {
	Text string
}

func (AudioMessage) InboundType() InboundType { return InboundAudio }
func (PoseMessage) InboundType() InboundType  { return InboundPose }
func (ChatMessage) InboundType() InboundType  { return InboundChat }

// OutboundType discriminates messages sent to the browser client
type OutboundType string

const (
	OutboundFacialAnimation OutboundType = "facialAnimation"
	OutboundEnhancedFace    OutboundType = "enhancedFace"
	OutboundTTSAudio        OutboundType = "ttsAudio"
	OutboundChat            OutboundType = "chat"
	OutboundError           OutboundType = "error"
)

// TTSAudioMIME is the MIME type reported for synthesized speech on the wire
const TTSAudioMIME = "audio/mpeg"

// OutboundMessage is the JSON envelope for every server reply
type OutboundMessage struct {
	Type    OutboundType `json:"type"`
	Payload any          `json:"payload,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// BlendshapeFrame is one animation frame: named morph-target weights at a timestamp
type BlendshapeFrame struct {
	TimestampMs  int64              `json:"timestampMs"`
	Coefficients map[string]float64 `json:"coefficients"`
}

// EnhancedFace is the pose-enhancement result
type EnhancedFace struct {
	ImageBase64 string `json:"imageBase64"`
}

// TTSAudio is synthesized speech, base64 encoded inside the JSON envelope
type TTSAudio struct {
	MIME       string `json:"mime"`
	DataBase64 string `json:"dataBase64"`
}

// ChatReply is the textual reply of a chat turn
type ChatReply struct {
	Text string `json:"text"`
}

func NewFacialAnimation(frames []BlendshapeFrame) OutboundMessage {
	if frames == nil {
		frames = []BlendshapeFrame{}
	}
	return OutboundMessage{Type: OutboundFacialAnimation, Payload: frames}
}

func NewEnhancedFace(face EnhancedFace) OutboundMessage {
	return OutboundMessage{Type: OutboundEnhancedFace, Payload: face}
}

func NewTTSAudio(mime string, audio []byte) OutboundMessage {
	return OutboundMessage{
		Type: OutboundTTSAudio,
		Payload: TTSAudio{
			MIME:       mime,
			DataBase64: base64.StdEncoding.EncodeToString(audio),
		},
	}
}

func NewChatReply(text string) OutboundMessage {
	return OutboundMessage{Type: OutboundChat, Payload: ChatReply{Text: text}}
}

func NewError(message string) OutboundMessage {
	return OutboundMessage{Type: OutboundError, Error: message}
}
