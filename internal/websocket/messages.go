package websocket

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/avatarlive/server/domain"
)

// ErrUnknownMessageType is reported for a JSON object whose type is missing or
// not one of audio, pose or chat. Its text goes to the client verbatim.
var ErrUnknownMessageType = errors.New("Unknown message type")

// envelope is the wire shape of a JSON inbound frame
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type audioPayload struct {
	Data json.RawMessage `json:"data"`
}

type chatPayload struct {
	Text json.RawMessage `json:"text"`
}

// Decode turns one transport frame into an inbound message. A nil message with a
// nil error means the frame is silently ignored.
func Decode(messageType int, data []byte) (domain.InboundMessage, error) {
	if messageType == websocket.BinaryMessage {
		return domain.AudioMessage{Data: data}, nil
	}
	return DecodeText(data)
}

// DecodeText parses a JSON text frame. Invalid JSON returns the parser error.
// Null and scalar JSON values, an audio message without data and a chat message
// without text are dropped. An array has no type and is rejected as unknown.
func DecodeText(data []byte) (domain.InboundMessage, error) {
	if !json.Valid(data) {
		var v any
		err := json.Unmarshal(data, &v)
		if err == nil {
			err = errors.New("invalid JSON")
		}
		return nil, err
	}

	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0:
		return nil, nil
	case trimmed[0] == '[':
		return nil, ErrUnknownMessageType
	case trimmed[0] != '{':
		return nil, nil
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		// A non-string type is as good as a missing one.
		return nil, ErrUnknownMessageType
	}

	switch domain.InboundType(env.Type) {
	case domain.InboundAudio:
		return decodeAudio(env.Payload)
	case domain.InboundPose:
		payload := env.Payload
		if len(payload) == 0 {
			payload = json.RawMessage("null")
		}
		return domain.PoseMessage{Payload: payload}, nil
	case domain.InboundChat:
		return decodeChat(env.Payload), nil
	default:
		return nil, ErrUnknownMessageType
	}
}

// decodeAudio accepts payload.data as a base64 string or an array of byte values.
func decodeAudio(raw json.RawMessage) (domain.InboundMessage, error) {
	var payload audioPayload
	if len(raw) == 0 || json.Unmarshal(raw, &payload) != nil || isEmptyJSON(payload.Data) {
		return nil, nil
	}

	var encoded string
	if err := json.Unmarshal(payload.Data, &encoded); err == nil {
		if encoded == "" {
			return nil, nil
		}
		audio, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("invalid audio data: %w", err)
		}
		return domain.AudioMessage{Data: audio}, nil
	}

	var values []float64
	if err := json.Unmarshal(payload.Data, &values); err != nil {
		return nil, fmt.Errorf("invalid audio data: %w", err)
	}
	if len(values) == 0 {
		return nil, nil
	}
	audio := make([]byte, len(values))
	for i, v := range values {
		audio[i] = byte(int64(v) & 0xff)
	}
	return domain.AudioMessage{Data: audio}, nil
}

func decodeChat(raw json.RawMessage) domain.InboundMessage {
	var payload chatPayload
	if len(raw) == 0 || json.Unmarshal(raw, &payload) != nil {
		return nil
	}

	var text string
	if json.Unmarshal(payload.Text, &text) != nil || text == "" {
		return nil
	}
	return domain.ChatMessage{Text: text}
}

func isEmptyJSON(raw json.RawMessage) bool {
	s := string(bytes.TrimSpace(raw))
	return s == "" || s == "null" || s == "false" || s == "0"
}

// Encode serializes an outbound message as a JSON text frame payload.
func Encode(msg domain.OutboundMessage) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s message: %w", msg.Type, err)
	}
	return data, nil
}
