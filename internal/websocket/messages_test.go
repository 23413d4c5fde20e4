package websocket

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/avatarlive/server/domain"
)

func TestDecode_BinaryIsAudio(t *testing.T) {
	data := []byte{0x52, 0x49, 0x46, 0x46, 0x00}
	msg, err := Decode(websocket.BinaryMessage, data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	audio, ok := msg.(domain.AudioMessage)
	if !ok {
		t.Fatalf("Expected AudioMessage, got %T", msg)
	}
	if string(audio.Data) != string(data) {
		t.Error("Binary bytes must pass through unmodified")
	}
}

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    domain.InboundMessage
		wantErr error
	}{
		{
			name:    "chat",
			message: `{"type":"chat","payload":{"text":"Hi"}}`,
			want:    domain.ChatMessage{Text: "Hi"},
		},
		{
			name:    "chat with empty text is dropped",
			message: `{"type":"chat","payload":{"text":""}}`,
		},
		{
			name:    "chat without payload is dropped",
			message: `{"type":"chat"}`,
		},
		{
			name:    "audio as base64",
			message: `{"type":"audio","payload":{"data":"AQID"}}`,
			want:    domain.AudioMessage{Data: []byte{1, 2, 3}},
		},
		{
			name:    "audio as byte array",
			message: `{"type":"audio","payload":{"data":[1,2,255]}}`,
			want:    domain.AudioMessage{Data: []byte{1, 2, 255}},
		},
		{
			name:    "audio without data is dropped",
			message: `{"type":"audio","payload":{}}`,
		},
		{
			name:    "audio without payload is dropped",
			message: `{"type":"audio"}`,
		},
		{
			name:    "unknown type",
			message: `{"type":"dance"}`,
			wantErr: ErrUnknownMessageType,
		},
		{
			name:    "missing type",
			message: `{"payload":{}}`,
			wantErr: ErrUnknownMessageType,
		},
		{
			name:    "non-string type",
			message: `{"type":42}`,
			wantErr: ErrUnknownMessageType,
		},
		{
			name:    "array has no type",
			message: `[1,2]`,
			wantErr: ErrUnknownMessageType,
		},
		{
			name:    "empty array has no type",
			message: `[]`,
			wantErr: ErrUnknownMessageType,
		},
		{
			name:    "array of messages has no type",
			message: `[{"type":"chat","payload":{"text":"Hi"}}]`,
			wantErr: ErrUnknownMessageType,
		},
		{
			name:    "string is dropped",
			message: `"hello"`,
		},
		{
			name:    "boolean is dropped",
			message: `true`,
		},
		{
			name:    "number is dropped",
			message: `42`,
		},
		{
			name:    "null is dropped",
			message: `null`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeText([]byte(tt.message))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			switch want := tt.want.(type) {
			case nil:
				if got != nil {
					t.Errorf("Expected message to be dropped, got %#v", got)
				}
			case domain.AudioMessage:
				audio, ok := got.(domain.AudioMessage)
				if !ok || string(audio.Data) != string(want.Data) {
					t.Errorf("Expected %v, got %#v", want, got)
				}
			default:
				if got != tt.want {
					t.Errorf("Expected %#v, got %#v", tt.want, got)
				}
			}
		})
	}
}

func TestDecodeText_Pose(t *testing.T) {
	msg, err := DecodeText([]byte(`{"type":"pose","payload":{"headYaw":0.2}}`))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	pose, ok := msg.(domain.PoseMessage)
	if !ok {
		t.Fatalf("Expected PoseMessage, got %T", msg)
	}
	if string(pose.Payload) != `{"headYaw":0.2}` {
		t.Errorf("Unexpected payload %s", pose.Payload)
	}

	msg, err = DecodeText([]byte(`{"type":"pose"}`))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if pose := msg.(domain.PoseMessage); string(pose.Payload) != "null" {
		t.Errorf("Expected null payload, got %s", pose.Payload)
	}
}

func TestDecodeText_InvalidJSON(t *testing.T) {
	_, err := DecodeText([]byte(`{"type":`))
	if err == nil {
		t.Fatal("Expected parse error")
	}
	if errors.Is(err, ErrUnknownMessageType) {
		t.Error("Parse errors must not be reported as unknown type")
	}

	var syntaxErr *json.SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Errorf("Expected the JSON parser error, got %T", err)
	}
}

func TestDecodeText_InvalidBase64(t *testing.T) {
	_, err := DecodeText([]byte(`{"type":"audio","payload":{"data":"***"}}`))
	if err == nil || !strings.Contains(err.Error(), "invalid audio data") {
		t.Errorf("Expected invalid audio data error, got %v", err)
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		msg  domain.OutboundMessage
		want string
	}{
		{
			name: "error",
			msg:  domain.NewError("Unknown message type"),
			want: `{"type":"error","error":"Unknown message type"}`,
		},
		{
			name: "chat",
			msg:  domain.NewChatReply("hello"),
			want: `{"type":"chat","payload":{"text":"hello"}}`,
		},
		{
			name: "tts audio",
			msg:  domain.NewTTSAudio(domain.TTSAudioMIME, []byte{1, 2, 3}),
			want: `{"type":"ttsAudio","payload":{"mime":"audio/mpeg","dataBase64":"AQID"}}`,
		},
		{
			name: "empty animation",
			msg:  domain.NewFacialAnimation(nil),
			want: `{"type":"facialAnimation","payload":[]}`,
		},
		{
			name: "enhanced face",
			msg:  domain.NewEnhancedFace(domain.EnhancedFace{ImageBase64: "data:x"}),
			want: `{"type":"enhancedFace","payload":{"imageBase64":"data:x"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.msg)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}
