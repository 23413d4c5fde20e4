package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/avatarlive/server/domain"
	"github.com/avatarlive/server/internal/audio"
	"github.com/avatarlive/server/internal/wsclient"
)

var (
	serverURL string
	origin    string
	timeout   time.Duration
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:           "wsclient",
	Short:         "Avatar session test client",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var chatCmd = &cobra.Command{
	Use:   "chat <text>",
	Short: "Send a chat message and print the reply, speech and animation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(conn *wsclient.Conn) error {
			return conn.SendChat(args[0])
		}, domain.OutboundChat, domain.OutboundTTSAudio)
	},
}

var audioCmd = &cobra.Command{
	Use:   "audio <file.wav>",
	Short: "Stream a PCM16 WAV file as one-second chunks",
	Long: `Stream a PCM16 WAV file to the server.

The file is downmixed and resampled to 16 kHz mono and cut into one-second
WAV chunks, exactly as the browser capture path does. One facialAnimation
message is expected per chunk.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		chunks, err := chunkWAVFile(args[0])
		if err != nil {
			return err
		}
		want := make([]domain.OutboundType, len(chunks))
		for i := range want {
			want[i] = domain.OutboundFacialAnimation
		}
		return withSession(cmd.Context(), func(conn *wsclient.Conn) error {
			for _, chunk := range chunks {
				if err := conn.SendAudio(chunk); err != nil {
					return err
				}
			}
			return nil
		}, want...)
	},
}

var poseCmd = &cobra.Command{
	Use:   "pose <json>",
	Short: "Send a pose descriptor and print the enhanced face",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var pose any
		if err := json.Unmarshal([]byte(args[0]), &pose); err != nil {
			return fmt.Errorf("invalid pose json: %w", err)
		}
		return withSession(cmd.Context(), func(conn *wsclient.Conn) error {
			return conn.SendPose(pose)
		}, domain.OutboundEnhancedFace)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "url", "ws://localhost:8080/ws", "session endpoint")
	rootCmd.PersistentFlags().StringVar(&origin, "origin", "", "Origin header sent during the handshake")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "how long to wait for replies")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(chatCmd, audioCmd, poseCmd)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// withSession queues the frames written by send, connects, and prints server
// messages until every type in want has been seen once per entry.
func withSession(ctx context.Context, send func(*wsclient.Conn) error, want ...domain.OutboundType) error {
	logger := newLogger()
	defer logger.Sync()

	var opts []wsclient.Option
	opts = append(opts, wsclient.WithLogger(logger))
	if origin != "" {
		opts = append(opts, wsclient.WithOrigin(origin))
	}
	conn := wsclient.New(serverURL, opts...)
	defer conn.Close()

	if err := send(conn); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := conn.Connect(ctx); err != nil {
		return err
	}

	remaining := make(map[domain.OutboundType]int)
	for _, t := range want {
		remaining[t]++
	}

	for len(remaining) > 0 {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timed out waiting for %v", pendingTypes(remaining))
		case msg, ok := <-conn.Messages():
			if !ok {
				return wsclient.ErrClosed
			}
			printMessage(msg)
			if msg.Type == domain.OutboundError {
				return errors.New(msg.Error)
			}
			if remaining[msg.Type] > 0 {
				remaining[msg.Type]--
				if remaining[msg.Type] == 0 {
					delete(remaining, msg.Type)
				}
			}
		}
	}
	return nil
}

func pendingTypes(remaining map[domain.OutboundType]int) []domain.OutboundType {
	types := make([]domain.OutboundType, 0, len(remaining))
	for t := range remaining {
		types = append(types, t)
	}
	return types
}

func printMessage(msg wsclient.Message) {
	switch msg.Type {
	case domain.OutboundChat:
		var reply domain.ChatReply
		if err := json.Unmarshal(msg.Payload, &reply); err == nil {
			fmt.Printf("[%s] %s\n", msg.Type, reply.Text)
			return
		}
	case domain.OutboundTTSAudio:
		var speech domain.TTSAudio
		if err := json.Unmarshal(msg.Payload, &speech); err == nil {
			fmt.Printf("[%s] %s, %d base64 chars\n", msg.Type, speech.MIME, len(speech.DataBase64))
			return
		}
	case domain.OutboundFacialAnimation:
		var frames []domain.BlendshapeFrame
		if err := json.Unmarshal(msg.Payload, &frames); err == nil {
			fmt.Printf("[%s] %d frames\n", msg.Type, len(frames))
			return
		}
	case domain.OutboundEnhancedFace:
		var face domain.EnhancedFace
		if err := json.Unmarshal(msg.Payload, &face); err == nil {
			fmt.Printf("[%s] image, %d base64 chars\n", msg.Type, len(face.ImageBase64))
			return
		}
	case domain.OutboundError:
		fmt.Printf("[%s] %s\n", msg.Type, msg.Error)
		return
	}
	fmt.Printf("[%s] %s\n", msg.Type, string(msg.Payload))
}

// chunkWAVFile converts a WAV file into the one-second 16 kHz mono chunks a
// browser capture would send.
func chunkWAVFile(path string) ([][]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	header, pcm, err := audio.DecodeWAV(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	resampler, err := audio.NewResampler(int(header.SampleRate), int(header.NumChannels))
	if err != nil {
		return nil, err
	}

	samples := audio.DecodePCM16(pcm)
	input := make([]float32, len(samples))
	for i, s := range samples {
		input[i] = audio.PCM16ToFloat(s)
	}
	mono, err := resampler.Process(input)
	if err != nil {
		return nil, err
	}

	var chunks [][]byte
	framer := audio.NewFramer(func(chunk []byte) {
		chunks = append(chunks, chunk)
	})
	// Feed in capture-sized blocks so chunks stay close to one second.
	const block = 4096
	for start := 0; start < len(mono); start += block {
		end := min(start+block, len(mono))
		framer.WriteFloat(mono[start:end])
	}
	framer.Flush()

	if len(chunks) == 0 {
		return nil, fmt.Errorf("%s holds no audio", path)
	}
	return chunks, nil
}
