package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

const (
	// WAVHeaderSize is the size of the canonical RIFF/WAVE PCM header.
	WAVHeaderSize = 44

	// DefaultSampleRate is the rate used for microphone chunks and synthesized speech.
	DefaultSampleRate = 16000

	bitsPerSample = 16
	formatPCM     = 1
)

var ErrNotWAV = errors.New("not a RIFF/WAVE container")

// Header is the decoded canonical 44-byte WAV header.
type Header struct {
	ChunkSize     uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2Size uint32
}

// EncodeWAV wraps raw PCM16LE samples in a canonical WAV header. ChunkSize and
// Subchunk2Size always match len(pcm).
func EncodeWAV(pcm []byte, sampleRate, channels int) []byte {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if channels <= 0 {
		channels = 1
	}

	dataSize := uint32(len(pcm))
	blockAlign := uint16(channels * bitsPerSample / 8)

	out := make([]byte, WAVHeaderSize+len(pcm))
	le := binary.LittleEndian

	copy(out[0:4], "RIFF")
	le.PutUint32(out[4:8], 36+dataSize)
	copy(out[8:12], "WAVE")

	copy(out[12:16], "fmt ")
	le.PutUint32(out[16:20], 16)
	le.PutUint16(out[20:22], formatPCM)
	le.PutUint16(out[22:24], uint16(channels))
	le.PutUint32(out[24:28], uint32(sampleRate))
	le.PutUint32(out[28:32], uint32(sampleRate)*uint32(blockAlign))
	le.PutUint16(out[32:34], blockAlign)
	le.PutUint16(out[34:36], bitsPerSample)

	copy(out[36:40], "data")
	le.PutUint32(out[40:44], dataSize)
	copy(out[WAVHeaderSize:], pcm)

	return out
}

// IsWAV reports whether b starts with the RIFF/WAVE magic.
func IsWAV(b []byte) bool {
	return len(b) > 12 && bytes.Equal(b[0:4], []byte("RIFF")) && bytes.Equal(b[8:12], []byte("WAVE"))
}

// EnsureWAV returns b untouched when it is already a WAV container, otherwise it
// treats b as raw PCM16LE and wraps it.
func EnsureWAV(b []byte, sampleRate, channels int) []byte {
	if IsWAV(b) {
		return b
	}
	return EncodeWAV(b, sampleRate, channels)
}

// Silence returns a WAV clip of zero-valued samples lasting d.
func Silence(sampleRate, channels int, d time.Duration) []byte {
	numSamples := int(float64(sampleRate) * d.Seconds())
	return EncodeWAV(make([]byte, numSamples*channels*2), sampleRate, channels)
}

// ParseHeader decodes the canonical header at the start of b.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < WAVHeaderSize {
		return Header{}, fmt.Errorf("wav header too short: %d bytes", len(b))
	}
	if !IsWAV(b) {
		return Header{}, ErrNotWAV
	}
	if !bytes.Equal(b[12:16], []byte("fmt ")) || !bytes.Equal(b[36:40], []byte("data")) {
		return Header{}, errors.New("wav header is not in canonical layout")
	}

	le := binary.LittleEndian
	return Header{
		ChunkSize:     le.Uint32(b[4:8]),
		AudioFormat:   le.Uint16(b[20:22]),
		NumChannels:   le.Uint16(b[22:24]),
		SampleRate:    le.Uint32(b[24:28]),
		ByteRate:      le.Uint32(b[28:32]),
		BlockAlign:    le.Uint16(b[32:34]),
		BitsPerSample: le.Uint16(b[34:36]),
		Subchunk2Size: le.Uint32(b[40:44]),
	}, nil
}

// DecodeWAV splits a canonical PCM16 WAV into its header and sample data.
func DecodeWAV(b []byte) (Header, []byte, error) {
	h, err := ParseHeader(b)
	if err != nil {
		return Header{}, nil, err
	}
	if h.AudioFormat != formatPCM || h.BitsPerSample != bitsPerSample {
		return Header{}, nil, fmt.Errorf("unsupported wav encoding: format=%d bits=%d", h.AudioFormat, h.BitsPerSample)
	}

	data := b[WAVHeaderSize:]
	if int(h.Subchunk2Size) < len(data) {
		data = data[:h.Subchunk2Size]
	}
	return h, data, nil
}
