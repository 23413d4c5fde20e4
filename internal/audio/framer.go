package audio

import "sync"

// ChunkSamples is the flush threshold of the Framer: one second at 16 kHz.
const ChunkSamples = 16000

// Framer accumulates PCM16 samples and emits a self-describing WAV chunk every time
// the buffer reaches ChunkSamples. The whole buffer is flushed, so a chunk may hold
// slightly more than ChunkSamples when input arrives in large blocks.
type Framer struct {
	sampleRate int
	channels   int
	threshold  int
	emit       func(chunk []byte)

	mu  sync.Mutex
	buf []int16
}

// FramerOption customizes a Framer
type FramerOption func(*Framer)

// WithThreshold overrides the flush threshold (in samples).
func WithThreshold(samples int) FramerOption {
	return func(f *Framer) {
		if samples > 0 {
			f.threshold = samples
		}
	}
}

// WithFormat overrides the declared sample rate and channel count of emitted chunks.
func WithFormat(sampleRate, channels int) FramerOption {
	return func(f *Framer) {
		if sampleRate > 0 {
			f.sampleRate = sampleRate
		}
		if channels > 0 {
			f.channels = channels
		}
	}
}

// NewFramer creates a Framer that hands every finished WAV chunk to emit.
func NewFramer(emit func(chunk []byte), opts ...FramerOption) *Framer {
	f := &Framer{
		sampleRate: DefaultSampleRate,
		channels:   1,
		threshold:  ChunkSamples,
		emit:       emit,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.buf = make([]int16, 0, f.threshold)
	return f
}

// WriteFloat converts float samples in [-1,1] and appends them.
func (f *Framer) WriteFloat(samples []float32) {
	pcm := make([]int16, len(samples))
	for i, s := range samples {
		pcm[i] = FloatToPCM16(s)
	}
	f.Write(pcm)
}

// Write appends PCM16 samples, emitting a chunk once the threshold is reached.
func (f *Framer) Write(samples []int16) {
	f.mu.Lock()
	f.buf = append(f.buf, samples...)
	var chunk []byte
	if len(f.buf) >= f.threshold {
		chunk = f.drainLocked()
	}
	f.mu.Unlock()

	if chunk != nil {
		f.emit(chunk)
	}
}

// Flush emits whatever is buffered, if anything. Use it when capture stops.
func (f *Framer) Flush() {
	f.mu.Lock()
	var chunk []byte
	if len(f.buf) > 0 {
		chunk = f.drainLocked()
	}
	f.mu.Unlock()

	if chunk != nil {
		f.emit(chunk)
	}
}

// Buffered returns the number of samples waiting for the next flush.
func (f *Framer) Buffered() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.buf)
}

func (f *Framer) drainLocked() []byte {
	chunk := EncodeWAV(EncodePCM16(f.buf), f.sampleRate, f.channels)
	f.buf = f.buf[:0]
	return chunk
}
