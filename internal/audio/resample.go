package audio

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Resampler converts interleaved float capture buffers of any rate and channel count
// into mono float samples at DefaultSampleRate, ready for a Framer.
type Resampler struct {
	inputRate int
	channels  int
	resampler resampling.Resampler
}

// NewResampler creates a Resampler for the given capture format. When the capture is
// already at DefaultSampleRate only the channel downmix is applied.
func NewResampler(inputRate, channels int) (*Resampler, error) {
	if inputRate <= 0 {
		return nil, fmt.Errorf("invalid input sample rate: %d", inputRate)
	}
	if channels <= 0 {
		channels = 1
	}

	r := &Resampler{inputRate: inputRate, channels: channels}
	if inputRate != DefaultSampleRate {
		rs, err := resampling.New(&resampling.Config{
			InputRate:  float64(inputRate),
			OutputRate: float64(DefaultSampleRate),
			Channels:   1,
			Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create resampler: %w", err)
		}
		r.resampler = rs
	}
	return r, nil
}

// Process downmixes and resamples one capture buffer.
func (r *Resampler) Process(interleaved []float32) ([]float32, error) {
	mono := downmix(interleaved, r.channels)
	if r.resampler == nil {
		return mono, nil
	}

	input := make([]float64, len(mono))
	for i, s := range mono {
		input[i] = float64(s)
	}
	output, err := r.resampler.Process(input)
	if err != nil {
		return nil, fmt.Errorf("resample error: %w", err)
	}

	out := make([]float32, len(output))
	for i, s := range output {
		out[i] = float32(s)
	}
	return out, nil
}

func downmix(interleaved []float32, channels int) []float32 {
	if channels <= 1 {
		out := make([]float32, len(interleaved))
		copy(out, interleaved)
		return out
	}

	frames := len(interleaved) / channels
	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += interleaved[i*channels+c]
		}
		out[i] = sum / float32(channels)
	}
	return out
}
