package audio

import (
	"time"
)

// Frame is a short run of samples as delivered by a capture source.
// Samples are interleaved when Channels > 1.
type Frame struct {
	Samples    []float32
	SampleRate int
	Channels   int
	Timestamp  time.Time
}

// Chunk is a fixed-duration extract of the rolling buffer, sized for
// speaker analysis. Immutable once created; the consumer that dequeues
// it owns it.
type Chunk struct {
	Samples    []float32
	SampleRate int
	Duration   time.Duration
	Timestamp  time.Time
}

// Mono collapses an interleaved multi-channel frame by averaging the
// channels. Single-channel frames are returned as-is.
func (f Frame) Mono() []float32 {
	if f.Channels <= 1 {
		return f.Samples
	}
	n := len(f.Samples) / f.Channels
	mono := make([]float32, n)
	for i := 0; i < n; i++ {
		var sum float32
		for c := 0; c < f.Channels; c++ {
			sum += f.Samples[i*f.Channels+c]
		}
		mono[i] = sum / float32(f.Channels)
	}
	return mono
}
