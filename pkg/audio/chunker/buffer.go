package chunker

import (
	"math"
	"sync"
	"time"

	"github.com/smallnest/ringbuffer"

	"github.com/personifai/personifai/pkg/audio"
)

const bytesPerSample = 4 // float32 LE

// Config sets the chunking geometry. All durations are converted to
// sample counts against SampleRate.
type Config struct {
	ChunkDuration time.Duration `json:"chunkDuration"`
	Overlap       time.Duration `json:"overlap"`
	SampleRate    int           `json:"sampleRate"`
	MaxBuffer     time.Duration `json:"maxBuffer"`
}

// DefaultConfig returns the geometry used for speaker analysis:
// 3s chunks with 1s overlap over a 30s rolling window at 16kHz.
func DefaultConfig() Config {
	return Config{
		ChunkDuration: 3 * time.Second,
		Overlap:       1 * time.Second,
		SampleRate:    16000,
		MaxBuffer:     30 * time.Second,
	}
}

// Buffer is the rolling sample window feeding the dispatcher. Frames of
// arbitrary length go in; fixed-size overlapping chunks come out. A
// single mutex guards the ring; extraction copies and releases, so the
// capture path never waits on downstream work.
type Buffer struct {
	cfg Config

	chunkBytes   int
	overlapBytes int
	stepBytes    int
	maxBytes     int

	mu sync.Mutex
	rb *ringbuffer.RingBuffer
}

func New(cfg Config) *Buffer {
	chunkSamples := int(cfg.ChunkDuration.Seconds() * float64(cfg.SampleRate))
	overlapSamples := int(cfg.Overlap.Seconds() * float64(cfg.SampleRate))
	maxSamples := int(cfg.MaxBuffer.Seconds() * float64(cfg.SampleRate))

	return &Buffer{
		cfg:          cfg,
		chunkBytes:   chunkSamples * bytesPerSample,
		overlapBytes: overlapSamples * bytesPerSample,
		stepBytes:    (chunkSamples - overlapSamples) * bytesPerSample,
		maxBytes:     maxSamples * bytesPerSample,
		rb:           ringbuffer.New(maxSamples * bytesPerSample).SetBlocking(false),
	}
}

// Append coerces the frame to mono, folds it into the rolling window
// (evicting the oldest samples if the window would overflow) and, when
// at least one full chunk of audio is buffered, extracts exactly one
// chunk. Remaining ready chunks are picked up on later appends.
func (b *Buffer) Append(frame audio.Frame) *audio.Chunk {
	data := samplesToBytes(frame.Mono())
	if len(data) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// A frame longer than the whole window keeps only its tail.
	if len(data) > b.maxBytes {
		data = data[len(data)-b.maxBytes:]
	}

	if free := b.rb.Free(); free < len(data) {
		b.discard(len(data) - free)
	}
	if _, err := b.rb.Write(data); err != nil {
		// Non-blocking ring with freed space; a failure here means the
		// ring state is corrupted, so start over rather than wedge.
		b.rb.Reset()
		return nil
	}

	if b.rb.Length() < b.chunkBytes {
		return nil
	}
	return b.extract()
}

// extract copies the first chunk out of the ring and consumes
// chunk-minus-overlap bytes from the front, keeping the overlap for the
// next chunk. Caller holds the mutex.
func (b *Buffer) extract() *audio.Chunk {
	view := b.rb.Bytes(make([]byte, b.rb.Length()))
	samples := bytesToSamples(view[:b.chunkBytes])
	b.discard(b.stepBytes)

	return &audio.Chunk{
		Samples:    samples,
		SampleRate: b.cfg.SampleRate,
		Duration:   b.cfg.ChunkDuration,
		Timestamp:  time.Now(),
	}
}

func (b *Buffer) discard(n int) {
	if n <= 0 {
		return
	}
	scratch := make([]byte, n)
	b.rb.Read(scratch)
}

// Len reports the number of buffered samples.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rb.Length() / bytesPerSample
}

// Clear empties the window, used at session reset.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rb.Reset()
}

// ChunkSamples reports how many samples one chunk carries.
func (b *Buffer) ChunkSamples() int {
	return b.chunkBytes / bytesPerSample
}

// OverlapSamples reports how many samples consecutive chunks share.
func (b *Buffer) OverlapSamples() int {
	return b.overlapBytes / bytesPerSample
}

func samplesToBytes(samples []float32) []byte {
	buf := make([]byte, len(samples)*bytesPerSample)
	for i, s := range samples {
		bits := math.Float32bits(s)
		buf[4*i] = byte(bits)
		buf[4*i+1] = byte(bits >> 8)
		buf[4*i+2] = byte(bits >> 16)
		buf[4*i+3] = byte(bits >> 24)
	}
	return buf
}

func bytesToSamples(buf []byte) []float32 {
	samples := make([]float32, len(buf)/bytesPerSample)
	for i := range samples {
		bits := uint32(buf[4*i]) | uint32(buf[4*i+1])<<8 | uint32(buf[4*i+2])<<16 | uint32(buf[4*i+3])<<24
		samples[i] = math.Float32frombits(bits)
	}
	return samples
}
