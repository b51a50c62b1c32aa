package chunker

import (
	"testing"
	"time"

	"github.com/personifai/personifai/pkg/audio"
)

// Tiny geometry so tests stay readable: 8-sample chunks sharing 4
// samples, over a 32-sample window.
func testConfig() Config {
	return Config{
		ChunkDuration: time.Second,
		Overlap:       500 * time.Millisecond,
		SampleRate:    8,
		MaxBuffer:     4 * time.Second,
	}
}

func rampFrame(start, n, rate int) audio.Frame {
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(start + i)
	}
	return audio.Frame{Samples: samples, SampleRate: rate, Channels: 1, Timestamp: time.Now()}
}

func TestBufferEmitsOverlappingChunks(t *testing.T) {
	buf := New(testConfig())

	var chunks []*audio.Chunk
	next := 0
	for len(chunks) < 3 {
		if c := buf.Append(rampFrame(next, 4, 8)); c != nil {
			chunks = append(chunks, c)
		}
		next += 4
	}

	overlap := buf.OverlapSamples()
	chunkSize := buf.ChunkSamples()
	for i := 1; i < len(chunks); i++ {
		prevTail := chunks[i-1].Samples[chunkSize-overlap:]
		curHead := chunks[i].Samples[:overlap]
		for j := range prevTail {
			if prevTail[j] != curHead[j] {
				t.Fatalf("chunk %d does not overlap chunk %d at sample %d: %v vs %v",
					i, i-1, j, curHead[j], prevTail[j])
			}
		}
	}
}

func TestBufferChunkContentIsContiguous(t *testing.T) {
	buf := New(testConfig())

	var chunk *audio.Chunk
	next := 0
	for chunk == nil {
		chunk = buf.Append(rampFrame(next, 4, 8))
		next += 4
	}

	for i, s := range chunk.Samples {
		if s != float32(i) {
			t.Fatalf("sample %d = %v, want %v", i, s, float32(i))
		}
	}
	if chunk.SampleRate != 8 {
		t.Errorf("chunk sample rate = %d, want 8", chunk.SampleRate)
	}
	if chunk.Duration != time.Second {
		t.Errorf("chunk duration = %v, want 1s", chunk.Duration)
	}
}

func TestBufferNeverExceedsMaxWindow(t *testing.T) {
	cfg := testConfig()
	buf := New(cfg)
	maxSamples := int(cfg.MaxBuffer.Seconds() * float64(cfg.SampleRate))

	for i := 0; i < 20; i++ {
		buf.Append(rampFrame(i*7, 7, 8))
		if got := buf.Len(); got > maxSamples {
			t.Fatalf("buffer holds %d samples after append %d, cap is %d", got, i, maxSamples)
		}
	}
}

func TestBufferOversizedFrameKeepsTail(t *testing.T) {
	cfg := testConfig()
	buf := New(cfg)
	maxSamples := int(cfg.MaxBuffer.Seconds() * float64(cfg.SampleRate))

	// One frame twice the window size: only its tail should survive.
	c := buf.Append(rampFrame(0, maxSamples*2, 8))
	if c == nil {
		t.Fatal("expected a chunk from an oversized frame")
	}
	if got := c.Samples[0]; got != float32(maxSamples) {
		t.Errorf("chunk starts at sample value %v, want %v", got, float32(maxSamples))
	}
}

func TestBufferExtractsOneChunkPerAppend(t *testing.T) {
	buf := New(testConfig())

	// Enough audio for three chunks in a single frame.
	if c := buf.Append(rampFrame(0, 24, 8)); c == nil {
		t.Fatal("expected first chunk")
	}
	// Leftover data is picked up by later appends, one chunk at a time.
	if c := buf.Append(rampFrame(24, 1, 8)); c == nil {
		t.Fatal("expected second chunk from buffered backlog")
	}
}

func TestBufferAveragesChannels(t *testing.T) {
	buf := New(testConfig())

	// Interleaved stereo: L=0.2, R=0.4 -> mono 0.3.
	samples := make([]float32, 16)
	for i := 0; i < 8; i++ {
		samples[2*i] = 0.2
		samples[2*i+1] = 0.4
	}
	chunk := buf.Append(audio.Frame{Samples: samples, SampleRate: 8, Channels: 2, Timestamp: time.Now()})
	if chunk == nil {
		t.Fatal("expected a chunk")
	}
	for i, s := range chunk.Samples {
		if s < 0.29 || s > 0.31 {
			t.Fatalf("mono sample %d = %v, want ~0.3", i, s)
		}
	}
}

func TestBufferClear(t *testing.T) {
	buf := New(testConfig())
	buf.Append(rampFrame(0, 6, 8))
	if buf.Len() == 0 {
		t.Fatal("expected buffered samples before clear")
	}
	buf.Clear()
	if got := buf.Len(); got != 0 {
		t.Errorf("buffer holds %d samples after clear, want 0", got)
	}
}
