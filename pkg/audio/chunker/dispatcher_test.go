package chunker

import (
	"sync"
	"testing"
	"time"

	"github.com/personifai/personifai/pkg/Logger"
	"github.com/personifai/personifai/pkg/audio"
)

func taggedChunk(tag int) audio.Chunk {
	return audio.Chunk{
		Samples:    []float32{float32(tag)},
		SampleRate: 16000,
		Duration:   3 * time.Second,
		Timestamp:  time.Now(),
	}
}

func collectTags(t *testing.T, d *Dispatcher, want int) []int {
	t.Helper()
	var mu sync.Mutex
	var tags []int
	d.SetCallback(func(c audio.Chunk) {
		mu.Lock()
		tags = append(tags, int(c.Samples[0]))
		mu.Unlock()
	})
	d.Start()
	defer d.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(tags)
		mu.Unlock()
		if n >= want {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("received %d chunks, want %d", n, want)
		}
		time.Sleep(5 * time.Millisecond)
	}
	mu.Lock()
	defer mu.Unlock()
	return append([]int(nil), tags...)
}

func TestDispatcherDeliversInOrder(t *testing.T) {
	d := NewDispatcher(10, Logger.New(true))
	for i := 1; i <= 5; i++ {
		d.Enqueue(taggedChunk(i))
	}
	tags := collectTags(t, d, 5)
	for i, tag := range tags {
		if tag != i+1 {
			t.Fatalf("chunk %d has tag %d, want %d", i, tag, i+1)
		}
	}
}

func TestDispatcherEvictsOldestOnOverflow(t *testing.T) {
	d := NewDispatcher(50, Logger.New(true))
	for i := 1; i <= 51; i++ {
		d.Enqueue(taggedChunk(i))
	}
	tags := collectTags(t, d, 50)
	if tags[0] != 2 {
		t.Errorf("first delivered tag = %d, want 2 (oldest evicted)", tags[0])
	}
	if tags[len(tags)-1] != 51 {
		t.Errorf("last delivered tag = %d, want 51", tags[len(tags)-1])
	}
	for i := 1; i < len(tags); i++ {
		if tags[i] != tags[i-1]+1 {
			t.Fatalf("delivery out of order at %d: %v", i, tags)
		}
	}
}

func TestDispatcherKeepsNewestWhenFull(t *testing.T) {
	d := NewDispatcher(1, Logger.New(true))
	d.Enqueue(taggedChunk(1))
	d.Enqueue(taggedChunk(2))
	tags := collectTags(t, d, 1)
	if tags[0] != 2 {
		t.Errorf("delivered tag = %d, want 2 (newest chunk kept)", tags[0])
	}
}

func TestDispatcherEnqueueUnderContention(t *testing.T) {
	d := NewDispatcher(4, Logger.New(true))
	const producers = 8
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				d.Enqueue(taggedChunk(base*1000 + i))
			}
		}(p + 1)
	}
	wg.Wait()

	// Every Enqueue lands its own chunk, so the queue ends full.
	if got := d.QueueLen(); got != 4 {
		t.Fatalf("queue length = %d, want 4", got)
	}
}

func TestDispatcherStartIsIdempotent(t *testing.T) {
	d := NewDispatcher(10, Logger.New(true))
	var mu sync.Mutex
	count := 0
	d.SetCallback(func(audio.Chunk) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	d.Start()
	d.Start() // second start logs and no-ops
	defer d.Stop()

	d.Enqueue(taggedChunk(1))
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Errorf("chunk delivered %d times, want exactly 1", count)
	}
}

func TestDispatcherSurvivesCallbackPanic(t *testing.T) {
	d := NewDispatcher(10, Logger.New(true))
	var mu sync.Mutex
	var tags []int
	d.SetCallback(func(c audio.Chunk) {
		tag := int(c.Samples[0])
		if tag == 1 {
			panic("bad chunk")
		}
		mu.Lock()
		tags = append(tags, tag)
		mu.Unlock()
	})
	d.Start()
	defer d.Stop()

	d.Enqueue(taggedChunk(1))
	d.Enqueue(taggedChunk(2))

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(tags)
		mu.Unlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("worker did not survive callback panic")
		}
		time.Sleep(5 * time.Millisecond)
	}
	mu.Lock()
	defer mu.Unlock()
	if tags[0] != 2 {
		t.Errorf("delivered tag = %d, want 2", tags[0])
	}
}

func TestDispatcherStopWithoutStart(t *testing.T) {
	d := NewDispatcher(10, Logger.New(true))
	d.Stop() // should be a no-op
}
