package chunker

import (
	"sync"
	"time"

	"github.com/personifai/personifai/pkg/Logger"
	"github.com/personifai/personifai/pkg/audio"
)

const (
	defaultQueueCapacity = 50
	popTimeout           = 100 * time.Millisecond
	stopTimeout          = 2 * time.Second
)

// ChunkFunc receives each dequeued chunk. It runs on the dispatcher
// worker; a slow callback delays later chunks but never the producer.
type ChunkFunc func(audio.Chunk)

// Dispatcher drains ready chunks into a bounded queue and hands them to
// the registered callback from a single background worker. When the
// queue is full the oldest chunk is evicted, never the newest: for live
// classification fresher audio matters more.
type Dispatcher struct {
	logger   *Logger.Logger
	queue    chan audio.Chunk
	callback ChunkFunc

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

func NewDispatcher(capacity int, logger *Logger.Logger) *Dispatcher {
	if capacity <= 0 {
		capacity = defaultQueueCapacity
	}
	return &Dispatcher{
		logger: logger,
		queue:  make(chan audio.Chunk, capacity),
	}
}

// SetCallback registers the per-chunk callback. Must be set before Start.
func (d *Dispatcher) SetCallback(fn ChunkFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.callback = fn
}

// Start launches the worker. Calling Start while running logs and no-ops.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		d.logger.Warn("chunk dispatcher already running")
		return
	}
	d.running = true
	d.stopCh = make(chan struct{})
	d.wg.Add(1)
	go d.loop(d.stopCh)
	d.logger.Info("chunk dispatcher started")
}

// Stop flips the running flag and joins the worker with a bounded wait.
// An in-flight callback is allowed to finish, not interrupted.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	close(d.stopCh)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(stopTimeout):
		d.logger.Warn("chunk dispatcher worker did not stop in time")
	}
	d.logger.Info("chunk dispatcher stopped")
}

// Enqueue pushes a chunk without ever blocking the producer. On a full
// queue the oldest queued chunk is dropped to make room.
func (d *Dispatcher) Enqueue(chunk audio.Chunk) {
	for {
		select {
		case d.queue <- chunk:
			return
		default:
		}

		// Evict and retry until the new chunk lands; a concurrent
		// producer may steal the freed slot, so keep going.
		select {
		case <-d.queue:
			d.logger.Warn("chunk queue full, dropping oldest chunk")
		default:
		}
	}
}

// QueueLen reports the number of queued chunks.
func (d *Dispatcher) QueueLen() int {
	return len(d.queue)
}

func (d *Dispatcher) loop(stopCh chan struct{}) {
	defer d.wg.Done()
	d.logger.Debug("chunk dispatch loop started")

	timeout := time.NewTimer(popTimeout)
	defer timeout.Stop()

	for {
		timeout.Reset(popTimeout)
		select {
		case <-stopCh:
			d.logger.Debug("chunk dispatch loop stopped")
			return
		case chunk := <-d.queue:
			d.invoke(chunk)
		case <-timeout.C:
		}
	}
}

// invoke isolates callback failures per chunk so a bad chunk never
// terminates the loop.
func (d *Dispatcher) invoke(chunk audio.Chunk) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Errorf("chunk callback panicked: %v", r)
		}
	}()
	d.mu.Lock()
	fn := d.callback
	d.mu.Unlock()
	if fn != nil {
		fn(chunk)
	}
}
