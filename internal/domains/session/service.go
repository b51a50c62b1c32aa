// Package session orchestrates one live conversation: audio frames come
// in from the capture socket, fan out to the recognizer and the speaker
// scorer, and finalized turns from the other party drive the response
// pipeline.
package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/personifai/personifai/pkg/Logger"
	"github.com/personifai/personifai/pkg/audio"
	"github.com/personifai/personifai/pkg/audio/chunker"
	"github.com/personifai/personifai/pkg/recognizer"
	"github.com/personifai/personifai/pkg/speaker"
	"github.com/personifai/personifai/pkg/transcript"
)

var ErrNotRunning = errors.New("session not running")

// Recognizer is the streaming speech-to-text surface the session needs.
type Recognizer interface {
	Connect(ctx context.Context) error
	Events() <-chan recognizer.Event
	SendAudio(pcm []byte) error
	Close()
}

// Scorer classifies audio chunks against the enrolled voice profile.
type Scorer interface {
	Score(ctx context.Context, samples []float32, sampleRate int) speaker.Result
	LastResult() *speaker.Result
	ResetSession()
}

// Responder speaks a reply to the other party's finalized text.
type Responder interface {
	Respond(ctx context.Context, text string) error
}

// Stats is the live session snapshot served by the stats endpoint.
type Stats struct {
	Running          bool            `json:"running"`
	StartedAt        *time.Time      `json:"startedAt,omitempty"`
	FramesReceived   uint64          `json:"framesReceived"`
	ChunksDispatched uint64          `json:"chunksDispatched"`
	QueueDepth       int             `json:"queueDepth"`
	BufferedSamples  int             `json:"bufferedSamples"`
	SessionActive    bool            `json:"sessionActive"`
	CurrentSpeaker   string          `json:"currentSpeaker"`
	Turns            int             `json:"turns"`
	LastScore        *speaker.Result `json:"lastScore,omitempty"`
}

// SessionService defines the interface for conversation orchestration
type SessionService interface {
	Start(ctx context.Context) error
	PushFrame(frame audio.Frame) error
	Stop()
	Stats() Stats
	Transcript() []transcript.TurnRecord
}

type sessionService struct {
	logger     *Logger.Logger
	buffer     *chunker.Buffer
	dispatcher *chunker.Dispatcher
	scorer     Scorer
	engine     *transcript.Engine
	rec        Recognizer
	responder  Responder

	mu        sync.Mutex
	running   bool
	cancel    context.CancelFunc
	ctx       context.Context
	startedAt time.Time
	wg        sync.WaitGroup

	responding atomic.Bool
	frames     atomic.Uint64
	chunks     atomic.Uint64
}

func NewService(
	buffer *chunker.Buffer,
	dispatcher *chunker.Dispatcher,
	scorer Scorer,
	engine *transcript.Engine,
	rec Recognizer,
	responder Responder,
	logger *Logger.Logger,
) SessionService {
	s := &sessionService{
		logger:     logger,
		buffer:     buffer,
		dispatcher: dispatcher,
		scorer:     scorer,
		engine:     engine,
		rec:        rec,
		responder:  responder,
	}
	engine.SetTrigger(s.onOtherTurn)
	dispatcher.SetCallback(s.onChunk)
	return s
}

// Start implements SessionService. It connects the recognizer, starts the
// chunk worker and launches the event consumer.
func (s *sessionService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.logger.Warn("session already running")
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := s.rec.Connect(runCtx); err != nil {
		cancel()
		return err
	}

	s.ctx = runCtx
	s.cancel = cancel
	s.running = true
	s.startedAt = time.Now()
	s.frames.Store(0)
	s.chunks.Store(0)

	s.dispatcher.Start()
	s.wg.Add(1)
	go s.consumeEvents(runCtx)

	s.logger.Info("conversation session started")
	return nil
}

// PushFrame implements SessionService. The frame is shipped to the
// recognizer and folded into the rolling chunk window; neither path
// blocks the caller on downstream work.
func (s *sessionService) PushFrame(frame audio.Frame) error {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	if !running {
		return ErrNotRunning
	}

	s.frames.Add(1)
	mono := frame.Mono()

	if err := s.rec.SendAudio(audio.Float32ToPCM16(mono)); err != nil {
		s.logger.Warnf("recognizer send failed: %v", err)
	}

	if chunk := s.buffer.Append(frame); chunk != nil {
		s.chunks.Add(1)
		s.dispatcher.Enqueue(*chunk)
	}
	return nil
}

// Stop implements SessionService. Idempotent.
func (s *sessionService) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	s.rec.Close()
	cancel()
	s.dispatcher.Stop()
	s.engine.End()
	s.buffer.Clear()
	s.wg.Wait()

	s.logger.Info("conversation session stopped")
}

// Stats implements SessionService.
func (s *sessionService) Stats() Stats {
	s.mu.Lock()
	running := s.running
	startedAt := s.startedAt
	s.mu.Unlock()

	st := Stats{
		Running:          running,
		FramesReceived:   s.frames.Load(),
		ChunksDispatched: s.chunks.Load(),
		QueueDepth:       s.dispatcher.QueueLen(),
		BufferedSamples:  s.buffer.Len(),
		SessionActive:    s.engine.Active(),
		CurrentSpeaker:   string(s.engine.CurrentSpeaker()),
		Turns:            len(s.engine.Records()),
		LastScore:        s.scorer.LastResult(),
	}
	if running {
		st.StartedAt = &startedAt
	}
	return st
}

// Transcript implements SessionService.
func (s *sessionService) Transcript() []transcript.TurnRecord {
	return s.engine.Records()
}

func (s *sessionService) consumeEvents(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case ev, ok := <-s.rec.Events():
			if !ok {
				s.logger.Info("recognizer event stream closed")
				return
			}
			s.handleEvent(ev)
		case <-ctx.Done():
			return
		}
	}
}

func (s *sessionService) handleEvent(ev recognizer.Event) {
	switch ev.Type {
	case recognizer.EventTypeBegin:
		// A fresh recognizer session resets the audio window and the
		// per-session score history.
		s.buffer.Clear()
		s.scorer.ResetSession()
		s.engine.OnBegin(*ev.Begin)
	case recognizer.EventTypeTurn:
		s.engine.OnTurn(*ev.Turn)
	case recognizer.EventTypeTermination:
		s.engine.OnTermination(*ev.Termination)
	case recognizer.EventTypeError:
		s.logger.Errorf("recognizer error: %v", ev.Err)
	}
}

// onChunk runs on the dispatcher worker.
func (s *sessionService) onChunk(chunk audio.Chunk) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil {
		return
	}
	result := s.scorer.Score(ctx, chunk.Samples, chunk.SampleRate)
	s.logger.Debugf("chunk scored: user=%v similarity=%.3f confidence=%.2f",
		result.IsUser, result.Similarity, result.Confidence)
}

// onOtherTurn fires from the attribution engine when the other party
// finishes a turn. Responses are single flight: a turn that completes
// while the assistant is still speaking is logged and skipped.
func (s *sessionService) onOtherTurn(text string) {
	if !s.responding.CompareAndSwap(false, true) {
		s.logger.Warnf("response in flight, skipping turn: %q", text)
		return
	}
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil {
		s.responding.Store(false)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.responding.Store(false)
		if err := s.responder.Respond(ctx, text); err != nil {
			s.logger.Errorf("response failed: %v", err)
		}
	}()
}
