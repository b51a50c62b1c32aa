package transcript

import (
	"context"
	"strings"
	"sync"

	"github.com/looplab/fsm"

	"github.com/personifai/personifai/pkg/Logger"
)

// Engine states. The speaker alternates deterministically: the session
// opens with the local user holding the floor, and every authoritative
// finalization hands it to the other party.
const (
	stateInactive = "inactive"
	stateYou      = string(SpeakerYou)
	stateOther    = string(SpeakerOther)

	eventBegin = "begin"
	eventFlip  = "flip"
	eventEnd   = "end"
)

// defaultFinalsPerTurn matches a recognizer that emits a raw final
// followed by a reformatted final for the same utterance; acting on the
// second avoids duplicate log entries. Set to 1 for recognizers that
// finalize once.
const defaultFinalsPerTurn = 2

// TriggerFunc receives the other party's finalized text. It is invoked
// outside the engine lock, so it may block on generation and synthesis.
type TriggerFunc func(text string)

// Engine consumes recognizer turn events, attributes each finalized
// turn to one of the two parties and gates the response pipeline: only
// a non-empty turn spoken by the other party triggers it.
type Engine struct {
	logger        *Logger.Logger
	store         *Store
	trigger       TriggerFunc
	finalsPerTurn int

	mu         sync.Mutex
	machine    *fsm.FSM
	sessionID  string
	records    []TurnRecord
	current    string
	finalCount int
}

// Option tweaks engine construction.
type Option func(*Engine)

// WithFinalsPerTurn sets how many end-of-turn events the recognizer
// emits per utterance; the engine acts on the last of each group.
func WithFinalsPerTurn(n int) Option {
	return func(e *Engine) {
		if n >= 1 {
			e.finalsPerTurn = n
		}
	}
}

// WithTrigger registers the response-pipeline callback.
func WithTrigger(fn TriggerFunc) Option {
	return func(e *Engine) { e.trigger = fn }
}

// SetTrigger replaces the response-pipeline callback. Late wiring for
// callers whose callback needs the fully built engine.
func (e *Engine) SetTrigger(fn TriggerFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.trigger = fn
}

func NewEngine(store *Store, logger *Logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		logger:        logger,
		store:         store,
		finalsPerTurn: defaultFinalsPerTurn,
	}
	e.machine = fsm.NewFSM(
		stateInactive,
		fsm.Events{
			{Name: eventBegin, Src: []string{stateInactive}, Dst: stateYou},
			{Name: eventFlip, Src: []string{stateYou}, Dst: stateOther},
			{Name: eventFlip, Src: []string{stateOther}, Dst: stateYou},
			{Name: eventEnd, Src: []string{stateYou, stateOther}, Dst: stateInactive},
		},
		fsm.Callbacks{},
	)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Begin opens a session: speaker resets to the local user and the
// persisted log is cleared. A Begin on an active session restarts it.
func (e *Engine) Begin(sessionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.machine.Is(stateInactive) {
		e.logger.Warnf("session %s began while %s was active, restarting", sessionID, e.sessionID)
		e.machine.SetState(stateInactive)
	}
	if err := e.machine.Event(context.Background(), eventBegin); err != nil {
		e.logger.Errorf("failed to begin session: %v", err)
		return
	}

	e.sessionID = sessionID
	e.records = nil
	e.current = ""
	e.finalCount = 0
	if err := e.store.Save(nil); err != nil {
		e.logger.Errorf("failed to persist empty transcript log: %v", err)
	}
	e.logger.Infof("session started: %s", sessionID)
}

// OnTurn folds one recognizer event into the session. Partials update
// the in-flight transcript view; finals are counted and only the last
// of each finalsPerTurn group is authoritative.
func (e *Engine) OnTurn(ev TurnEvent) {
	e.mu.Lock()

	if e.machine.Is(stateInactive) {
		e.mu.Unlock()
		e.logger.Debugf("dropping turn event outside a session: %q", ev.Text)
		return
	}

	if !ev.EndOfTurn {
		e.current = ev.Text
		e.mu.Unlock()
		return
	}

	e.finalCount++
	if e.finalCount%e.finalsPerTurn != 0 {
		// Preliminary finalization; the reformatted final supersedes it.
		e.current = ev.Text
		e.mu.Unlock()
		return
	}

	speaker := Speaker(e.machine.Current())
	e.records = append(e.records, TurnRecord{Speaker: speaker, Text: ev.Text})
	if err := e.store.Save(e.records); err != nil {
		// In-memory state stays the source of truth.
		e.logger.Errorf("failed to persist transcript log: %v", err)
	}

	trimmed := strings.TrimSpace(ev.Text)
	fire := speaker == SpeakerOther && trimmed != ""
	trigger := e.trigger

	if err := e.machine.Event(context.Background(), eventFlip); err != nil {
		e.logger.Errorf("failed to flip speaker: %v", err)
	}
	e.current = ""
	e.logger.Infof("turn finalized [%s]: %s", speaker, trimmed)
	e.mu.Unlock()

	if fire && trigger != nil {
		trigger(trimmed)
	}
}

// OnBegin adapts a recognizer begin event onto Begin.
func (e *Engine) OnBegin(ev BeginEvent) {
	e.Begin(ev.ID)
}

// OnTermination closes the session.
func (e *Engine) OnTermination(ev TerminationEvent) {
	e.End()
	e.logger.Infof("session terminated: %.1fs of audio processed", ev.AudioDurationSeconds)
}

// End closes the session; later turn events are dropped until the next
// Begin.
func (e *Engine) End() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.machine.Is(stateInactive) {
		return
	}
	if err := e.machine.Event(context.Background(), eventEnd); err != nil {
		e.logger.Errorf("failed to end session: %v", err)
	}
}

// Active reports whether a session is open.
func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.machine.Is(stateInactive)
}

// CurrentSpeaker returns who holds the floor; SpeakerYou when inactive.
func (e *Engine) CurrentSpeaker() Speaker {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.machine.Is(stateInactive) {
		return SpeakerYou
	}
	return Speaker(e.machine.Current())
}

// CurrentTranscript returns the latest (possibly partial) turn text.
func (e *Engine) CurrentTranscript() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// Records returns a copy of the finalized turn log.
func (e *Engine) Records() []TurnRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]TurnRecord(nil), e.records...)
}
