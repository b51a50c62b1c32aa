package recognizer

import (
	"github.com/personifai/personifai/pkg/transcript"
)

// EventType discriminates recognizer stream messages.
type EventType string

const (
	EventTypeBegin       EventType = "Begin"
	EventTypeTurn        EventType = "Turn"
	EventTypeTermination EventType = "Termination"
	EventTypeError       EventType = "Error"
)

// Event is one typed message from the recognizer stream. Exactly one
// of the payload fields matching Type is set.
type Event struct {
	Type        EventType
	Begin       *transcript.BeginEvent
	Turn        *transcript.TurnEvent
	Termination *transcript.TerminationEvent
	Err         error
}

// envelope is the wire shape; the Type field selects which of the
// remaining fields are meaningful.
type envelope struct {
	Type                 EventType `json:"type"`
	ID                   string    `json:"id,omitempty"`
	Transcript           string    `json:"transcript,omitempty"`
	EndOfTurn            bool      `json:"end_of_turn,omitempty"`
	TurnIsFormatted      bool      `json:"turn_is_formatted,omitempty"`
	TurnOrder            int       `json:"turn_order,omitempty"`
	AudioDurationSeconds float64   `json:"audio_duration_seconds,omitempty"`
	Error                string    `json:"error,omitempty"`
}

type terminateMessage struct {
	Type string `json:"type"`
}
