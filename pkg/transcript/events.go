package transcript

import (
	"encoding/json"
	"fmt"
	"time"
)

// Speaker labels one side of the two-party conversation.
type Speaker string

const (
	SpeakerYou   Speaker = "you"
	SpeakerOther Speaker = "other"
)

// Flip returns the opposite party.
func (s Speaker) Flip() Speaker {
	if s == SpeakerYou {
		return SpeakerOther
	}
	return SpeakerYou
}

// TurnEvent is one transcript update from the recognizer. Partial
// events revise the in-flight turn; EndOfTurn marks a finalization.
type TurnEvent struct {
	ID        string    `json:"id"`
	Text      string    `json:"transcript"`
	EndOfTurn bool      `json:"end_of_turn"`
	Partial   bool      `json:"is_partial"`
	Timestamp time.Time `json:"timestamp"`
}

// BeginEvent opens a recognizer streaming session.
type BeginEvent struct {
	ID string `json:"id"`
}

// TerminationEvent closes a recognizer streaming session.
type TerminationEvent struct {
	AudioDurationSeconds float64 `json:"audio_duration_seconds"`
}

// TurnRecord is one finalized turn in the conversation log. It
// serializes to the single-key object shape the rest of the stack
// consumes: {"you": "..."} or {"other": "..."}.
type TurnRecord struct {
	Speaker Speaker
	Text    string
}

func (r TurnRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{string(r.Speaker): r.Text})
}

func (r *TurnRecord) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if len(m) != 1 {
		return fmt.Errorf("turn record must have exactly one speaker key, got %d", len(m))
	}
	for k, v := range m {
		switch Speaker(k) {
		case SpeakerYou, SpeakerOther:
			r.Speaker = Speaker(k)
			r.Text = v
		default:
			return fmt.Errorf("unknown speaker label %q", k)
		}
	}
	return nil
}
