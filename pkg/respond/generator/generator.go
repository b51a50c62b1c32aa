package generator

import (
	"context"
)

// Apology is substituted inline when generation fails mid-stream so
// the voice pipeline still says something instead of going silent.
const Apology = "Sorry, I encountered an error generating a response."

// Generator streams a response to the given input as word/token deltas.
// The channel closes when the response is complete. Failures surface as
// the apology text on the channel, not as an error; Stream itself only
// errors on unusable input.
type Generator interface {
	Stream(ctx context.Context, input, systemPrompt string) (<-chan string, error)
}
