// Package respond turns a finished conversation turn into spoken audio:
// it streams a generated reply, groups the token deltas into short
// phrases, synthesizes each phrase, and plays the result.
package respond

import (
	"context"
	"fmt"
	"strings"

	"github.com/personifai/personifai/pkg/Logger"
	"github.com/personifai/personifai/pkg/respond/generator"
)

const defaultSystemPrompt = "You are a helpful, conversational AI assistant. " +
	"Keep responses concise and natural for voice conversation. " +
	"Respond as if you're having a friendly chat."

// Words per synthesized phrase. Small groups keep first-audio latency
// low without sending single words to the synthesizer.
const defaultPhraseWords = 3

// Character is the persona a response is spoken as.
type Character struct {
	Name    string
	Prompt  string
	VoiceID string
}

// CharacterSource resolves the currently active character. A nil
// character means respond with the default prompt and voice.
type CharacterSource interface {
	ActiveCharacter(ctx context.Context) (*Character, error)
}

// Synthesizer converts a stream of phrases into a stream of audio chunks.
type Synthesizer interface {
	StreamSpeech(ctx context.Context, words <-chan string, voiceID string) (<-chan []byte, error)
}

// AudioSink plays audio chunks to completion, one at a time.
type AudioSink interface {
	PlayStream(ctx context.Context, chunks <-chan []byte) error
}

// Pipeline wires generation, synthesis and playback together.
type Pipeline struct {
	gen         generator.Generator
	synth       Synthesizer
	sink        AudioSink
	characters  CharacterSource
	phraseWords int
	logger      *Logger.Logger
}

type Option func(*Pipeline)

// WithCharacterSource makes responses persona aware.
func WithCharacterSource(src CharacterSource) Option {
	return func(p *Pipeline) { p.characters = src }
}

// WithPhraseWords overrides how many words are grouped per synthesis
// request.
func WithPhraseWords(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.phraseWords = n
		}
	}
}

func NewPipeline(gen generator.Generator, synth Synthesizer, sink AudioSink, logger *Logger.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		gen:         gen,
		synth:       synth,
		sink:        sink,
		phraseWords: defaultPhraseWords,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Respond generates and speaks a reply to text. It blocks until
// playback finishes or ctx is cancelled.
func (p *Pipeline) Respond(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	prompt, voiceID := p.resolveCharacter(ctx)

	deltas, err := p.gen.Stream(ctx, text, prompt)
	if err != nil {
		return fmt.Errorf("respond: generation: %w", err)
	}
	phrases := groupPhrases(ctx, deltas, p.phraseWords)
	audio, err := p.synth.StreamSpeech(ctx, phrases, voiceID)
	if err != nil {
		return fmt.Errorf("respond: synthesis: %w", err)
	}
	if err := p.sink.PlayStream(ctx, audio); err != nil {
		return fmt.Errorf("respond: playback: %w", err)
	}
	return nil
}

func (p *Pipeline) resolveCharacter(ctx context.Context) (prompt, voiceID string) {
	if p.characters == nil {
		return defaultSystemPrompt, ""
	}
	ch, err := p.characters.ActiveCharacter(ctx)
	if err != nil {
		p.logger.Warnf("respond: active character lookup failed, using default: %v", err)
		return defaultSystemPrompt, ""
	}
	if ch == nil {
		return defaultSystemPrompt, ""
	}
	prompt = ch.Prompt
	if prompt == "" {
		prompt = defaultSystemPrompt
	}
	return prompt, ch.VoiceID
}

// groupPhrases collects token deltas into phrases of roughly n words so
// the synthesizer receives natural short runs instead of single tokens.
func groupPhrases(ctx context.Context, deltas <-chan string, n int) <-chan string {
	out := make(chan string, 4)
	go func() {
		defer close(out)
		var buf []string
		flush := func() bool {
			if len(buf) == 0 {
				return true
			}
			phrase := strings.Join(buf, " ") + " "
			buf = buf[:0]
			select {
			case out <- phrase:
				return true
			case <-ctx.Done():
				return false
			}
		}
		for delta := range deltas {
			for _, w := range strings.Fields(delta) {
				buf = append(buf, w)
				if len(buf) >= n {
					if !flush() {
						return
					}
				}
			}
		}
		flush()
	}()
	return out
}
