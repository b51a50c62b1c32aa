package respond

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/personifai/personifai/pkg/Logger"
)

type fakeGenerator struct {
	deltas     []string
	lastInput  string
	lastPrompt string
}

func (f *fakeGenerator) Stream(ctx context.Context, input, systemPrompt string) (<-chan string, error) {
	f.lastInput = input
	f.lastPrompt = systemPrompt
	out := make(chan string, len(f.deltas))
	for _, d := range f.deltas {
		out <- d
	}
	close(out)
	return out, nil
}

type fakeSynth struct {
	phrases     []string
	lastVoiceID string
}

func (f *fakeSynth) StreamSpeech(ctx context.Context, words <-chan string, voiceID string) (<-chan []byte, error) {
	f.lastVoiceID = voiceID
	out := make(chan []byte, 16)
	go func() {
		defer close(out)
		for w := range words {
			f.phrases = append(f.phrases, w)
			out <- []byte(w)
		}
	}()
	return out, nil
}

type fakeSink struct {
	chunks [][]byte
}

func (f *fakeSink) PlayStream(ctx context.Context, chunks <-chan []byte) error {
	for c := range chunks {
		f.chunks = append(f.chunks, c)
	}
	return nil
}

type fakeCharacters struct {
	ch  *Character
	err error
}

func (f *fakeCharacters) ActiveCharacter(ctx context.Context) (*Character, error) {
	return f.ch, f.err
}

func testLogger(t *testing.T) *Logger.Logger {
	t.Helper()
	return Logger.New(false)
}

func TestRespondGroupsWordsIntoPhrases(t *testing.T) {
	gen := &fakeGenerator{deltas: []string{"one", "two", "three", "four", "five"}}
	synth := &fakeSynth{}
	sink := &fakeSink{}
	p := NewPipeline(gen, synth, sink, testLogger(t))

	if err := p.Respond(context.Background(), "hello"); err != nil {
		t.Fatalf("Respond: %v", err)
	}
	want := []string{"one two three ", "four five "}
	if len(synth.phrases) != len(want) {
		t.Fatalf("got %d phrases %q, want %d", len(synth.phrases), synth.phrases, len(want))
	}
	for i, w := range want {
		if synth.phrases[i] != w {
			t.Errorf("phrase %d = %q, want %q", i, synth.phrases[i], w)
		}
	}
	if len(sink.chunks) != 2 {
		t.Errorf("played %d chunks, want 2", len(sink.chunks))
	}
}

func TestRespondSplitsMultiWordDeltas(t *testing.T) {
	gen := &fakeGenerator{deltas: []string{"hello there friend, how", "are you"}}
	synth := &fakeSynth{}
	p := NewPipeline(gen, synth, &fakeSink{}, testLogger(t))

	if err := p.Respond(context.Background(), "hi"); err != nil {
		t.Fatalf("Respond: %v", err)
	}
	joined := strings.Join(synth.phrases, "")
	if strings.TrimSpace(joined) != "hello there friend, how are you" {
		t.Errorf("reassembled text = %q", joined)
	}
	for i, ph := range synth.phrases {
		if len(strings.Fields(ph)) > 3 {
			t.Errorf("phrase %d %q exceeds word group size", i, ph)
		}
	}
}

func TestRespondEmptyInputIsNoop(t *testing.T) {
	gen := &fakeGenerator{deltas: []string{"should", "not", "run"}}
	synth := &fakeSynth{}
	p := NewPipeline(gen, synth, &fakeSink{}, testLogger(t))

	if err := p.Respond(context.Background(), "   "); err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if gen.lastInput != "" {
		t.Errorf("generator ran for blank input: %q", gen.lastInput)
	}
	if len(synth.phrases) != 0 {
		t.Errorf("synthesizer received %q for blank input", synth.phrases)
	}
}

func TestRespondUsesActiveCharacter(t *testing.T) {
	gen := &fakeGenerator{deltas: []string{"ok"}}
	synth := &fakeSynth{}
	src := &fakeCharacters{ch: &Character{
		Name:    "Harvey",
		Prompt:  "You are Harvey.",
		VoiceID: "voice-123",
	}}
	p := NewPipeline(gen, synth, &fakeSink{}, testLogger(t), WithCharacterSource(src))

	if err := p.Respond(context.Background(), "hello"); err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if gen.lastPrompt != "You are Harvey." {
		t.Errorf("system prompt = %q", gen.lastPrompt)
	}
	if synth.lastVoiceID != "voice-123" {
		t.Errorf("voice id = %q", synth.lastVoiceID)
	}
}

func TestRespondFallsBackWhenCharacterLookupFails(t *testing.T) {
	gen := &fakeGenerator{deltas: []string{"ok"}}
	synth := &fakeSynth{}
	src := &fakeCharacters{err: errors.New("redis down")}
	p := NewPipeline(gen, synth, &fakeSink{}, testLogger(t), WithCharacterSource(src))

	if err := p.Respond(context.Background(), "hello"); err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if gen.lastPrompt != defaultSystemPrompt {
		t.Errorf("system prompt = %q, want default", gen.lastPrompt)
	}
	if synth.lastVoiceID != "" {
		t.Errorf("voice id = %q, want empty", synth.lastVoiceID)
	}
}

func TestRespondPhraseWordsOption(t *testing.T) {
	gen := &fakeGenerator{deltas: []string{"a", "b", "c", "d"}}
	synth := &fakeSynth{}
	p := NewPipeline(gen, synth, &fakeSink{}, testLogger(t), WithPhraseWords(2))

	if err := p.Respond(context.Background(), "hi"); err != nil {
		t.Fatalf("Respond: %v", err)
	}
	want := []string{"a b ", "c d "}
	if len(synth.phrases) != 2 || synth.phrases[0] != want[0] || synth.phrases[1] != want[1] {
		t.Errorf("phrases = %q, want %q", synth.phrases, want)
	}
}
