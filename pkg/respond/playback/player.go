package playback

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/hajimehoshi/go-mp3"
	"github.com/personifai/personifai/pkg/Logger"
)

// Player plays mp3 chunks through the system audio device. At most one
// chunk is in flight at a time; a chunk finishes before the next starts.
type Player struct {
	mu         sync.Mutex
	otoCtx     *oto.Context
	sampleRate int
	logger     *Logger.Logger
}

func NewPlayer(logger *Logger.Logger) *Player {
	return &Player{logger: logger}
}

// PlayStream drains chunks and plays each to completion. It returns
// when the channel closes or the context is cancelled.
func (p *Player) PlayStream(ctx context.Context, chunks <-chan []byte) error {
	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				return nil
			}
			if err := p.playChunk(ctx, chunk); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				p.logger.Warnf("playback: chunk skipped: %v", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *Player) playChunk(ctx context.Context, chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}
	dec, err := mp3.NewDecoder(bytes.NewReader(chunk))
	if err != nil {
		return fmt.Errorf("decode mp3: %w", err)
	}
	otoCtx, err := p.ensureContext(dec.SampleRate())
	if err != nil {
		return err
	}

	player := otoCtx.NewPlayer(dec)
	defer player.Close()
	player.Play()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
	return nil
}

// ensureContext lazily initializes the oto context. oto allows one
// context per process, so a later sample rate change cannot be honored.
func (p *Player) ensureContext(sampleRate int) (*oto.Context, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.otoCtx != nil {
		if p.sampleRate != sampleRate {
			p.logger.Warnf("playback: sample rate change %d -> %d not supported, continuing at %d",
				p.sampleRate, sampleRate, p.sampleRate)
		}
		return p.otoCtx, nil
	}
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
	}
	otoCtx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	<-ready
	p.otoCtx = otoCtx
	p.sampleRate = sampleRate
	p.logger.Infof("playback: audio device ready at %d Hz", sampleRate)
	return otoCtx, nil
}
