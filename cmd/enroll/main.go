package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/personifai/personifai/internal/config"
	"github.com/personifai/personifai/pkg/Logger"
	"github.com/personifai/personifai/pkg/audio"
	"github.com/personifai/personifai/pkg/speaker"
)

// Enrolls a voice profile from a WAV recording so live chunks can be
// scored against it.
func main() {
	wavPath := flag.String("wav", "", "path to a WAV recording of the user's voice")
	flag.Parse()
	if *wavPath == "" {
		log.Fatal("usage: enroll -wav <recording.wav>")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := Logger.New(cfg.Debug)

	extractor := speaker.NewECAPAClient(cfg.Speaker.EmbedderURL, logger)
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()
	if err := extractor.Ping(pingCtx); err != nil {
		log.Fatalf("Embedding service check failed: %v", err)
	}

	data, err := os.ReadFile(*wavPath)
	if err != nil {
		log.Fatalf("Failed to read recording: %v", err)
	}
	samples, sampleRate, err := audio.DecodeWAV(data)
	if err != nil {
		log.Fatalf("Invalid WAV data: %v", err)
	}
	logger.Infof("loaded %d samples at %d Hz from %s", len(samples), sampleRate, *wavPath)

	store := speaker.NewProfileStore(cfg.Speaker.ProfilePath)
	svc := speaker.NewService(extractor, store, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := svc.Enroll(ctx, samples, sampleRate); err != nil {
		log.Fatalf("Enrollment failed: %v", err)
	}
	logger.Infof("voice profile enrolled at %s", cfg.Speaker.ProfilePath)
}
