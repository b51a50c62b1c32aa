package app

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis"

	"github.com/personifai/personifai/internal/config"
	"github.com/personifai/personifai/internal/domains/persona"
	"github.com/personifai/personifai/internal/domains/session"
	personaRepo "github.com/personifai/personifai/internal/repository/persona"
	"github.com/personifai/personifai/internal/server"
	"github.com/personifai/personifai/pkg/Logger"
	"github.com/personifai/personifai/pkg/audio/chunker"
	"github.com/personifai/personifai/pkg/recognizer"
	"github.com/personifai/personifai/pkg/respond"
	"github.com/personifai/personifai/pkg/respond/playback"
	"github.com/personifai/personifai/pkg/respond/synthesis"
	"github.com/personifai/personifai/pkg/speaker"
	"github.com/personifai/personifai/pkg/transcript"
)

const embedderPingTimeout = 5 * time.Second

// App represents the application with all its dependencies
type App struct {
	Config *config.Settings
	Logger *Logger.Logger
	RC     *redis.Client

	PersonaRepo    persona.PersonaRepository
	PersonaService persona.PersonaService
	SpeakerService *speaker.Service
	SessionService session.SessionService
	ServerDeps     server.Dependencies
}

// NewApp creates a new application instance with all dependencies properly wired
func NewApp(cfg *config.Settings, logger *Logger.Logger, rc *redis.Client) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
		RC:     rc,
	}

	if err := app.setupDependencies(); err != nil {
		return nil, err
	}

	return app, nil
}

// setupDependencies initializes all application dependencies
func (a *App) setupDependencies() error {
	// persona domain over redis
	a.PersonaRepo = personaRepo.NewRedisPersonaRepo(a.RC)
	a.PersonaService = persona.NewService(a.PersonaRepo, a.Logger)

	// speaker similarity scoring. An unreachable embedder would turn
	// every chunk score into a logged error, so fail boot instead.
	extractor := speaker.NewECAPAClient(a.Config.Speaker.EmbedderURL, a.Logger)
	pingCtx, cancel := context.WithTimeout(context.Background(), embedderPingTimeout)
	defer cancel()
	if err := extractor.Ping(pingCtx); err != nil {
		return fmt.Errorf("embedding service check failed: %w", err)
	}
	profileStore := speaker.NewProfileStore(a.Config.Speaker.ProfilePath)
	a.SpeakerService = speaker.NewService(extractor, profileStore, a.Logger)
	if a.Config.Speaker.Threshold > 0 {
		if err := a.SpeakerService.SetThreshold(a.Config.Speaker.Threshold); err != nil {
			return err
		}
	}

	// response pipeline
	pipeline, err := a.setupResponsePipeline()
	if err != nil {
		return err
	}

	// conversation session
	buffer := chunker.New(chunker.Config{
		ChunkDuration: a.Config.Audio.ChunkDuration,
		Overlap:       a.Config.Audio.Overlap,
		SampleRate:    a.Config.Audio.SampleRate,
		MaxBuffer:     a.Config.Audio.MaxBuffer,
	})
	dispatcher := chunker.NewDispatcher(a.Config.Audio.QueueSize, a.Logger)
	store := transcript.NewStore(a.Config.Transcript.LogPath)
	engine := transcript.NewEngine(store, a.Logger,
		transcript.WithFinalsPerTurn(a.Config.Transcript.FinalsPerTurn))
	recClient := recognizer.NewClient(a.Config.Recognizer, a.Logger)

	a.SessionService = session.NewService(
		buffer, dispatcher, a.SpeakerService, engine, recClient, pipeline, a.Logger,
	)

	a.ServerDeps = server.NewServerDependencies(
		a.PersonaService, a.SessionService, a.SpeakerService, a.Config, a.Logger,
	)
	return nil
}

func (a *App) setupResponsePipeline() (*respond.Pipeline, error) {
	gen, err := NewGeneratorFactory(a.Config, a.Logger).CreateGenerator()
	if err != nil {
		return nil, err
	}

	synthCfg := a.Config.Synthesis
	if synthCfg.APIKey == "" {
		synthCfg.APIKey = a.Config.AssistantKeys.ElevenLabsApiKey
	}
	synth, err := synthesis.New(synthCfg, a.Logger)
	if err != nil {
		return nil, err
	}

	player := playback.NewPlayer(a.Logger)
	return respond.NewPipeline(gen, synth, player, a.Logger,
		respond.WithCharacterSource(a.PersonaService)), nil
}

// GetServerDependencies returns the server dependencies
func (a *App) GetServerDependencies() server.Dependencies {
	return a.ServerDeps
}
