package server

import (
	"github.com/gin-gonic/gin"

	"github.com/personifai/personifai/internal/config"
	"github.com/personifai/personifai/internal/domains/persona"
	"github.com/personifai/personifai/internal/domains/session"
	"github.com/personifai/personifai/internal/handlers"
	"github.com/personifai/personifai/pkg/Logger"
	"github.com/personifai/personifai/pkg/speaker"
)

// Dependencies carries everything the route tree needs.
type Dependencies struct {
	PersonaService persona.PersonaService
	SessionService session.SessionService
	SpeakerService *speaker.Service
	Configs        *config.Settings
	Logger         *Logger.Logger
}

func NewServerDependencies(
	personaService persona.PersonaService,
	sessionService session.SessionService,
	speakerService *speaker.Service,
	cfg *config.Settings,
	logger *Logger.Logger,
) Dependencies {
	return Dependencies{
		PersonaService: personaService,
		SessionService: sessionService,
		SpeakerService: speakerService,
		Configs:        cfg,
		Logger:         logger,
	}
}

// InitializeRoutes mounts the API surface on the router.
func InitializeRoutes(router gin.IRouter, deps Dependencies) {
	personaHandler := handlers.NewPersonaHandler(deps.PersonaService, deps.Logger)
	voiceHandler := handlers.NewVoiceHandler(deps.SpeakerService, deps.Logger)
	sessionHandler := handlers.NewSessionHandler(deps.SessionService, deps.Configs.Audio.SampleRate, deps.Logger)
	systemHandler := handlers.NewSystemHandler(deps.PersonaService, deps.SessionService, deps.SpeakerService, deps.Logger)

	api := router.Group("/api")
	{
		api.GET("/health", systemHandler.Health)
		api.GET("/stats", systemHandler.Stats)

		personifications := api.Group("/personifications")
		{
			personifications.GET("", personaHandler.ListPersonifications)
			personifications.POST("", personaHandler.CreatePersonification)
			personifications.GET("/choice", personaHandler.GetChoice)
			personifications.PUT("/choice", personaHandler.SetChoice)
			personifications.GET("/:id", personaHandler.GetPersonification)
			personifications.PUT("/:id", personaHandler.UpdatePersonification)
			personifications.DELETE("/:id", personaHandler.DeletePersonification)
		}

		voice := api.Group("/voice")
		{
			voice.POST("/enroll", voiceHandler.Enroll)
			voice.GET("/profile", voiceHandler.Status)
			voice.DELETE("/profile", voiceHandler.DeleteProfile)
		}

		sessionRoutes := api.Group("/session")
		{
			sessionRoutes.GET("/stream", sessionHandler.HandleStream)
			sessionRoutes.GET("/transcript", sessionHandler.GetTranscript)
		}
	}
}
