package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/personifai/personifai/internal/domains/persona"
	"github.com/personifai/personifai/internal/domains/session"
	"github.com/personifai/personifai/pkg/Logger"
	"github.com/personifai/personifai/pkg/speaker"
)

// SystemHandler serves health and stats endpoints
type SystemHandler struct {
	personaService persona.PersonaService
	sessionService session.SessionService
	speakerService *speaker.Service
	logger         *Logger.Logger
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(
	personaService persona.PersonaService,
	sessionService session.SessionService,
	speakerService *speaker.Service,
	logger *Logger.Logger,
) *SystemHandler {
	return &SystemHandler{
		personaService: personaService,
		sessionService: sessionService,
		speakerService: speakerService,
		logger:         logger,
	}
}

// Health handles the health check endpoint
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Message:   "Personif.ai API is running",
	})
}

// Stats handles the stats endpoint
func (h *SystemHandler) Stats(c *gin.Context) {
	count, err := h.personaService.Count(c.Request.Context())
	if err != nil {
		h.logger.Warnf("persona count unavailable: %v", err)
	}
	c.JSON(http.StatusOK, StatsResponse{
		TotalPersonifications: count,
		VoiceProfileEnrolled:  h.speakerService.HasProfile(),
		Session:               h.sessionService.Stats(),
	})
}
