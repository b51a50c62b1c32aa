package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/personifai/personifai/internal/domains/persona"
	"github.com/personifai/personifai/pkg/Logger"
)

// PersonaHandler handles persona-related HTTP requests
type PersonaHandler struct {
	personaService persona.PersonaService
	logger         *Logger.Logger
}

// NewPersonaHandler creates a new persona handler
func NewPersonaHandler(personaService persona.PersonaService, logger *Logger.Logger) *PersonaHandler {
	return &PersonaHandler{
		personaService: personaService,
		logger:         logger,
	}
}

// ListPersonifications handles listing all personas
func (h *PersonaHandler) ListPersonifications(c *gin.Context) {
	list, err := h.personaService.ListPersonifications(c.Request.Context())
	if err != nil {
		h.logger.Errorf("list personifications error: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetPersonification handles getting a specific persona
func (h *PersonaHandler) GetPersonification(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Personification ID is required"})
		return
	}

	resp, err := h.personaService.GetPersonification(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, persona.ErrPersonificationNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Personification not found"})
		default:
			h.logger.Errorf("get personification error: %v", err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		}
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreatePersonification handles persona creation
func (h *PersonaHandler) CreatePersonification(c *gin.Context) {
	var req persona.CreatePersonificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request data",
			Details: err.Error(),
		})
		return
	}

	resp, err := h.personaService.CreatePersonification(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, persona.ErrInvalidPersonification):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid personification data"})
		default:
			h.logger.Errorf("create personification error: %v", err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusCreated, CreatePersonificationResponse{
		Message:         "Personification created successfully",
		Personification: *resp,
	})
}

// UpdatePersonification handles updating a persona
func (h *PersonaHandler) UpdatePersonification(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Personification ID is required"})
		return
	}

	var req persona.UpdatePersonificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request data",
			Details: err.Error(),
		})
		return
	}

	resp, err := h.personaService.UpdatePersonification(c.Request.Context(), id, req)
	if err != nil {
		switch {
		case errors.Is(err, persona.ErrPersonificationNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Personification not found"})
		case errors.Is(err, persona.ErrInvalidPersonification):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid personification data"})
		default:
			h.logger.Errorf("update personification error: %v", err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, UpdatePersonificationResponse{
		Message:         "Personification updated successfully",
		Personification: *resp,
	})
}

// DeletePersonification handles deleting a persona
func (h *PersonaHandler) DeletePersonification(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Personification ID is required"})
		return
	}

	if err := h.personaService.DeletePersonification(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, persona.ErrPersonificationNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Personification not found"})
		default:
			h.logger.Errorf("delete personification error: %v", err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Personification deleted successfully"})
}

type setChoiceRequest struct {
	Choice *string `json:"choice"`
}

// SetChoice handles selecting (or clearing) the active persona
func (h *PersonaHandler) SetChoice(c *gin.Context) {
	var req setChoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request data",
			Details: err.Error(),
		})
		return
	}

	if err := h.personaService.SetActiveChoice(c.Request.Context(), req.Choice); err != nil {
		switch {
		case errors.Is(err, persona.ErrPersonificationNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Personification not found"})
		default:
			h.logger.Errorf("set active choice error: %v", err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Active personification updated"})
}

// GetChoice returns the active persona, or null when none is selected
func (h *PersonaHandler) GetChoice(c *gin.Context) {
	active, err := h.personaService.ActivePersonification(c.Request.Context())
	if err != nil {
		h.logger.Errorf("get active choice error: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": active})
}
