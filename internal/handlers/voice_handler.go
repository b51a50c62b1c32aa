package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/personifai/personifai/pkg/Logger"
	"github.com/personifai/personifai/pkg/audio"
	"github.com/personifai/personifai/pkg/speaker"
)

// VoiceHandler handles voice-profile HTTP requests
type VoiceHandler struct {
	speakerService *speaker.Service
	logger         *Logger.Logger
}

// NewVoiceHandler creates a new voice handler
func NewVoiceHandler(speakerService *speaker.Service, logger *Logger.Logger) *VoiceHandler {
	return &VoiceHandler{
		speakerService: speakerService,
		logger:         logger,
	}
}

// Enroll handles voice enrollment from an uploaded WAV recording
func (h *VoiceHandler) Enroll(c *gin.Context) {
	file, header, err := c.Request.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Audio file is required", Details: err.Error()})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Failed to read audio file", Details: err.Error()})
		return
	}

	samples, sampleRate, err := audio.DecodeWAV(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid WAV data", Details: err.Error()})
		return
	}
	// An explicit sampleRate form field overrides the WAV header.
	if sr := c.PostForm("sampleRate"); sr != "" {
		if parsed, err := strconv.Atoi(sr); err == nil && parsed > 0 {
			sampleRate = parsed
		}
	}

	h.logger.Infof("voice enrollment request: %s, %d samples at %d Hz", header.Filename, len(samples), sampleRate)

	if err := h.speakerService.Enroll(c.Request.Context(), samples, sampleRate); err != nil {
		h.logger.Errorf("voice enrollment error: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Voice enrollment failed"})
		return
	}

	c.JSON(http.StatusOK, EnrollResponse{
		Message:    "Voice profile enrolled successfully",
		Samples:    len(samples),
		SampleRate: sampleRate,
	})
}

// DeleteProfile removes the enrolled voice profile
func (h *VoiceHandler) DeleteProfile(c *gin.Context) {
	if !h.speakerService.HasProfile() {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "No voice profile enrolled"})
		return
	}
	if err := h.speakerService.DeleteProfile(); err != nil {
		h.logger.Errorf("voice profile deletion error: %v", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to delete voice profile"})
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Voice profile deleted successfully"})
}

// Status reports whether a profile is enrolled and the last score
func (h *VoiceHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"enrolled":  h.speakerService.HasProfile(),
		"threshold": h.speakerService.Threshold(),
		"lastScore": h.speakerService.LastResult(),
	})
}
