package handlers

import (
	"time"

	"github.com/personifai/personifai/internal/domains/persona"
	"github.com/personifai/personifai/internal/domains/session"
)

// SuccessResponse represents a generic success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// HealthResponse is served by the health endpoint
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// StatsResponse aggregates service counters
type StatsResponse struct {
	TotalPersonifications int           `json:"totalPersonifications"`
	VoiceProfileEnrolled  bool          `json:"voiceProfileEnrolled"`
	Session               session.Stats `json:"session"`
}

// CreatePersonificationResponse wraps a created persona
type CreatePersonificationResponse struct {
	Message         string                          `json:"message"`
	Personification persona.PersonificationResponse `json:"personification"`
}

// UpdatePersonificationResponse wraps an updated persona
type UpdatePersonificationResponse struct {
	Message         string                          `json:"message"`
	Personification persona.PersonificationResponse `json:"personification"`
}

// EnrollResponse reports a successful voice enrollment
type EnrollResponse struct {
	Message    string `json:"message"`
	Samples    int    `json:"samples"`
	SampleRate int    `json:"sampleRate"`
}
