package persona

import (
	"time"

	"github.com/google/uuid"
)

// Personification is a persona the assistant can speak as (pure domain model)
type Personification struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Content      string    `json:"content"`
	Quotes       []string  `json:"quotes"`
	ProfilePic   *string   `json:"profilePic,omitempty"`
	ElevenLabsID *string   `json:"elevenLabsId,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CreatePersonificationRequest represents the data needed to create a persona
type CreatePersonificationRequest struct {
	Name         string   `json:"name" binding:"required,min=1"`
	Content      string   `json:"content" binding:"required,min=1"`
	Quotes       []string `json:"quotes,omitempty"`
	ProfilePic   *string  `json:"profilePic,omitempty"`
	ElevenLabsID *string  `json:"elevenLabsId,omitempty"`
}

// UpdatePersonificationRequest represents the data that can be updated
type UpdatePersonificationRequest struct {
	Name         *string   `json:"name,omitempty" binding:"omitempty,min=1"`
	Content      *string   `json:"content,omitempty" binding:"omitempty,min=1"`
	Quotes       *[]string `json:"quotes,omitempty"`
	ProfilePic   *string   `json:"profilePic,omitempty"`
	ElevenLabsID *string   `json:"elevenLabsId,omitempty"`
	Status       *string   `json:"status,omitempty"`
}

// PersonificationResponse is the persona shape returned by the API
type PersonificationResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Content      string    `json:"content"`
	Quotes       []string  `json:"quotes"`
	ProfilePic   *string   `json:"profilePic,omitempty"`
	ElevenLabsID *string   `json:"elevenLabsId,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ToResponse converts a Personification to PersonificationResponse
func (p *Personification) ToResponse() PersonificationResponse {
	quotes := p.Quotes
	if quotes == nil {
		quotes = []string{}
	}
	return PersonificationResponse{
		ID:           p.ID.String(),
		Name:         p.Name,
		Content:      p.Content,
		Quotes:       quotes,
		ProfilePic:   p.ProfilePic,
		ElevenLabsID: p.ElevenLabsID,
		Status:       p.Status,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// NewPersonification creates a persona with generated ID. New personas
// start inactive until selected.
func NewPersonification(req CreatePersonificationRequest) *Personification {
	quotes := req.Quotes
	if quotes == nil {
		quotes = []string{}
	}
	now := time.Now()
	return &Personification{
		ID:           uuid.New(),
		Name:         req.Name,
		Content:      req.Content,
		Quotes:       quotes,
		ProfilePic:   req.ProfilePic,
		ElevenLabsID: req.ElevenLabsID,
		Status:       "inactive",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// ApplyUpdate overwrites the fields present in req and bumps UpdatedAt.
func (p *Personification) ApplyUpdate(req UpdatePersonificationRequest) {
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Content != nil {
		p.Content = *req.Content
	}
	if req.Quotes != nil {
		p.Quotes = *req.Quotes
	}
	if req.ProfilePic != nil {
		p.ProfilePic = req.ProfilePic
	}
	if req.ElevenLabsID != nil {
		p.ElevenLabsID = req.ElevenLabsID
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
	p.UpdatedAt = time.Now()
}

// Document is the stored shape: the full persona list plus the id of
// the active choice, kept under a single key so the active selection
// and the list never drift apart.
type Document struct {
	Choice           *string           `json:"choice"`
	Personifications []Personification `json:"personifications"`
}

// PersonaRepository defines the interface for persona data operations
type PersonaRepository interface {
	// Load the whole persona document
	Load() (*Document, error)

	// Persist the whole persona document
	Save(doc *Document) error
}
