package persona

import (
	"context"
	"errors"
	"fmt"

	"github.com/personifai/personifai/pkg/Logger"
	"github.com/personifai/personifai/pkg/respond"
)

// Common errors
var (
	ErrPersonificationNotFound = errors.New("personification not found")
	ErrInvalidPersonification  = errors.New("invalid personification data")
)

// PersonaService defines the interface for persona business logic
type PersonaService interface {
	ListPersonifications(ctx context.Context) ([]PersonificationResponse, error)
	GetPersonification(ctx context.Context, id string) (*PersonificationResponse, error)
	CreatePersonification(ctx context.Context, req CreatePersonificationRequest) (*PersonificationResponse, error)
	UpdatePersonification(ctx context.Context, id string, req UpdatePersonificationRequest) (*PersonificationResponse, error)
	DeletePersonification(ctx context.Context, id string) error

	// Active selection
	ActivePersonification(ctx context.Context) (*PersonificationResponse, error)
	SetActiveChoice(ctx context.Context, id *string) error

	// Count reports how many personas exist, for the stats endpoint.
	Count(ctx context.Context) (int, error)

	respond.CharacterSource
}

type personaService struct {
	repository PersonaRepository
	logger     *Logger.Logger
}

func NewService(repository PersonaRepository, logger *Logger.Logger) PersonaService {
	return &personaService{
		repository: repository,
		logger:     logger,
	}
}

// ListPersonifications implements PersonaService
func (s *personaService) ListPersonifications(ctx context.Context) ([]PersonificationResponse, error) {
	doc, err := s.repository.Load()
	if err != nil {
		s.logger.Errorf("error loading personifications: %v", err)
		return nil, fmt.Errorf("failed to load personifications: %w", err)
	}
	responses := make([]PersonificationResponse, 0, len(doc.Personifications))
	for i := range doc.Personifications {
		responses = append(responses, doc.Personifications[i].ToResponse())
	}
	return responses, nil
}

// GetPersonification implements PersonaService
func (s *personaService) GetPersonification(ctx context.Context, id string) (*PersonificationResponse, error) {
	doc, err := s.repository.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load personifications: %w", err)
	}
	p := findByID(doc, id)
	if p == nil {
		return nil, ErrPersonificationNotFound
	}
	response := p.ToResponse()
	return &response, nil
}

// CreatePersonification implements PersonaService
func (s *personaService) CreatePersonification(ctx context.Context, req CreatePersonificationRequest) (*PersonificationResponse, error) {
	if req.Name == "" || req.Content == "" {
		return nil, ErrInvalidPersonification
	}

	doc, err := s.repository.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load personifications: %w", err)
	}

	p := NewPersonification(req)
	doc.Personifications = append(doc.Personifications, *p)
	if err := s.repository.Save(doc); err != nil {
		s.logger.Errorf("error creating personification: %v", err)
		return nil, fmt.Errorf("failed to create personification: %w", err)
	}

	s.logger.Infof("personification created successfully: %s (%s)", p.Name, p.ID)
	response := p.ToResponse()
	return &response, nil
}

// UpdatePersonification implements PersonaService
func (s *personaService) UpdatePersonification(ctx context.Context, id string, req UpdatePersonificationRequest) (*PersonificationResponse, error) {
	if req.Name != nil && *req.Name == "" {
		return nil, ErrInvalidPersonification
	}
	if req.Content != nil && *req.Content == "" {
		return nil, ErrInvalidPersonification
	}

	doc, err := s.repository.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load personifications: %w", err)
	}
	p := findByID(doc, id)
	if p == nil {
		return nil, ErrPersonificationNotFound
	}

	p.ApplyUpdate(req)
	if err := s.repository.Save(doc); err != nil {
		s.logger.Errorf("error updating personification: %v", err)
		return nil, fmt.Errorf("failed to update personification: %w", err)
	}

	s.logger.Infof("personification updated successfully: %s", id)
	response := p.ToResponse()
	return &response, nil
}

// DeletePersonification implements PersonaService
func (s *personaService) DeletePersonification(ctx context.Context, id string) error {
	doc, err := s.repository.Load()
	if err != nil {
		return fmt.Errorf("failed to load personifications: %w", err)
	}

	idx := -1
	for i := range doc.Personifications {
		if doc.Personifications[i].ID.String() == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrPersonificationNotFound
	}

	doc.Personifications = append(doc.Personifications[:idx], doc.Personifications[idx+1:]...)
	// Deleting the active persona clears the choice.
	if doc.Choice != nil && *doc.Choice == id {
		doc.Choice = nil
	}
	if err := s.repository.Save(doc); err != nil {
		s.logger.Errorf("error deleting personification: %v", err)
		return fmt.Errorf("failed to delete personification: %w", err)
	}

	s.logger.Infof("personification deleted: %s", id)
	return nil
}

// ActivePersonification implements PersonaService
func (s *personaService) ActivePersonification(ctx context.Context) (*PersonificationResponse, error) {
	doc, err := s.repository.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load personifications: %w", err)
	}
	if doc.Choice == nil || *doc.Choice == "" {
		return nil, nil
	}
	p := findByID(doc, *doc.Choice)
	if p == nil {
		s.logger.Warnf("active choice %s not found in personification list", *doc.Choice)
		return nil, nil
	}
	response := p.ToResponse()
	return &response, nil
}

// SetActiveChoice implements PersonaService. A nil id clears the
// selection.
func (s *personaService) SetActiveChoice(ctx context.Context, id *string) error {
	doc, err := s.repository.Load()
	if err != nil {
		return fmt.Errorf("failed to load personifications: %w", err)
	}
	if id != nil {
		if findByID(doc, *id) == nil {
			return ErrPersonificationNotFound
		}
	}
	doc.Choice = id
	if err := s.repository.Save(doc); err != nil {
		s.logger.Errorf("error updating active choice: %v", err)
		return fmt.Errorf("failed to update active choice: %w", err)
	}
	return nil
}

// Count implements PersonaService
func (s *personaService) Count(ctx context.Context) (int, error) {
	doc, err := s.repository.Load()
	if err != nil {
		return 0, fmt.Errorf("failed to load personifications: %w", err)
	}
	return len(doc.Personifications), nil
}

// ActiveCharacter implements respond.CharacterSource
func (s *personaService) ActiveCharacter(ctx context.Context) (*respond.Character, error) {
	active, err := s.ActivePersonification(ctx)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, nil
	}
	ch := &respond.Character{
		Name:   active.Name,
		Prompt: active.Content,
	}
	if active.ElevenLabsID != nil {
		ch.VoiceID = *active.ElevenLabsID
	}
	return ch, nil
}

func findByID(doc *Document, id string) *Personification {
	for i := range doc.Personifications {
		if doc.Personifications[i].ID.String() == id {
			return &doc.Personifications[i]
		}
	}
	return nil
}
