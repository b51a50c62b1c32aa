package persona

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/personifai/personifai/pkg/Logger"
)

type memoryRepo struct {
	data    []byte
	loadErr error
	saveErr error
}

func (m *memoryRepo) Load() (*Document, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.data == nil {
		return &Document{Personifications: []Personification{}}, nil
	}
	var doc Document
	if err := json.Unmarshal(m.data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (m *memoryRepo) Save(doc *Document) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	m.data = data
	return nil
}

func newTestService(t *testing.T) (PersonaService, *memoryRepo) {
	t.Helper()
	repo := &memoryRepo{}
	return NewService(repo, Logger.New(false)), repo
}

func TestCreateAndListPersonifications(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreatePersonification(ctx, CreatePersonificationRequest{
		Name:    "Harvey",
		Content: "You are Harvey.",
		Quotes:  []string{"That's what I do."},
	})
	if err != nil {
		t.Fatalf("CreatePersonification: %v", err)
	}
	if created.ID == "" {
		t.Error("created persona has no id")
	}
	if created.Status != "inactive" {
		t.Errorf("new persona status = %q, want inactive", created.Status)
	}

	list, err := svc.ListPersonifications(ctx)
	if err != nil {
		t.Fatalf("ListPersonifications: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Harvey" {
		t.Errorf("list = %+v", list)
	}
}

func TestCreateRejectsMissingFields(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreatePersonification(ctx, CreatePersonificationRequest{Name: "x"}); !errors.Is(err, ErrInvalidPersonification) {
		t.Errorf("missing content: err = %v", err)
	}
	if _, err := svc.CreatePersonification(ctx, CreatePersonificationRequest{Content: "x"}); !errors.Is(err, ErrInvalidPersonification) {
		t.Errorf("missing name: err = %v", err)
	}
}

func TestUpdatePersonification(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreatePersonification(ctx, CreatePersonificationRequest{Name: "A", Content: "a"})
	if err != nil {
		t.Fatalf("CreatePersonification: %v", err)
	}

	name := "B"
	status := "active"
	updated, err := svc.UpdatePersonification(ctx, created.ID, UpdatePersonificationRequest{
		Name:   &name,
		Status: &status,
	})
	if err != nil {
		t.Fatalf("UpdatePersonification: %v", err)
	}
	if updated.Name != "B" || updated.Status != "active" {
		t.Errorf("updated = %+v", updated)
	}
	if updated.Content != "a" {
		t.Errorf("content changed unexpectedly: %q", updated.Content)
	}

	if _, err := svc.UpdatePersonification(ctx, "no-such-id", UpdatePersonificationRequest{Name: &name}); !errors.Is(err, ErrPersonificationNotFound) {
		t.Errorf("unknown id: err = %v", err)
	}
}

func TestDeleteClearsActiveChoice(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreatePersonification(ctx, CreatePersonificationRequest{Name: "A", Content: "a"})
	if err != nil {
		t.Fatalf("CreatePersonification: %v", err)
	}
	if err := svc.SetActiveChoice(ctx, &created.ID); err != nil {
		t.Fatalf("SetActiveChoice: %v", err)
	}

	active, err := svc.ActivePersonification(ctx)
	if err != nil {
		t.Fatalf("ActivePersonification: %v", err)
	}
	if active == nil || active.ID != created.ID {
		t.Fatalf("active = %+v", active)
	}

	if err := svc.DeletePersonification(ctx, created.ID); err != nil {
		t.Fatalf("DeletePersonification: %v", err)
	}
	active, err = svc.ActivePersonification(ctx)
	if err != nil {
		t.Fatalf("ActivePersonification after delete: %v", err)
	}
	if active != nil {
		t.Errorf("active persona survived deletion: %+v", active)
	}
}

func TestSetActiveChoiceUnknownID(t *testing.T) {
	svc, _ := newTestService(t)
	id := "missing"
	if err := svc.SetActiveChoice(context.Background(), &id); !errors.Is(err, ErrPersonificationNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestActiveCharacterMapsPersonaFields(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	voice := "voice-xyz"
	created, err := svc.CreatePersonification(ctx, CreatePersonificationRequest{
		Name:         "Harvey",
		Content:      "You are Harvey.",
		ElevenLabsID: &voice,
	})
	if err != nil {
		t.Fatalf("CreatePersonification: %v", err)
	}
	if err := svc.SetActiveChoice(ctx, &created.ID); err != nil {
		t.Fatalf("SetActiveChoice: %v", err)
	}

	ch, err := svc.ActiveCharacter(ctx)
	if err != nil {
		t.Fatalf("ActiveCharacter: %v", err)
	}
	if ch == nil || ch.Name != "Harvey" || ch.Prompt != "You are Harvey." || ch.VoiceID != "voice-xyz" {
		t.Errorf("character = %+v", ch)
	}
}

func TestActiveCharacterNilWhenNoChoice(t *testing.T) {
	svc, _ := newTestService(t)
	ch, err := svc.ActiveCharacter(context.Background())
	if err != nil {
		t.Fatalf("ActiveCharacter: %v", err)
	}
	if ch != nil {
		t.Errorf("character = %+v, want nil", ch)
	}
}
