package speaker

import (
	"encoding/json"
	"fmt"
	"os"
)

// ProfileStore persists the single enrolled voice embedding as a JSON
// vector file. At most one profile exists at a time; enrolling again
// overwrites it, deleting removes the file.
type ProfileStore struct {
	path string
}

func NewProfileStore(path string) *ProfileStore {
	return &ProfileStore{path: path}
}

func (s *ProfileStore) Save(emb Embedding) error {
	data, err := json.Marshal(emb)
	if err != nil {
		return fmt.Errorf("failed to encode voice profile: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write voice profile: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to commit voice profile: %w", err)
	}
	return nil
}

func (s *ProfileStore) Load() (Embedding, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	var emb Embedding
	if err := json.Unmarshal(data, &emb); err != nil {
		return nil, fmt.Errorf("failed to decode voice profile: %w", err)
	}
	return emb, nil
}

func (s *ProfileStore) Delete() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete voice profile: %w", err)
	}
	return nil
}

func (s *ProfileStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}
