package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Store persists the conversation log as a JSON array of single-key
// turn objects. Every save rewrites the whole file through a temp-file
// rename, so an external reader never observes a torn log.
type Store struct {
	mu   sync.Mutex
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Save(records []TurnRecord) error {
	if records == nil {
		records = []TurnRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode transcript log: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write transcript log: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to commit transcript log: %w", err)
	}
	return nil
}

func (s *Store) Load() ([]TurnRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []TurnRecord{}, nil
		}
		return nil, fmt.Errorf("failed to read transcript log: %w", err)
	}
	var records []TurnRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode transcript log: %w", err)
	}
	return records, nil
}
