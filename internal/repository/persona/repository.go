package persona

import (
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis"

	"github.com/personifai/personifai/internal/domains/persona"
)

const documentKey = "personifai:personifications"

// RedisPersonaRepo stores the persona document as a single JSON value.
type RedisPersonaRepo struct {
	rc *redis.Client
}

func NewRedisPersonaRepo(rc *redis.Client) persona.PersonaRepository {
	return &RedisPersonaRepo{rc: rc}
}

// Load implements persona.PersonaRepository. A missing key yields an
// empty document rather than an error.
func (r *RedisPersonaRepo) Load() (*persona.Document, error) {
	data, err := r.rc.Get(documentKey).Bytes()
	if err == redis.Nil {
		return &persona.Document{Personifications: []persona.Personification{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching persona document: %w", err)
	}
	var doc persona.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding persona document: %w", err)
	}
	if doc.Personifications == nil {
		doc.Personifications = []persona.Personification{}
	}
	return &doc, nil
}

// Save implements persona.PersonaRepository.
func (r *RedisPersonaRepo) Save(doc *persona.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding persona document: %w", err)
	}
	if err := r.rc.Set(documentKey, data, 0).Err(); err != nil {
		return fmt.Errorf("storing persona document: %w", err)
	}
	return nil
}
