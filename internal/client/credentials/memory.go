package credentials

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/dmitrijs2005/healthup/internal/client/models"
)

// MemoryStore holds the encoded record in memory. It is used by tests and
// by the CLI when no database path is configured.
type MemoryStore struct {
	mu    sync.RWMutex
	value []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.value == nil {
		return nil, nil
	}
	return decode(s.value)
}

func (s *MemoryStore) Save(_ context.Context, u *models.User) error {
	if u == nil {
		s.mu.Lock()
		s.value = nil
		s.mu.Unlock()
		return nil
	}
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.value = b
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.value = nil
	s.mu.Unlock()
	return nil
}

// SetRaw stores b verbatim. Tests use it to plant corrupt records.
func (s *MemoryStore) SetRaw(b []byte) {
	s.mu.Lock()
	s.value = append([]byte(nil), b...)
	s.mu.Unlock()
}
