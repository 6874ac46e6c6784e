// Package settings provides theatre.SettingsStore implementations.
package settings

import (
	"context"
	"sync"

	"github.com/tendant/simple-theatre/pkg/theatre"
)

// MemoryStore keeps settings in process memory
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewMemoryStore creates an empty store, optionally pre-filled with initial
func NewMemoryStore(initial map[string]any) *MemoryStore {
	s := &MemoryStore{values: make(map[string]any, len(initial))}
	for k, v := range initial {
		s.values[k] = v
	}
	return s
}

func (s *MemoryStore) Get(ctx context.Context, key string, def any) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return def, nil
	}
	return v, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return nil
}

var _ theatre.SettingsStore = (*MemoryStore)(nil)
