// Package memory keeps the document in process memory, for tests and
// throwaway local runs.
package memory

import (
	"context"
	"sync"

	"waterworks/internal/core"
	"waterworks/internal/store"
)

type Store struct {
	mu   sync.RWMutex
	data *core.AppData
}

func New() *Store {
	return &Store{data: store.Empty()}
}

// Seed replaces the held document, bypassing the port. Test helper.
func (s *Store) Seed(data *core.AppData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
}

func (s *Store) Load(ctx context.Context) (*core.AppData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return store.Clone(s.data)
}

func (s *Store) Save(ctx context.Context, data *core.AppData) error {
	copied, err := store.Clone(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = copied
	return nil
}
