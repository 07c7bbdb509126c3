// Package memslot provides an in-memory slot. Tests use it to run several
// stores against one shared slot, simulating multiple tabs on one origin.
package memslot

import (
	"sync"

	"github.com/joshrakosky/fmg-pick/internal/storage"
)

type Slot struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func New() *Slot {
	return &Slot{values: make(map[string][]byte)}
}

func (s *Slot) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (s *Slot) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = append([]byte(nil), value...)
	return nil
}

func (s *Slot) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

func (s *Slot) Close() error { return nil }
