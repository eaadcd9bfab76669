// Package inmem provides in-memory store implementations for tests and local dev.
package inmem

import (
	"context"
	"sync"

	"github.com/iesahq/portal/core/session"
)

type PrefStore struct {
	mu    sync.RWMutex
	prefs map[string]string
}

var _ session.Store = (*PrefStore)(nil)

func NewPrefStore() *PrefStore {
	return &PrefStore{prefs: make(map[string]string)}
}

func (s *PrefStore) Get(_ context.Context, key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.prefs[key]
	return value, ok
}

func (s *PrefStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs[key] = value
	return nil
}
