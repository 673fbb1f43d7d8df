package memstore

import (
	"context"
	"sync"

	"github.com/matriforce/dispatch/core/model"
	"github.com/matriforce/dispatch/core/store"
)

// RegistryStore is a versioned in-memory store.RegistryStore.
type RegistryStore struct {
	mu         sync.RWMutex
	responders map[string]model.Responder
}

// NewRegistryStore creates an empty RegistryStore.
func NewRegistryStore() *RegistryStore {
	return &RegistryStore{responders: make(map[string]model.Responder)}
}

// Get returns the responder by ID.
func (s *RegistryStore) Get(_ context.Context, id string) (model.Responder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.responders[id]
	if !ok {
		return model.Responder{}, store.ErrNotFound
	}
	return r, nil
}

// List returns every stored responder.
func (s *RegistryStore) List(_ context.Context) ([]model.Responder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Responder, 0, len(s.responders))
	for _, r := range s.responders {
		out = append(out, r)
	}
	return out, nil
}

// Put creates the record at version 1 or replaces it when the version
// matches, bumping the version.
func (s *RegistryStore) Put(_ context.Context, r model.Responder) (model.Responder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.responders[r.ID]
	if !ok {
		if r.Version != 0 {
			return model.Responder{}, store.ErrConflict
		}
		r.Version = 1
		s.responders[r.ID] = r
		return r, nil
	}
	if cur.Version != r.Version {
		return model.Responder{}, store.ErrConflict
	}
	r.Version++
	s.responders[r.ID] = r
	return r, nil
}
