// Package memstore provides in-memory implementations of the core store
// ports. It stands in for the externally managed document store and keeps
// the same contract: versioned compare-and-swap per record, no cross-record
// locking.
package memstore

import (
	"context"
	"sync"

	"github.com/matriforce/dispatch/core/model"
	"github.com/matriforce/dispatch/core/store"
)

// CaseStore is a versioned in-memory store.CaseStore.
type CaseStore struct {
	mu    sync.RWMutex
	cases map[string]model.Case
}

// NewCaseStore creates an empty CaseStore.
func NewCaseStore() *CaseStore {
	return &CaseStore{cases: make(map[string]model.Case)}
}

// Create stores a new case at version 1. If the reporter already holds an
// open case, that case is returned with store.ErrConflict so concurrent
// submissions collapse onto a single record.
func (s *CaseStore) Create(_ context.Context, c model.Case) (model.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[c.ID]; ok {
		return model.Case{}, store.ErrConflict
	}
	for _, cur := range s.cases {
		if cur.ReporterID == c.ReporterID && cur.Open() {
			return cur, store.ErrConflict
		}
	}
	c.Version = 1
	s.cases[c.ID] = c
	return c, nil
}

// Get returns the case by ID.
func (s *CaseStore) Get(_ context.Context, id string) (model.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[id]
	if !ok {
		return model.Case{}, store.ErrNotFound
	}
	return c, nil
}

// OpenByReporter returns the reporter's non-terminal case, if any.
func (s *CaseStore) OpenByReporter(_ context.Context, reporterID string) (model.Case, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.cases {
		if c.ReporterID == reporterID && c.Open() {
			return c, true, nil
		}
	}
	return model.Case{}, false, nil
}

// Pending lists all pending cases.
func (s *CaseStore) Pending(_ context.Context) ([]model.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Case
	for _, c := range s.cases {
		if c.State == model.StatePending {
			out = append(out, c)
		}
	}
	return out, nil
}

// Update commits the case if its version matches the stored record and bumps
// the version. A mismatch returns store.ErrConflict untouched.
func (s *CaseStore) Update(_ context.Context, c model.Case) (model.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.cases[c.ID]
	if !ok {
		return model.Case{}, store.ErrNotFound
	}
	if cur.Version != c.Version {
		return model.Case{}, store.ErrConflict
	}
	c.Version++
	s.cases[c.ID] = c
	return c, nil
}
