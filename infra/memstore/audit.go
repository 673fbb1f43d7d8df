package memstore

import (
	"context"
	"sync"

	"github.com/matriforce/dispatch/core/audit"
)

// AuditStore is a bounded in-memory audit.Store keeping the most recent
// records.
type AuditStore struct {
	mu      sync.Mutex
	records []audit.Record
	limit   int
}

// NewAuditStore creates an AuditStore holding at most limit records. A
// non-positive limit defaults to 1024.
func NewAuditStore(limit int) *AuditStore {
	if limit <= 0 {
		limit = 1024
	}
	return &AuditStore{limit: limit}
}

// Append stores the record, evicting the oldest when full.
func (s *AuditStore) Append(_ context.Context, r audit.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
	if len(s.records) > s.limit {
		s.records = s.records[len(s.records)-s.limit:]
	}
	return nil
}

// Recent returns up to n records, newest first.
func (s *AuditStore) Recent(_ context.Context, n int) ([]audit.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 || n > len(s.records) {
		n = len(s.records)
	}
	out := make([]audit.Record, 0, n)
	for i := len(s.records) - 1; i >= len(s.records)-n; i-- {
		out = append(out, s.records[i])
	}
	return out, nil
}

// Close implements audit.Store.
func (s *AuditStore) Close() error { return nil }
