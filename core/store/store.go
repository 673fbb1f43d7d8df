// Package store defines the persistence ports of the dispatch core. The
// backing store is provided externally; implementations must offer per-record
// compare-and-swap semantics so that read-modify-write cycles on a case or
// responder never silently overwrite a concurrent update.
package store

import (
	"context"
	"errors"

	"github.com/matriforce/dispatch/core/model"
)

// ErrNotFound is returned when the requested record does not exist.
var ErrNotFound = errors.New("store: record not found")

// ErrConflict is returned when a write carries a stale version. The caller
// must reread and retry.
var ErrConflict = errors.New("store: version conflict")

// CaseStore persists distress cases. Update rejects writes whose Version does
// not match the stored record.
type CaseStore interface {
	// Create persists a new case. Implementations enforce one open case
	// per reporter: when the reporter already holds one, that case is
	// returned together with ErrConflict.
	Create(ctx context.Context, c model.Case) (model.Case, error)
	Get(ctx context.Context, id string) (model.Case, error)
	// OpenByReporter returns the reporter's non-terminal case, if any.
	OpenByReporter(ctx context.Context, reporterID string) (model.Case, bool, error)
	// Pending lists all cases currently in the pending state.
	Pending(ctx context.Context) ([]model.Case, error)
	Update(ctx context.Context, c model.Case) (model.Case, error)
}

// RegistryStore persists responder status records with the same versioning
// discipline.
type RegistryStore interface {
	Get(ctx context.Context, id string) (model.Responder, error)
	List(ctx context.Context) ([]model.Responder, error)
	// Put creates or replaces a responder record. For existing records the
	// Version must match.
	Put(ctx context.Context, r model.Responder) (model.Responder, error)
}
