// Package registry tracks responder availability and last-known location.
// Identity and profile data are owned by the external profile service; only
// the live status slice is mirrored here.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/matriforce/dispatch/core/logger"
	"github.com/matriforce/dispatch/core/model"
	"github.com/matriforce/dispatch/core/store"
)

// ErrNotOnline is returned when a responder cannot accept an assignment.
var ErrNotOnline = errors.New("registry: responder not online")

// casRetries bounds the reread-and-retry loop on version conflicts.
const casRetries = 3

// DefaultTiers is the widening radius sequence in kilometers. The last tier
// is the city-wide bound.
var DefaultTiers = []float64{3, 8, 25}

// Registry exposes the responder directory operations used by intake and the
// matcher.
type Registry struct {
	store store.RegistryStore
	tiers []float64
	log   logger.Logger
}

// New creates a Registry backed by the given store. If tiers is empty,
// DefaultTiers is used.
func New(s store.RegistryStore, tiers []float64, log logger.Logger) *Registry {
	if len(tiers) == 0 {
		tiers = DefaultTiers
	}
	return &Registry{store: s, tiers: tiers, log: log}
}

// Tiers returns the widening radius sequence.
func (r *Registry) Tiers() []float64 { return r.tiers }

// UpsertStatus records the most recent status and location for a responder.
// Updates whose location was captured earlier than the stored one are
// dropped, so out-of-order deliveries never regress the record.
func (r *Registry) UpsertStatus(ctx context.Context, id string, kind model.ResponderKind, status model.ResponderStatus, loc model.Location) error {
	// Busy is only entered through MarkBusy, which records the assigned
	// case. A self-reported busy carries no case, so it is stored as
	// online; the guard below restores busy for a responder that holds one.
	if status == model.StatusBusy {
		status = model.StatusOnline
	}
	for i := 0; i < casRetries; i++ {
		st := status
		cur, err := r.store.Get(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			_, err = r.store.Put(ctx, model.Responder{ID: id, Kind: kind, Status: st, Location: loc})
			if errors.Is(err, store.ErrConflict) {
				continue
			}
			return err
		}
		if err != nil {
			return err
		}
		if loc.CapturedAt.Before(cur.Location.CapturedAt) {
			r.log.Debugf("stale update for %s dropped (%s < %s)", id, loc.CapturedAt, cur.Location.CapturedAt)
			return nil
		}
		// A busy responder keeps its assignment; only location and the
		// offline flag may change underneath it.
		if cur.Status == model.StatusBusy && st == model.StatusOnline {
			st = model.StatusBusy
		}
		cur.Kind = kind
		cur.Location = loc
		cur.Status = st
		if st != model.StatusBusy {
			cur.AssignedCaseID = ""
		}
		if _, err = r.store.Put(ctx, cur); !errors.Is(err, store.ErrConflict) {
			return err
		}
	}
	return store.ErrConflict
}

// Candidate pairs a responder with its distance from a case location.
type Candidate struct {
	Responder  model.Responder
	DistanceKm float64
}

// Candidates returns online responders of the given kind within radiusKm,
// ordered by ascending distance. Equal distances break by earliest location
// capture time, then by responder ID.
func (r *Registry) Candidates(ctx context.Context, loc model.Location, kind model.ResponderKind, radiusKm float64) ([]Candidate, error) {
	all, err := r.store.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []Candidate
	for _, resp := range all {
		if resp.Status != model.StatusOnline || resp.Kind != kind {
			continue
		}
		d := loc.DistanceKm(resp.Location)
		if d > radiusKm {
			continue
		}
		out = append(out, Candidate{Responder: resp, DistanceKm: d})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DistanceKm != out[j].DistanceKm {
			return out[i].DistanceKm < out[j].DistanceKm
		}
		ti, tj := out[i].Responder.Location.CapturedAt, out[j].Responder.Location.CapturedAt
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return out[i].Responder.ID < out[j].Responder.ID
	})
	return out, nil
}

// MarkBusy assigns the case to the responder. It fails with ErrNotOnline if
// the responder is not currently online.
func (r *Registry) MarkBusy(ctx context.Context, id, caseID string) error {
	for i := 0; i < casRetries; i++ {
		cur, err := r.store.Get(ctx, id)
		if err != nil {
			return err
		}
		if cur.Status != model.StatusOnline {
			return fmt.Errorf("responder %s is %s: %w", id, cur.Status, ErrNotOnline)
		}
		cur.Status = model.StatusBusy
		cur.AssignedCaseID = caseID
		if _, err = r.store.Put(ctx, cur); !errors.Is(err, store.ErrConflict) {
			return err
		}
	}
	return store.ErrConflict
}

// MarkAvailable clears the responder's assignment and returns it to the
// online pool. Unknown responders are ignored.
func (r *Registry) MarkAvailable(ctx context.Context, id string) error {
	for i := 0; i < casRetries; i++ {
		cur, err := r.store.Get(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		cur.Status = model.StatusOnline
		cur.AssignedCaseID = ""
		if _, err = r.store.Put(ctx, cur); !errors.Is(err, store.ErrConflict) {
			return err
		}
	}
	return store.ErrConflict
}

// List returns every responder record currently mirrored.
func (r *Registry) List(ctx context.Context) ([]model.Responder, error) {
	return r.store.List(ctx)
}
