package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matriforce/dispatch/core/model"
	"github.com/matriforce/dispatch/infra/logger"
	"github.com/matriforce/dispatch/infra/memstore"
)

func newTestRegistry() *Registry {
	return New(memstore.NewRegistryStore(), nil, logger.NopLogger{})
}

func loc(lat, lon float64, at time.Time) model.Location {
	return model.Location{Latitude: lat, Longitude: lon, CapturedAt: at}
}

func TestUpsertStatusStaleWriteDropped(t *testing.T) {
	reg := newTestRegistry()
	ctx := context.Background()
	now := time.Now()

	fresh := loc(23.75, 90.38, now)
	if err := reg.UpsertStatus(ctx, "d1", model.KindDriver, model.StatusOnline, fresh); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	stale := loc(23.0, 90.0, now.Add(-time.Minute))
	if err := reg.UpsertStatus(ctx, "d1", model.KindDriver, model.StatusOffline, stale); err != nil {
		t.Fatalf("stale upsert: %v", err)
	}
	rs, err := reg.List(ctx)
	if err != nil || len(rs) != 1 {
		t.Fatalf("list: %v %d", err, len(rs))
	}
	if rs[0].Status != model.StatusOnline || rs[0].Location.Latitude != 23.75 {
		t.Fatalf("stale write applied: %+v", rs[0])
	}
}

func TestCandidatesOrderingAndTieBreak(t *testing.T) {
	reg := newTestRegistry()
	ctx := context.Background()
	now := time.Now()
	base := loc(23.7461, 90.3742, now)

	// d2 nearest, d1 and d3 at the same spot with different capture times.
	if err := reg.UpsertStatus(ctx, "d1", model.KindDriver, model.StatusOnline, loc(23.76, 90.39, now)); err != nil {
		t.Fatal(err)
	}
	if err := reg.UpsertStatus(ctx, "d2", model.KindDriver, model.StatusOnline, loc(23.7500, 90.3800, now)); err != nil {
		t.Fatal(err)
	}
	if err := reg.UpsertStatus(ctx, "d3", model.KindDriver, model.StatusOnline, loc(23.76, 90.39, now.Add(-time.Minute))); err != nil {
		t.Fatal(err)
	}
	// A doctor and an offline driver must not appear.
	if err := reg.UpsertStatus(ctx, "doc1", model.KindDoctor, model.StatusOnline, loc(23.7500, 90.3800, now)); err != nil {
		t.Fatal(err)
	}
	if err := reg.UpsertStatus(ctx, "d4", model.KindDriver, model.StatusOffline, loc(23.7500, 90.3800, now)); err != nil {
		t.Fatal(err)
	}

	cands, err := reg.Candidates(ctx, base, model.KindDriver, 3)
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(cands) != 3 {
		t.Fatalf("expected 3 candidates got %d", len(cands))
	}
	if cands[0].Responder.ID != "d2" {
		t.Errorf("nearest should be d2, got %s", cands[0].Responder.ID)
	}
	// Equal distance: earlier capture time wins.
	if cands[1].Responder.ID != "d3" || cands[2].Responder.ID != "d1" {
		t.Errorf("tie-break wrong: %s, %s", cands[1].Responder.ID, cands[2].Responder.ID)
	}
}

func TestCandidatesEmptyOutsideRadius(t *testing.T) {
	reg := newTestRegistry()
	ctx := context.Background()
	now := time.Now()
	// ~10 km away from the query point.
	if err := reg.UpsertStatus(ctx, "far", model.KindDriver, model.StatusOnline, loc(23.84, 90.37, now)); err != nil {
		t.Fatal(err)
	}
	cands, err := reg.Candidates(ctx, loc(23.7461, 90.3742, now), model.KindDriver, 3)
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	if len(cands) != 0 {
		t.Fatalf("expected none within 3km, got %d", len(cands))
	}
	cands, err = reg.Candidates(ctx, loc(23.7461, 90.3742, now), model.KindDriver, 25)
	if err != nil || len(cands) != 1 {
		t.Fatalf("expected 1 within city tier, got %d (%v)", len(cands), err)
	}
}

func TestMarkBusyAndAvailable(t *testing.T) {
	reg := newTestRegistry()
	ctx := context.Background()
	now := time.Now()
	if err := reg.UpsertStatus(ctx, "d1", model.KindDriver, model.StatusOnline, loc(23.75, 90.38, now)); err != nil {
		t.Fatal(err)
	}
	if err := reg.MarkBusy(ctx, "d1", "case-1"); err != nil {
		t.Fatalf("mark busy: %v", err)
	}
	if err := reg.MarkBusy(ctx, "d1", "case-2"); !errors.Is(err, ErrNotOnline) {
		t.Fatalf("expected ErrNotOnline, got %v", err)
	}
	rs, _ := reg.List(ctx)
	if rs[0].Status != model.StatusBusy || rs[0].AssignedCaseID != "case-1" {
		t.Fatalf("busy invariant broken: %+v", rs[0])
	}
	if err := rs[0].Validate(); err != nil {
		t.Fatalf("invariant: %v", err)
	}

	if err := reg.MarkAvailable(ctx, "d1"); err != nil {
		t.Fatalf("mark available: %v", err)
	}
	rs, _ = reg.List(ctx)
	if rs[0].Status != model.StatusOnline || rs[0].AssignedCaseID != "" {
		t.Fatalf("release failed: %+v", rs[0])
	}
}

func TestSelfReportedBusyStoredAsOnline(t *testing.T) {
	reg := newTestRegistry()
	ctx := context.Background()
	now := time.Now()

	// A busy report for an unknown responder must not create a record
	// with no assigned case.
	if err := reg.UpsertStatus(ctx, "d1", model.KindDriver, model.StatusBusy, loc(23.75, 90.38, now)); err != nil {
		t.Fatal(err)
	}
	rs, _ := reg.List(ctx)
	if rs[0].Status != model.StatusOnline || rs[0].AssignedCaseID != "" {
		t.Fatalf("unassigned busy report stored: %+v", rs[0])
	}
	if err := rs[0].Validate(); err != nil {
		t.Fatalf("invariant: %v", err)
	}
	// Same report against the existing online record.
	if err := reg.UpsertStatus(ctx, "d1", model.KindDriver, model.StatusBusy, loc(23.76, 90.39, now.Add(time.Second))); err != nil {
		t.Fatal(err)
	}
	rs, _ = reg.List(ctx)
	if rs[0].Status != model.StatusOnline || rs[0].AssignedCaseID != "" {
		t.Fatalf("unassigned busy report applied: %+v", rs[0])
	}
	// A responder that actually holds a case stays busy through the report.
	if err := reg.MarkBusy(ctx, "d1", "case-1"); err != nil {
		t.Fatal(err)
	}
	if err := reg.UpsertStatus(ctx, "d1", model.KindDriver, model.StatusBusy, loc(23.77, 90.40, now.Add(2*time.Second))); err != nil {
		t.Fatal(err)
	}
	rs, _ = reg.List(ctx)
	if rs[0].Status != model.StatusBusy || rs[0].AssignedCaseID != "case-1" {
		t.Fatalf("assignment lost on busy report: %+v", rs[0])
	}
}

func TestBusyResponderKeepsAssignmentOnLocationUpdate(t *testing.T) {
	reg := newTestRegistry()
	ctx := context.Background()
	now := time.Now()
	if err := reg.UpsertStatus(ctx, "d1", model.KindDriver, model.StatusOnline, loc(23.75, 90.38, now)); err != nil {
		t.Fatal(err)
	}
	if err := reg.MarkBusy(ctx, "d1", "case-1"); err != nil {
		t.Fatal(err)
	}
	if err := reg.UpsertStatus(ctx, "d1", model.KindDriver, model.StatusOnline, loc(23.76, 90.39, now.Add(time.Second))); err != nil {
		t.Fatal(err)
	}
	rs, _ := reg.List(ctx)
	if rs[0].Status != model.StatusBusy || rs[0].AssignedCaseID != "case-1" {
		t.Fatalf("assignment lost on location update: %+v", rs[0])
	}
	if rs[0].Location.Latitude != 23.76 {
		t.Fatalf("location not updated: %+v", rs[0])
	}
}
