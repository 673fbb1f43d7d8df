package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matriforce/dispatch/core/audit"
	"github.com/matriforce/dispatch/core/model"
	"github.com/matriforce/dispatch/core/store"
)

func TestCaseStoreVersioning(t *testing.T) {
	s := NewCaseStore()
	ctx := context.Background()

	c, err := s.Create(ctx, model.Case{ID: "c1", ReporterID: "r1", State: model.StatePending})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Version != 1 {
		t.Fatalf("version %d", c.Version)
	}
	if _, err := s.Create(ctx, model.Case{ID: "c1"}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("duplicate create: %v", err)
	}

	// Two readers race: the second writer loses.
	a, _ := s.Get(ctx, "c1")
	b, _ := s.Get(ctx, "c1")
	a.State = model.StateCancelled
	if _, err := s.Update(ctx, a); err != nil {
		t.Fatalf("first update: %v", err)
	}
	b.State = model.StateAssigned
	if _, err := s.Update(ctx, b); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("stale update: %v", err)
	}

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("get missing: %v", err)
	}
	if _, err := s.Update(ctx, model.Case{ID: "missing", Version: 1}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("update missing: %v", err)
	}
}

func TestCaseStoreQueries(t *testing.T) {
	s := NewCaseStore()
	ctx := context.Background()
	mustCreate := func(c model.Case) model.Case {
		created, err := s.Create(ctx, c)
		if err != nil {
			t.Fatal(err)
		}
		return created
	}
	open := mustCreate(model.Case{ID: "c1", ReporterID: "r1", State: model.StatePending})
	closed := mustCreate(model.Case{ID: "c2", ReporterID: "r2", State: model.StatePending})
	closed.State = model.StateResolved
	if _, err := s.Update(ctx, closed); err != nil {
		t.Fatal(err)
	}

	got, ok, err := s.OpenByReporter(ctx, "r1")
	if err != nil || !ok || got.ID != open.ID {
		t.Fatalf("open by reporter: %v %v %+v", err, ok, got)
	}
	if _, ok, _ := s.OpenByReporter(ctx, "r2"); ok {
		t.Fatal("resolved case counted as open")
	}

	pending, err := s.Pending(ctx)
	if err != nil || len(pending) != 1 || pending[0].ID != "c1" {
		t.Fatalf("pending: %v %+v", err, pending)
	}
}

func TestCaseStoreOneOpenCasePerReporter(t *testing.T) {
	s := NewCaseStore()
	ctx := context.Background()

	open, err := s.Create(ctx, model.Case{ID: "c1", ReporterID: "r1", State: model.StatePending})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := s.Create(ctx, model.Case{ID: "c2", ReporterID: "r1", State: model.StatePending})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("second open case accepted: %v", err)
	}
	if got.ID != open.ID {
		t.Fatalf("existing case not returned: %+v", got)
	}

	// Once the open case closes the reporter may create a new one.
	open.State = model.StateResolved
	if _, err := s.Update(ctx, open); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Create(ctx, model.Case{ID: "c3", ReporterID: "r1", State: model.StatePending}); err != nil {
		t.Fatalf("create after resolve: %v", err)
	}
}

func TestRegistryStoreVersioning(t *testing.T) {
	s := NewRegistryStore()
	ctx := context.Background()

	r, err := s.Put(ctx, model.Responder{ID: "d1", Status: model.StatusOnline})
	if err != nil || r.Version != 1 {
		t.Fatalf("put: %v %d", err, r.Version)
	}
	stale := model.Responder{ID: "d1", Status: model.StatusOffline, Version: 0}
	if _, err := s.Put(ctx, stale); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("stale put: %v", err)
	}
	r.Status = model.StatusBusy
	r.AssignedCaseID = "c1"
	if _, err := s.Put(ctx, r); err != nil {
		t.Fatalf("fresh put: %v", err)
	}
	got, err := s.Get(ctx, "d1")
	if err != nil || got.Version != 2 || got.Status != model.StatusBusy {
		t.Fatalf("get: %v %+v", err, got)
	}
}

func TestAuditStoreBounded(t *testing.T) {
	s := NewAuditStore(3)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		err := s.Append(ctx, audit.Record{
			Timestamp: time.Now(),
			CaseID:    "c1",
			Tier:      i,
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	recent, err := s.Recent(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recent))
	}
	if recent[0].Tier != 4 || recent[2].Tier != 2 {
		t.Fatalf("wrong order/eviction: %+v", recent)
	}
}
