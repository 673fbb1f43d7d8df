// Package lifecycle owns the case state machine. Every state change flows
// through Manager.Transition, which serializes writers per case and commits
// through the store's compare-and-swap so concurrent attempts never clobber
// each other.
package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/matriforce/dispatch/core/events"
	"github.com/matriforce/dispatch/core/logger"
	"github.com/matriforce/dispatch/core/model"
	"github.com/matriforce/dispatch/core/notify"
	"github.com/matriforce/dispatch/core/store"
	"github.com/matriforce/dispatch/internal/eventbus"
)

// ErrInvalidTransition is returned when the requested target state is not
// reachable from the case's current state. The case is left unchanged.
var ErrInvalidTransition = errors.New("lifecycle: invalid transition")

// ResponderDirectory is the slice of the registry the manager needs to
// reserve and release responders around transitions.
type ResponderDirectory interface {
	MarkBusy(ctx context.Context, id, caseID string) error
	MarkAvailable(ctx context.Context, id string) error
}

// Manager enforces the case state machine and emits lifecycle events.
type Manager struct {
	cases     store.CaseStore
	directory ResponderDirectory
	bus       eventbus.EventBus
	publisher notify.Client
	log       logger.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager creates a lifecycle Manager. The publisher may be nil; events
// are then only emitted on the in-process bus.
func NewManager(cases store.CaseStore, dir ResponderDirectory, bus eventbus.EventBus, pub notify.Client, log logger.Logger) *Manager {
	return &Manager{
		cases:     cases,
		directory: dir,
		bus:       bus,
		publisher: pub,
		log:       log,
		locks:     make(map[string]*sync.Mutex),
	}
}

// caseLock returns the per-case mutex, creating it on first use. Holding it
// serializes commit+emit so subscribers observe events in commit order.
func (m *Manager) caseLock(id string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	return l
}

// Transition moves the case to the target state. For StateAssigned a
// responderID is required and the responder is reserved in the registry
// before the commit; if the commit then loses (the case was cancelled during
// the ack wait) the reservation is rolled back. Transitions from terminal
// states and any move not in the state machine fail with
// ErrInvalidTransition. A lost version race surfaces store.ErrConflict.
func (m *Manager) Transition(ctx context.Context, caseID string, target model.CaseState, responderID string) (model.Case, error) {
	lock := m.caseLock(caseID)
	lock.Lock()
	defer lock.Unlock()

	c, err := m.cases.Get(ctx, caseID)
	if err != nil {
		return model.Case{}, err
	}
	if !c.CanTransition(target) {
		return model.Case{}, fmt.Errorf("%s: %s -> %s: %w", caseID, c.State, target, ErrInvalidTransition)
	}

	from := c.State
	prevResponder := c.AssignedResponderID

	if target == model.StateAssigned {
		if responderID == "" {
			return model.Case{}, fmt.Errorf("%s: assignment without responder: %w", caseID, ErrInvalidTransition)
		}
		if err := m.directory.MarkBusy(ctx, responderID, caseID); err != nil {
			return model.Case{}, err
		}
		c.AssignedResponderID = responderID
	}
	if target.Terminal() {
		c.AssignedResponderID = ""
	}
	c.State = target

	committed, err := m.cases.Update(ctx, c)
	if err != nil {
		if target == model.StateAssigned {
			if rerr := m.directory.MarkAvailable(ctx, responderID); rerr != nil {
				m.log.Errorf("rollback of responder %s failed: %v", responderID, rerr)
			}
		}
		return model.Case{}, err
	}

	if target.Terminal() && prevResponder != "" {
		if err := m.directory.MarkAvailable(ctx, prevResponder); err != nil {
			m.log.Errorf("release of responder %s failed: %v", prevResponder, err)
		}
	}

	m.log.Infof("case %s: %s -> %s", caseID, from, target)
	m.emit(events.CaseTransitioned{
		CaseID:      caseID,
		From:        from,
		To:          target,
		ResponderID: committed.AssignedResponderID,
		At:          time.Now(),
	}, prevResponder)
	return committed, nil
}

// Cancel moves the case to cancelled from any non-terminal state. A cancel
// during an in-flight match attempt wins by committing first; the matcher's
// later accept then fails.
func (m *Manager) Cancel(ctx context.Context, caseID string) (model.Case, error) {
	return m.Transition(ctx, caseID, model.StateCancelled, "")
}

// SweepExpired expires pending cases older than maxPending and returns how
// many were expired.
func (m *Manager) SweepExpired(ctx context.Context, maxPending time.Duration) (int, error) {
	pending, err := m.cases.Pending(ctx)
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-maxPending)
	n := 0
	for _, c := range pending {
		if c.CreatedAt.After(cutoff) {
			continue
		}
		if _, err := m.Transition(ctx, c.ID, model.StateExpired, ""); err != nil {
			// A concurrent transition already moved the case on.
			if errors.Is(err, ErrInvalidTransition) || errors.Is(err, store.ErrConflict) {
				continue
			}
			return n, err
		}
		n++
	}
	return n, nil
}

func (m *Manager) emit(ev events.CaseTransitioned, prevResponder string) {
	if m.bus != nil {
		m.bus.Publish(ev)
	}
	if m.publisher == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		m.log.Errorf("encode transition event: %v", err)
		return
	}
	responder := ev.ResponderID
	if responder == "" {
		responder = prevResponder
	}
	if err := m.publisher.PublishCaseEvent(ev.CaseID, responder, payload); err != nil {
		m.log.Errorf("publish transition event: %v", err)
	}
}
