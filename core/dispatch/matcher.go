// Package dispatch matches pending cases to responders. A match round walks
// the widening radius tiers, proposes the case to the nearest untried
// responder, waits a bounded window for an acknowledgment and commits the
// assignment through the lifecycle manager. Rounds for distinct cases run
// concurrently; a case never has more than one round in flight.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/matriforce/dispatch/core/audit"
	"github.com/matriforce/dispatch/core/events"
	"github.com/matriforce/dispatch/core/lifecycle"
	"github.com/matriforce/dispatch/core/logger"
	"github.com/matriforce/dispatch/core/model"
	"github.com/matriforce/dispatch/core/notify"
	"github.com/matriforce/dispatch/core/registry"
	"github.com/matriforce/dispatch/core/store"
	"github.com/matriforce/dispatch/internal/eventbus"
)

// Outcome summarizes one match round.
type Outcome int

const (
	// OutcomeMatched means a responder acknowledged and the assignment
	// committed.
	OutcomeMatched Outcome = iota
	// OutcomeExhausted means every candidate and tier was tried without an
	// acknowledgment; the case stays pending for escalation and rematch.
	OutcomeExhausted
	// OutcomeAborted means the case left the pending state while the round
	// was running.
	OutcomeAborted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMatched:
		return "matched"
	case OutcomeExhausted:
		return "exhausted"
	case OutcomeAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Result reports what a match round did.
type Result struct {
	Outcome     Outcome
	ResponderID string
	Attempts    int
}

// Matcher runs match rounds for pending cases.
type Matcher struct {
	registry  *registry.Registry
	lifecycle *lifecycle.Manager
	cases     store.CaseStore
	notifier  notify.Client
	bus       eventbus.EventBus
	log       logger.Logger
	trail     audit.Store
	tuner     *AckWindowTuner

	attemptsPerTier int
	tiers           []float64
	rematchEvery    time.Duration

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewMatcher creates a Matcher. The audit store may be nil.
func NewMatcher(reg *registry.Registry, lm *lifecycle.Manager, cases store.CaseStore, notifier notify.Client, bus eventbus.EventBus, trail audit.Store, cfg Config, log logger.Logger) (*Matcher, error) {
	if reg == nil || lm == nil || cases == nil || notifier == nil {
		return nil, fmt.Errorf("dispatch: nil parameter provided to NewMatcher")
	}
	cfg.SetDefaults()
	tuner := NewAckWindowTuner(
		time.Duration(cfg.AckWindowSeconds)*time.Second,
		time.Duration(cfg.AckWindowMinSeconds)*time.Second,
		time.Duration(cfg.AckWindowMaxSeconds)*time.Second,
	)
	return &Matcher{
		registry:        reg,
		lifecycle:       lm,
		cases:           cases,
		notifier:        notifier,
		bus:             bus,
		log:             log,
		trail:           trail,
		tuner:           tuner,
		attemptsPerTier: cfg.AttemptsPerTier,
		tiers:           cfg.RadiusTiersKm,
		rematchEvery:    time.Duration(cfg.RematchIntervalSeconds) * time.Second,
		inFlight:        make(map[string]bool),
	}, nil
}

// Run consumes CaseCreated events from the subscription and periodically
// rematches cases still pending, until the context is canceled.
func (m *Matcher) Run(ctx context.Context, sub <-chan eventbus.Event) {
	ticker := time.NewTicker(m.rematchEvery)
	defer ticker.Stop()
	for {
		select {
		case ev, ok := <-sub:
			if !ok {
				return
			}
			if created, isCreated := ev.(events.CaseCreated); isCreated {
				go m.Match(ctx, created.Case)
			}
		case <-ticker.C:
			pending, err := m.cases.Pending(ctx)
			if err != nil {
				m.log.Errorf("rematch scan: %v", err)
				continue
			}
			for _, c := range pending {
				go m.Match(ctx, c)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Match runs one match round for the case. A second call while a round for
// the same case is in flight returns immediately with OutcomeAborted.
func (m *Matcher) Match(ctx context.Context, c model.Case) Result {
	m.mu.Lock()
	if m.inFlight[c.ID] {
		m.mu.Unlock()
		return Result{Outcome: OutcomeAborted}
	}
	m.inFlight[c.ID] = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		delete(m.inFlight, c.ID)
		m.mu.Unlock()
	}()

	res := m.matchRound(ctx, c)
	matchOutcomes.WithLabelValues(res.Outcome.String()).Inc()
	switch res.Outcome {
	case OutcomeMatched:
		m.log.Infof("case %s matched to %s after %d attempts", c.ID, res.ResponderID, res.Attempts)
		if m.bus != nil {
			m.bus.Publish(events.MatchCompleted{CaseID: c.ID, ResponderID: res.ResponderID, Attempts: res.Attempts})
		}
	case OutcomeExhausted:
		m.log.Warnf("case %s: no responder after %d attempts, escalating", c.ID, res.Attempts)
		if m.bus != nil {
			m.bus.Publish(events.MatchExhausted{CaseID: c.ID, Attempts: res.Attempts})
		}
	}
	return res
}

func (m *Matcher) matchRound(ctx context.Context, c model.Case) Result {
	tried := make(map[string]bool)
	attempts := 0
	acked := 0

	for tier, radius := range m.tiers {
		tierAttempts := 0
		for tierAttempts < m.attemptsPerTier {
			// A cancel or concurrent assignment invalidates the round.
			cur, err := m.cases.Get(ctx, c.ID)
			if err != nil || cur.State != model.StatePending {
				return Result{Outcome: OutcomeAborted, Attempts: attempts}
			}

			cand, ok, err := m.nextCandidate(ctx, c, radius, tried)
			if err != nil {
				m.log.Errorf("candidate query for %s: %v", c.ID, err)
				return Result{Outcome: OutcomeAborted, Attempts: attempts}
			}
			if !ok {
				break
			}
			tried[cand.Responder.ID] = true
			attempts++
			tierAttempts++

			ack, latency, err := m.propose(c, cand)
			m.record(ctx, c, cand, tier, ack, err, latency)
			if ack {
				acked++
				switch _, cerr := m.lifecycle.Transition(ctx, c.ID, model.StateAssigned, cand.Responder.ID); {
				case cerr == nil:
					m.updateAckRate(acked, attempts)
					return Result{Outcome: OutcomeMatched, ResponderID: cand.Responder.ID, Attempts: attempts}
				case errors.Is(cerr, lifecycle.ErrInvalidTransition), errors.Is(cerr, store.ErrConflict):
					// The case moved on during the ack wait.
					m.updateAckRate(acked, attempts)
					return Result{Outcome: OutcomeAborted, Attempts: attempts}
				case errors.Is(cerr, registry.ErrNotOnline):
					// Responder acked but went offline or got reassigned.
					continue
				default:
					m.log.Errorf("commit assignment for %s: %v", c.ID, cerr)
					return Result{Outcome: OutcomeAborted, Attempts: attempts}
				}
			}
		}
	}
	m.updateAckRate(acked, attempts)
	return Result{Outcome: OutcomeExhausted, Attempts: attempts}
}

// nextCandidate returns the nearest untried candidate within radius.
func (m *Matcher) nextCandidate(ctx context.Context, c model.Case, radius float64, tried map[string]bool) (registry.Candidate, bool, error) {
	cands, err := m.registry.Candidates(ctx, c.Location, model.KindDriver, radius)
	if err != nil {
		return registry.Candidate{}, false, err
	}
	for _, cand := range cands {
		if !tried[cand.Responder.ID] {
			return cand, true, nil
		}
	}
	return registry.Candidate{}, false, nil
}

// propose sends the offer and waits for the acknowledgment while measuring
// the latency.
func (m *Matcher) propose(c model.Case, cand registry.Candidate) (bool, time.Duration, error) {
	start := time.Now()
	cmdID, err := m.notifier.ProposeAssignment(cand.Responder.ID, c.ID, c.Location.Latitude, c.Location.Longitude)
	if err != nil {
		proposalFailure.Inc()
		return false, time.Since(start), err
	}
	proposalSuccess.Inc()
	ack, err := m.notifier.WaitForAck(cmdID, m.tuner.Window())
	latency := time.Since(start)
	if ack && err == nil {
		m.tuner.Observe(latency)
	}
	return ack && err == nil, latency, err
}

func (m *Matcher) record(ctx context.Context, c model.Case, cand registry.Candidate, tier int, ack bool, err error, latency time.Duration) {
	label := strconv.Itoa(tier)
	matchAttempts.WithLabelValues(label).Inc()
	matchLatency.WithLabelValues(label).Observe(latency.Seconds())
	if m.bus != nil {
		m.bus.Publish(events.MatchAttempt{
			CaseID:       c.ID,
			ResponderID:  cand.Responder.ID,
			Tier:         tier,
			Acknowledged: ack,
			Err:          err,
			Latency:      latency,
		})
	}
	if m.trail == nil {
		return
	}
	rec := audit.Record{
		Timestamp:    time.Now(),
		CaseID:       c.ID,
		ResponderID:  cand.Responder.ID,
		Tier:         tier,
		DistanceKm:   cand.DistanceKm,
		Acknowledged: ack,
		Latency:      latency,
	}
	if err != nil {
		rec.Error = err.Error()
	}
	if aerr := m.trail.Append(ctx, rec); aerr != nil {
		m.log.Errorf("audit append: %v", aerr)
	}
}

func (m *Matcher) updateAckRate(acked, attempts int) {
	if attempts > 0 {
		ackRate.Set(float64(acked) / float64(attempts))
	}
}
