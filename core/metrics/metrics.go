package metrics

import (
	"time"

	"github.com/matriforce/dispatch/core/model"
)

// MatchResult summarizes one finished match round for a case.
type MatchResult struct {
	CaseID      string
	ResponderID string
	Outcome     string
	Attempts    int
	Tier        int
	DistanceKm  float64
	MatchTime   time.Time
}

// MetricsSink records match results for observability purposes.
type MetricsSink interface {
	RecordMatchResult(results []MatchResult) error
}

// ProposalAckEvent records the outcome of a single assignment proposal.
type ProposalAckEvent struct {
	CaseID       string
	ResponderID  string
	Tier         int
	Acknowledged bool
	Latency      time.Duration
	Error        string
	Time         time.Time
}

// ProposalAckRecorder is implemented by sinks able to record proposal acks.
type ProposalAckRecorder interface {
	RecordProposalAck(ev ProposalAckEvent) error
}

// CaseTransitionEvent is a snapshot of a case changing state.
type CaseTransitionEvent struct {
	CaseID      string
	From        model.CaseState
	To          model.CaseState
	ResponderID string
	Time        time.Time
}

// CaseTransitionRecorder records case state transitions.
type CaseTransitionRecorder interface {
	RecordCaseTransition(ev CaseTransitionEvent) error
}

// FallbackEvent records an offline payload that was rejected at the gateway.
type FallbackEvent struct {
	Payload string
	Error   string
	Time    time.Time
}

// FallbackRecorder records rejected fallback payloads.
type FallbackRecorder interface {
	RecordFallback(ev FallbackEvent) error
}

// ResponderPoolEvent captures the size of the online responder pool.
type ResponderPoolEvent struct {
	Online int
	Busy   int
	Time   time.Time
}

// ResponderPoolRecorder records responder pool snapshots.
type ResponderPoolRecorder interface {
	RecordResponderPool(ev ResponderPoolEvent) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordMatchResult([]MatchResult) error { return nil }

func (NopSink) RecordProposalAck(ProposalAckEvent) error       { return nil }
func (NopSink) RecordCaseTransition(CaseTransitionEvent) error { return nil }
func (NopSink) RecordFallback(FallbackEvent) error             { return nil }
func (NopSink) RecordResponderPool(ResponderPoolEvent) error   { return nil }

// MultiSink fans out records to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordMatchResult forwards the results to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordMatchResult(res []MatchResult) error {
	for _, s := range m.Sinks {
		if err := s.RecordMatchResult(res); err != nil {
			return err
		}
	}
	return nil
}

// RecordProposalAck forwards proposal ack events.
func (m *MultiSink) RecordProposalAck(ev ProposalAckEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(ProposalAckRecorder); ok {
			if err := rec.RecordProposalAck(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordCaseTransition forwards case transitions.
func (m *MultiSink) RecordCaseTransition(ev CaseTransitionEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(CaseTransitionRecorder); ok {
			if err := rec.RecordCaseTransition(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordFallback forwards rejected payload events.
func (m *MultiSink) RecordFallback(ev FallbackEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(FallbackRecorder); ok {
			if err := rec.RecordFallback(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordResponderPool forwards pool snapshots.
func (m *MultiSink) RecordResponderPool(ev ResponderPoolEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(ResponderPoolRecorder); ok {
			if err := rec.RecordResponderPool(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
