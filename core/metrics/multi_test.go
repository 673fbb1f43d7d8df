package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	results []MatchResult
	acks    []ProposalAckEvent
}

func (r *recordingSink) RecordMatchResult(res []MatchResult) error {
	r.results = append(r.results, res...)
	return nil
}

func (r *recordingSink) RecordProposalAck(ev ProposalAckEvent) error {
	r.acks = append(r.acks, ev)
	return nil
}

func TestMultiSinkFanout(t *testing.T) {
	s1 := &recordingSink{}
	s2 := &recordingSink{}
	m := NewMultiSink(s1, s2, NopSink{})

	res := []MatchResult{{CaseID: "c1", ResponderID: "r1", Outcome: "matched", MatchTime: time.Now()}}
	require.NoError(t, m.RecordMatchResult(res))
	require.Len(t, s1.results, 1)
	require.Len(t, s2.results, 1)

	require.NoError(t, m.RecordProposalAck(ProposalAckEvent{CaseID: "c1", ResponderID: "r1", Acknowledged: true}))
	require.Len(t, s1.acks, 1)
	require.Len(t, s2.acks, 1)
}

func TestNewMetricsSinkEmptyConfig(t *testing.T) {
	s, err := NewMetricsSink(nil)
	require.NoError(t, err)
	require.IsType(t, NopSink{}, s)
}
