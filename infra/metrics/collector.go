package metrics

import (
	"context"
	"time"

	"github.com/matriforce/dispatch/core/events"
	coremetrics "github.com/matriforce/dispatch/core/metrics"
	"github.com/matriforce/dispatch/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for
// events. It stops when the context is canceled.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink) {
	if bus == nil || sink == nil {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				switch e := ev.(type) {
				case events.MatchAttempt:
					if r, ok := sink.(coremetrics.ProposalAckRecorder); ok {
						errStr := ""
						if e.Err != nil {
							errStr = e.Err.Error()
						}
						_ = r.RecordProposalAck(coremetrics.ProposalAckEvent{
							CaseID:       e.CaseID,
							ResponderID:  e.ResponderID,
							Tier:         e.Tier,
							Acknowledged: e.Acknowledged,
							Latency:      e.Latency,
							Error:        errStr,
							Time:         time.Now(),
						})
					}
				case events.CaseTransitioned:
					if r, ok := sink.(coremetrics.CaseTransitionRecorder); ok {
						_ = r.RecordCaseTransition(coremetrics.CaseTransitionEvent{
							CaseID:      e.CaseID,
							From:        e.From,
							To:          e.To,
							ResponderID: e.ResponderID,
							Time:        e.At,
						})
					}
				case events.PayloadRejected:
					if r, ok := sink.(coremetrics.FallbackRecorder); ok {
						errStr := ""
						if e.Err != nil {
							errStr = e.Err.Error()
						}
						_ = r.RecordFallback(coremetrics.FallbackEvent{
							Payload: e.Payload,
							Error:   errStr,
							Time:    time.Now(),
						})
					}
				case events.MatchCompleted:
					_ = sink.RecordMatchResult([]coremetrics.MatchResult{{
						CaseID:      e.CaseID,
						ResponderID: e.ResponderID,
						Outcome:     "matched",
						Attempts:    e.Attempts,
						MatchTime:   time.Now(),
					}})
				case events.MatchExhausted:
					_ = sink.RecordMatchResult([]coremetrics.MatchResult{{
						CaseID:    e.CaseID,
						Outcome:   "exhausted",
						Attempts:  e.Attempts,
						MatchTime: time.Now(),
					}})
				}
			}
		}
	}()
}
