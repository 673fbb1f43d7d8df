// Package events defines the dispatch related events emitted on the event bus.
//
// Available event types:
//   - CaseCreated: a new distress case was accepted by intake
//   - CaseTransitioned: a lifecycle transition was committed
//   - MatchAttempt: an assignment proposal was answered or timed out
//   - MatchCompleted: a responder accepted and the case was assigned
//   - MatchExhausted: all candidates and tiers were exhausted for a case
//   - PayloadRejected: an offline fallback payload failed to decode
package events
