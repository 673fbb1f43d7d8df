package events

import (
	"time"

	"github.com/matriforce/dispatch/core/model"
)

// CaseCreated is published when intake accepts a new distress case.
type CaseCreated struct {
	Case model.Case
}

// CaseTransitioned is published after a lifecycle transition is committed.
// Subscribers of a given case observe these in commit order.
type CaseTransitioned struct {
	CaseID      string
	From        model.CaseState
	To          model.CaseState
	ResponderID string
	At          time.Time
}

// MatchExhausted is published once per match round when every candidate and
// radius tier has been tried without an acknowledgment. The case stays
// pending and is eligible for escalation.
type MatchExhausted struct {
	CaseID   string
	Attempts int
}

// PayloadRejected is published when an offline fallback payload cannot be
// decoded. Malformed data is dropped, never retried.
type PayloadRejected struct {
	Payload string
	Err     error
}
