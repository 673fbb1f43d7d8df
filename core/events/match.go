package events

import "time"

// MatchCompleted is published when a match round commits an assignment.
type MatchCompleted struct {
	CaseID      string
	ResponderID string
	Attempts    int
}

// MatchAttempt is published for each assignment proposal outcome.
type MatchAttempt struct {
	CaseID       string
	ResponderID  string
	Tier         int
	Acknowledged bool
	Err          error
	Latency      time.Duration
}
