// Package audit defines the store used to keep a trail of match attempts for
// diagnosis and escalation review.
package audit

import (
	"context"
	"time"
)

// Record is one assignment proposal outcome.
type Record struct {
	Timestamp    time.Time
	CaseID       string
	ResponderID  string
	Tier         int
	DistanceKm   float64
	Acknowledged bool
	Error        string
	Latency      time.Duration
}

// Store persists match attempt records.
type Store interface {
	Append(ctx context.Context, r Record) error
	// Recent returns up to n records, newest first.
	Recent(ctx context.Context, n int) ([]Record, error)
	Close() error
}
