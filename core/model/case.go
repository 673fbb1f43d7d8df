package model

import (
	"fmt"
	"time"
)

// CaseState tracks a distress case through its lifecycle.
type CaseState int

const (
	StatePending CaseState = iota
	StateAssigned
	StateEnRoute
	StateResolved
	StateCancelled
	StateExpired
)

func (s CaseState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateAssigned:
		return "assigned"
	case StateEnRoute:
		return "en_route"
	case StateResolved:
		return "resolved"
	case StateCancelled:
		return "cancelled"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is permitted from s.
func (s CaseState) Terminal() bool {
	return s == StateResolved || s == StateCancelled || s == StateExpired
}

// Channel records which path a case arrived through.
type Channel int

const (
	ChannelOnline Channel = iota
	ChannelOfflineFallback
)

func (c Channel) String() string {
	switch c {
	case ChannelOnline:
		return "online"
	case ChannelOfflineFallback:
		return "offline_fallback"
	default:
		return "unknown"
	}
}

// Case is one emergency request tracked end-to-end.
type Case struct {
	ID                  string
	ReporterID          string
	Location            Location
	CreatedAt           time.Time
	State               CaseState
	AssignedResponderID string
	Channel             Channel

	// Version guards compare-and-swap writes. Zero means never stored.
	Version uint64
}

// transitions is the legal state machine. Terminal states have no entries.
var transitions = map[CaseState][]CaseState{
	StatePending:  {StateAssigned, StateCancelled, StateExpired},
	StateAssigned: {StateEnRoute, StateResolved, StateCancelled},
	StateEnRoute:  {StateResolved, StateCancelled},
}

// CanTransition reports whether moving from the current state to target is
// allowed by the lifecycle machine.
func (c Case) CanTransition(target CaseState) bool {
	for _, s := range transitions[c.State] {
		if s == target {
			return true
		}
	}
	return false
}

// Validate checks the assignment invariant: a responder reference is present
// exactly in the assigned and en_route states.
func (c Case) Validate() error {
	assigned := c.State == StateAssigned || c.State == StateEnRoute
	if assigned != (c.AssignedResponderID != "") {
		return fmt.Errorf("case %s: state %s with responder %q", c.ID, c.State, c.AssignedResponderID)
	}
	return nil
}

// Open reports whether the case still needs attention.
func (c Case) Open() bool { return !c.State.Terminal() }
