package model

import "fmt"

// ResponderKind distinguishes the two responder roles.
type ResponderKind int

const (
	KindDriver ResponderKind = iota
	KindDoctor
)

// String returns a human-readable representation of the responder kind.
func (k ResponderKind) String() string {
	switch k {
	case KindDriver:
		return "driver"
	case KindDoctor:
		return "doctor"
	default:
		return "unknown"
	}
}

// ParseResponderKind converts the wire representation back to a kind.
func ParseResponderKind(s string) (ResponderKind, error) {
	switch s {
	case "driver":
		return KindDriver, nil
	case "doctor":
		return KindDoctor, nil
	default:
		return 0, fmt.Errorf("unknown responder kind %q", s)
	}
}

// ResponderStatus is the live availability of a responder.
type ResponderStatus int

const (
	StatusOffline ResponderStatus = iota
	StatusOnline
	StatusBusy
)

func (s ResponderStatus) String() string {
	switch s {
	case StatusOffline:
		return "offline"
	case StatusOnline:
		return "online"
	case StatusBusy:
		return "busy"
	default:
		return "unknown"
	}
}

// ParseResponderStatus converts the wire representation back to a status.
func ParseResponderStatus(s string) (ResponderStatus, error) {
	switch s {
	case "offline":
		return StatusOffline, nil
	case "online":
		return StatusOnline, nil
	case "busy":
		return StatusBusy, nil
	default:
		return StatusOffline, fmt.Errorf("unknown responder status %q", s)
	}
}

// Responder mirrors the registry-owned slice of a responder: status and
// location. Identity and profile fields live in the external profile service.
type Responder struct {
	ID             string
	Kind           ResponderKind
	Status         ResponderStatus
	Location       Location
	AssignedCaseID string

	// Version guards compare-and-swap writes. Zero means never stored.
	Version uint64
}

// Validate checks the busy/assignment invariant: a responder is busy exactly
// when an assigned case is recorded.
func (r Responder) Validate() error {
	if (r.Status == StatusBusy) != (r.AssignedCaseID != "") {
		return fmt.Errorf("responder %s: status %s with assigned case %q", r.ID, r.Status, r.AssignedCaseID)
	}
	return nil
}
