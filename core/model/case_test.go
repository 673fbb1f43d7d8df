package model

import "testing"

func TestCaseTransitions(t *testing.T) {
	cases := []struct {
		from, to CaseState
		ok       bool
	}{
		{StatePending, StateAssigned, true},
		{StatePending, StateCancelled, true},
		{StatePending, StateExpired, true},
		{StatePending, StateEnRoute, false},
		{StatePending, StateResolved, false},
		{StateAssigned, StateEnRoute, true},
		{StateAssigned, StateResolved, true},
		{StateAssigned, StateCancelled, true},
		{StateAssigned, StateExpired, false},
		{StateEnRoute, StateResolved, true},
		{StateEnRoute, StateCancelled, true},
		{StateEnRoute, StateAssigned, false},
		{StateResolved, StateCancelled, false},
		{StateCancelled, StatePending, false},
		{StateExpired, StateAssigned, false},
	}
	for _, tc := range cases {
		c := Case{State: tc.from}
		if got := c.CanTransition(tc.to); got != tc.ok {
			t.Errorf("%s -> %s: got %v want %v", tc.from, tc.to, got, tc.ok)
		}
	}
}

func TestTerminalStates(t *testing.T) {
	for _, s := range []CaseState{StateResolved, StateCancelled, StateExpired} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []CaseState{StatePending, StateAssigned, StateEnRoute} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestCaseValidate(t *testing.T) {
	c := Case{ID: "c1", State: StateAssigned, AssignedResponderID: "r1"}
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c = Case{ID: "c1", State: StateAssigned}
	if err := c.Validate(); err == nil {
		t.Fatal("assigned without responder should fail")
	}
	c = Case{ID: "c1", State: StatePending, AssignedResponderID: "r1"}
	if err := c.Validate(); err == nil {
		t.Fatal("pending with responder should fail")
	}
}

func TestResponderValidate(t *testing.T) {
	r := Responder{ID: "r1", Status: StatusBusy, AssignedCaseID: "c1"}
	if err := r.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r = Responder{ID: "r1", Status: StatusBusy}
	if err := r.Validate(); err == nil {
		t.Fatal("busy without case should fail")
	}
	r = Responder{ID: "r1", Status: StatusOnline, AssignedCaseID: "c1"}
	if err := r.Validate(); err == nil {
		t.Fatal("online with case should fail")
	}
}

func TestDistanceKm(t *testing.T) {
	// Dhanmondi to Mohammadpur, roughly 1.7 km.
	a := Location{Latitude: 23.7461, Longitude: 90.3742}
	b := Location{Latitude: 23.7500, Longitude: 90.3800}
	d := a.DistanceKm(b)
	if d <= 0 || d > 2 {
		t.Fatalf("unexpected distance %f", d)
	}
	if a.DistanceKm(a) != 0 {
		t.Fatal("distance to self should be zero")
	}
}

func TestRegionContains(t *testing.T) {
	r := Region{MinLatitude: 20, MaxLatitude: 27, MinLongitude: 88, MaxLongitude: 93}
	if !r.Contains(Location{Latitude: 23.7, Longitude: 90.4}) {
		t.Fatal("Dhaka should be inside")
	}
	if r.Contains(Location{Latitude: 48.8, Longitude: 2.3}) {
		t.Fatal("Paris should be outside")
	}
}
