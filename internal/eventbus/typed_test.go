package eventbus

import (
	"testing"

	"github.com/matriforce/dispatch/core/events"
)

func TestTypedBusDelivery(t *testing.T) {
	b := NewTyped[events.CaseTransitioned]()
	sub := b.Subscribe()
	b.Publish(events.CaseTransitioned{CaseID: "c1"})
	select {
	case e := <-sub:
		if e.CaseID != "c1" {
			t.Fatalf("unexpected event %+v", e)
		}
	default:
		t.Fatal("no event delivered")
	}
}

func TestTypedBusClose(t *testing.T) {
	b := NewTyped[int]()
	sub := b.Subscribe()
	b.Close()
	if _, ok := <-sub; ok {
		t.Fatal("channel should be closed")
	}
	b.Publish(1) // must not panic
}
