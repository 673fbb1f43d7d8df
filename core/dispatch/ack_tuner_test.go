package dispatch

import (
	"testing"
	"time"
)

func TestAckWindowTunerDefaultsBeforeSample(t *testing.T) {
	tuner := NewAckWindowTuner(10*time.Second, 2*time.Second, 30*time.Second)
	if w := tuner.Window(); w != 10*time.Second {
		t.Fatalf("expected base window, got %v", w)
	}
}

func TestAckWindowTunerTracksLatency(t *testing.T) {
	tuner := NewAckWindowTuner(10*time.Second, 2*time.Second, 30*time.Second)
	for i := 0; i < 32; i++ {
		tuner.Observe(time.Second)
	}
	w := tuner.Window()
	if w < 2*time.Second || w > 3*time.Second {
		t.Fatalf("window %v not near 1.5s quantile headroom", w)
	}

	// A slow network widens the window.
	for i := 0; i < 128; i++ {
		tuner.Observe(12 * time.Second)
	}
	w = tuner.Window()
	if w < 15*time.Second {
		t.Fatalf("window %v did not widen", w)
	}
	if w > 30*time.Second {
		t.Fatalf("window %v exceeds clamp", w)
	}
}

func TestAckWindowTunerClampsLow(t *testing.T) {
	tuner := NewAckWindowTuner(10*time.Second, 5*time.Second, 30*time.Second)
	for i := 0; i < 32; i++ {
		tuner.Observe(10 * time.Millisecond)
	}
	if w := tuner.Window(); w != 5*time.Second {
		t.Fatalf("expected clamp to 5s, got %v", w)
	}
}
