package dispatch

import (
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// AckWindowTuner adapts the acknowledgment wait window from observed
// responder latencies. The window tracks a high quantile of recent
// acknowledged latencies with headroom, clamped to a configured range, so a
// slow network widens the window instead of burning attempts on timeouts.
type AckWindowTuner struct {
	base     time.Duration
	min      time.Duration
	max      time.Duration
	quantile float64
	headroom float64
	sample   []float64
	limit    int
	mu       sync.Mutex
}

// NewAckWindowTuner returns a tuner starting at base and clamping the tuned
// window to [min, max]. Invalid bounds fall back to the base window.
func NewAckWindowTuner(base, min, max time.Duration) *AckWindowTuner {
	if base <= 0 {
		base = 5 * time.Second
	}
	if min <= 0 || max < min {
		min, max = base, base
	}
	return &AckWindowTuner{
		base:     base,
		min:      min,
		max:      max,
		quantile: 0.95,
		headroom: 1.5,
		limit:    128,
	}
}

// Observe records the latency of an acknowledged proposal. Timed-out
// attempts carry no usable latency and are not recorded.
func (t *AckWindowTuner) Observe(latency time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sample = append(t.sample, latency.Seconds())
	if len(t.sample) > t.limit {
		t.sample = t.sample[len(t.sample)-t.limit:]
	}
}

// Window returns the current acknowledgment wait window.
func (t *AckWindowTuner) Window() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.sample) < 8 {
		return t.base
	}
	sorted := append([]float64(nil), t.sample...)
	sort.Float64s(sorted)
	q := stat.Quantile(t.quantile, stat.Empirical, sorted, nil)
	w := time.Duration(q * t.headroom * float64(time.Second))
	if w < t.min {
		w = t.min
	}
	if w > t.max {
		w = t.max
	}
	return w
}
