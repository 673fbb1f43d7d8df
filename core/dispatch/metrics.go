package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	matchLatency    *prometheus.HistogramVec
	matchAttempts   *prometheus.CounterVec
	matchOutcomes   *prometheus.CounterVec
	ackRate         prometheus.Gauge
	proposalSuccess prometheus.Counter
	proposalFailure prometheus.Counter
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.HistogramVec, *prometheus.CounterVec, *prometheus.CounterVec, prometheus.Gauge, prometheus.Counter, prometheus.Counter) {
	lat := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "match_proposal_latency_seconds",
			Help:    "Latency of assignment proposals from publish to acknowledgment",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tier"},
	)
	att := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_attempts_total",
			Help: "Number of assignment proposals sent to responders",
		},
		[]string{"tier"},
	)
	out := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_rounds_total",
			Help: "Number of completed match rounds by outcome",
		},
		[]string{"outcome"},
	)
	ack := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "match_ack_rate",
			Help: "Acknowledgment rate over the last match round",
		},
	)
	suc := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "proposal_publish_success_total",
			Help: "Number of successful proposal publish operations",
		},
	)
	fail := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "proposal_publish_failure_total",
			Help: "Number of failed proposal publish operations",
		},
	)
	return lat, att, out, ack, suc, fail
}

func init() {
	matchLatency, matchAttempts, matchOutcomes, ackRate, proposalSuccess, proposalFailure = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers matcher metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(matchLatency, matchAttempts, matchOutcomes, ackRate, proposalSuccess, proposalFailure)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	matchLatency, matchAttempts, matchOutcomes, ackRate, proposalSuccess, proposalFailure = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
