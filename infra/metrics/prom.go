package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/matriforce/dispatch/core/metrics"
)

// PromSink records dispatch events in Prometheus metrics.
type PromSink struct {
	rounds      *prometheus.CounterVec
	acks        *prometheus.CounterVec
	ackLatency  *prometheus.HistogramVec
	transitions *prometheus.CounterVec
	rejected    prometheus.Counter
	online      prometheus.Gauge
	busy        prometheus.Gauge
}

// NewPromSink registers dispatch metrics on the default Prometheus
// registerer. The Prometheus server should be started separately using
// cfg.PrometheusAddr.
func NewPromSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	s, err := NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	rounds := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_match_rounds_total",
		Help: "Total number of finished match rounds",
	}, []string{"outcome"})
	acks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_proposals_total",
		Help: "Total number of assignment proposals",
	}, []string{"tier", "acknowledged"})
	ackLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dispatch_ack_latency_seconds",
		Help:    "Time between an assignment proposal and its acknowledgment",
		Buckets: prometheus.DefBuckets,
	}, []string{"tier", "acknowledged"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_case_transitions_total",
		Help: "Total number of committed case transitions",
	}, []string{"from", "to"})
	rejected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dispatch_fallback_rejected_total",
		Help: "Total number of malformed offline payloads dropped at the gateway",
	})
	online := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dispatch_responders_online",
		Help: "Number of responders currently online",
	})
	busy := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dispatch_responders_busy",
		Help: "Number of responders currently assigned to a case",
	})

	collectors := []prometheus.Collector{rounds, acks, ackLatency, transitions, rejected, online, busy}
	for i, c := range collectors {
		if err := reg.Register(c); err != nil {
			are, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				return nil, err
			}
			collectors[i] = are.ExistingCollector
		}
	}
	return &PromSink{
		rounds:      collectors[0].(*prometheus.CounterVec),
		acks:        collectors[1].(*prometheus.CounterVec),
		ackLatency:  collectors[2].(*prometheus.HistogramVec),
		transitions: collectors[3].(*prometheus.CounterVec),
		rejected:    collectors[4].(prometheus.Counter),
		online:      collectors[5].(prometheus.Gauge),
		busy:        collectors[6].(prometheus.Gauge),
	}, nil
}

// RecordMatchResult increments the round counter for each result.
func (s *PromSink) RecordMatchResult(res []coremetrics.MatchResult) error {
	for _, r := range res {
		s.rounds.WithLabelValues(r.Outcome).Inc()
	}
	return nil
}

// RecordProposalAck records the proposal counter and ack latency histogram.
func (s *PromSink) RecordProposalAck(ev coremetrics.ProposalAckEvent) error {
	tier := strconv.Itoa(ev.Tier)
	acked := strconv.FormatBool(ev.Acknowledged)
	s.acks.WithLabelValues(tier, acked).Inc()
	s.ackLatency.WithLabelValues(tier, acked).Observe(ev.Latency.Seconds())
	return nil
}

// RecordCaseTransition increments the transition counter.
func (s *PromSink) RecordCaseTransition(ev coremetrics.CaseTransitionEvent) error {
	s.transitions.WithLabelValues(ev.From.String(), ev.To.String()).Inc()
	return nil
}

// RecordFallback counts dropped offline payloads.
func (s *PromSink) RecordFallback(coremetrics.FallbackEvent) error {
	s.rejected.Inc()
	return nil
}

// RecordResponderPool updates the pool gauges.
func (s *PromSink) RecordResponderPool(ev coremetrics.ResponderPoolEvent) error {
	s.online.Set(float64(ev.Online))
	s.busy.Set(float64(ev.Busy))
	return nil
}
