package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/matriforce/dispatch/core/metrics"
	"github.com/matriforce/dispatch/infra/logger"
)

// InfluxSink writes dispatch events to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordMatchResult writes finished match rounds as line protocol events.
func (s *InfluxSink) RecordMatchResult(res []coremetrics.MatchResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, r := range res {
		p := write.NewPointWithMeasurement("match_round").
			AddTag("case_id", r.CaseID).
			AddTag("outcome", r.Outcome).
			AddTag("component", "matcher").
			AddField("responder_id", r.ResponderID).
			AddField("attempts", r.Attempts).
			AddField("tier", r.Tier).
			AddField("distance_km", round3(r.DistanceKm)).
			SetTime(r.MatchTime)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordProposalAck writes a single proposal outcome.
func (s *InfluxSink) RecordProposalAck(ev coremetrics.ProposalAckEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("proposal_ack").
		AddTag("case_id", ev.CaseID).
		AddTag("responder_id", ev.ResponderID).
		AddTag("acknowledged", strconv.FormatBool(ev.Acknowledged)).
		AddTag("component", "matcher").
		AddField("tier", ev.Tier).
		AddField("latency_ms", ev.Latency.Milliseconds()).
		AddField("error", ev.Error).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordCaseTransition writes a committed case transition.
func (s *InfluxSink) RecordCaseTransition(ev coremetrics.CaseTransitionEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("case_transition").
		AddTag("case_id", ev.CaseID).
		AddTag("from", ev.From.String()).
		AddTag("to", ev.To.String()).
		AddTag("component", "lifecycle").
		AddField("responder_id", ev.ResponderID).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordFallback writes a rejected offline payload event.
func (s *InfluxSink) RecordFallback(ev coremetrics.FallbackEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("fallback_rejected").
		AddTag("component", "gateway").
		AddField("payload_len", len(ev.Payload)).
		AddField("error", ev.Error).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordResponderPool writes a snapshot of the responder pool.
func (s *InfluxSink) RecordResponderPool(ev coremetrics.ResponderPoolEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("responder_pool").
		AddTag("component", "registry").
		AddField("online", ev.Online).
		AddField("busy", ev.Busy).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close flushes and closes the underlying client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
