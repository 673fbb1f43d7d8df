// Package metrics defines interfaces and implementations for collecting
// dispatch observability data. Sinks like the Prometheus and InfluxDB sinks
// in infra/metrics record events such as proposal acks or case transitions
// and can be combined with NewMultiSink. The factory helpers return a
// MultiSink automatically when multiple sinks are configured.
package metrics
