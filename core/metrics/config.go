package metrics

import "github.com/matriforce/dispatch/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks          []factory.ModuleConfig `json:"sinks"`
	PrometheusAddr string                 `json:"prometheus_addr"`
}
