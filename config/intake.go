package config

import (
	"fmt"

	"github.com/matriforce/dispatch/core/model"
)

// IntakeConfig defines settings for distress signal intake.
type IntakeConfig struct {
	// Region bounds the coordinates accepted by intake. Signals outside
	// the box are rejected.
	Region model.Region `json:"region"`
}

// SetDefaults widens an unset region to the whole globe.
func (c *IntakeConfig) SetDefaults() {
	if c.Region == (model.Region{}) {
		c.Region = model.Region{MinLatitude: -90, MaxLatitude: 90, MinLongitude: -180, MaxLongitude: 180}
	}
}

// Validate checks the region bounds.
func (c IntakeConfig) Validate() error {
	r := c.Region
	if r.MinLatitude >= r.MaxLatitude || r.MinLongitude >= r.MaxLongitude {
		return fmt.Errorf("intake region bounds are inverted")
	}
	if r.MinLatitude < -90 || r.MaxLatitude > 90 || r.MinLongitude < -180 || r.MaxLongitude > 180 {
		return fmt.Errorf("intake region outside valid coordinates")
	}
	return nil
}

// LifecycleConfig defines settings for case expiry sweeps.
type LifecycleConfig struct {
	// MaxPendingMinutes expires cases still pending after this long.
	MaxPendingMinutes int `json:"max_pending_minutes"`
	// SweepIntervalSeconds is how often the expiry sweep runs.
	SweepIntervalSeconds int `json:"sweep_interval_seconds"`
}

// SetDefaults applies sane defaults.
func (c *LifecycleConfig) SetDefaults() {
	if c.MaxPendingMinutes <= 0 {
		c.MaxPendingMinutes = 15
	}
	if c.SweepIntervalSeconds <= 0 {
		c.SweepIntervalSeconds = 60
	}
}

// Validate checks mandatory fields.
func (c LifecycleConfig) Validate() error {
	if c.MaxPendingMinutes <= 0 {
		return fmt.Errorf("max_pending_minutes must be positive")
	}
	return nil
}

// APIConfig defines settings for the read-only HTTP API.
type APIConfig struct {
	// Addr is the listen address, e.g. ":8080". Empty disables the API.
	Addr string `json:"addr"`
}

// AuditConfig defines settings for the in-memory audit trail.
type AuditConfig struct {
	// Size caps the number of records kept; older records are evicted.
	Size int `json:"size"`
}

// SetDefaults applies sane defaults.
func (c *AuditConfig) SetDefaults() {
	if c.Size <= 0 {
		c.Size = 1024
	}
}
