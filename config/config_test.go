package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `mqtt:
  broker: "tcp://localhost:1883"
  client_id: "dispatch"
  username: "user"
  password: "pass"
  use_tls: false
dispatch:
  ack_window_seconds: 10
  attempts_per_tier: 2
  radius_tiers_km: [2, 6, 20]
metrics:
  sinks:
    - type: "nop"
intake:
  region:
    min_latitude: 23.5
    max_latitude: 24.1
    min_longitude: 90.1
    max_longitude: 90.7
lifecycle:
  max_pending_minutes: 20
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"client_id", cfg.MQTT.ClientID, "dispatch"},
		{"username", cfg.MQTT.Username, "user"},
		{"use_tls", cfg.MQTT.UseTLS, false},
		{"ack_window_seconds", cfg.Dispatch.AckWindowSeconds, 10},
		{"attempts_per_tier", cfg.Dispatch.AttemptsPerTier, 2},
		{"radius_tiers", len(cfg.Dispatch.RadiusTiersKm), 3},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"region_min_lat", cfg.Intake.Region.MinLatitude, 23.5},
		{"region_max_lon", cfg.Intake.Region.MaxLongitude, 90.7},
		{"max_pending", cfg.Lifecycle.MaxPendingMinutes, 20},
		{"sweep_default", cfg.Lifecycle.SweepIntervalSeconds, 60},
		{"audit_default", cfg.Audit.Size, 1024},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadDefaultsRegion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("mqtt:\n  broker: \"tcp://localhost:1883\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Intake.Region.MaxLatitude != 90 {
		t.Errorf("expected global region default, got %+v", cfg.Intake.Region)
	}
}

func TestLoadRejectsInvertedRegion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `intake:
  region:
    min_latitude: 25
    max_latitude: 23
    min_longitude: 90
    max_longitude: 91
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for inverted region")
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
