package main

import (
	"math"
	"testing"
	"time"
)

func TestGenerateFleetSizeAndIDs(t *testing.T) {
	fleet := GenerateFleet(FleetConfig{
		Size:      5,
		CenterLat: 23.8,
		CenterLon: 90.4,
		SpreadKm:  5,
		Broker:    "tcp://localhost:1883",
		Interval:  time.Second,
	}, AutoAck{})
	if len(fleet) != 5 {
		t.Fatalf("expected 5 responders, got %d", len(fleet))
	}
	if fleet[0].ID != "resp0001" || fleet[4].ID != "resp0005" {
		t.Fatalf("unexpected IDs %s %s", fleet[0].ID, fleet[4].ID)
	}
	for _, r := range fleet {
		if math.Abs(r.Latitude-23.8) > 0.1 || math.Abs(r.Longitude-90.4) > 0.1 {
			t.Fatalf("%s scattered too far: (%f, %f)", r.ID, r.Latitude, r.Longitude)
		}
	}
}

func TestGenerateFleetDoctorPct(t *testing.T) {
	fleet := GenerateFleet(FleetConfig{Size: 200, DoctorPct: 1, Interval: time.Second}, AutoAck{})
	for _, r := range fleet {
		if r.Kind != "doctor" {
			t.Fatalf("%s expected doctor, got %s", r.ID, r.Kind)
		}
	}
	if GenerateFleet(FleetConfig{}, AutoAck{}) != nil {
		t.Fatal("expected nil fleet for zero size")
	}
}
