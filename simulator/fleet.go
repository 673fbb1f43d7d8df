package main

import (
	"fmt"
	"math/rand"
	"time"
)

var fleetRng = rand.New(rand.NewSource(time.Now().UnixNano()))

// FleetConfig holds parameters for bulk responder generation.
type FleetConfig struct {
	Size      int
	DoctorPct float64
	CenterLat float64
	CenterLon float64
	SpreadKm  float64
	Broker    string
	Interval  time.Duration
}

// GenerateFleet creates Size responders with IDs resp0001..respNNNN
// scattered uniformly inside the spread radius. Responders are assigned the
// doctor kind according to DoctorPct, otherwise driver.
func GenerateFleet(cfg FleetConfig, strat AckStrategy) []*SimulatedResponder {
	if cfg.Size <= 0 {
		return nil
	}
	// Rough conversion, good enough for a simulated city.
	const kmPerDegree = 111.0
	rs := make([]*SimulatedResponder, cfg.Size)
	for i := 0; i < cfg.Size; i++ {
		id := fmt.Sprintf("resp%04d", i+1)
		kind := "driver"
		if cfg.DoctorPct > 0 && fleetRng.Float64() < cfg.DoctorPct {
			kind = "doctor"
		}
		lat := cfg.CenterLat + (fleetRng.Float64()*2-1)*cfg.SpreadKm/kmPerDegree
		lon := cfg.CenterLon + (fleetRng.Float64()*2-1)*cfg.SpreadKm/kmPerDegree
		rs[i] = NewSimulatedResponder(id, kind, cfg.Broker, lat, lon, cfg.Interval, strat)
	}
	return rs
}
