package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Config holds parameters for the simulator.
type Config struct {
	Broker      string
	Count       int
	DoctorPct   float64
	CenterLat   float64
	CenterLon   float64
	SpreadKm    float64
	AckLatency  time.Duration
	IgnoreRate  float64
	DeclineRate float64
	Interval    time.Duration
	Verbose     bool
}

func main() {
	cfg := parseFlags()
	if !cfg.Verbose {
		log.SetOutput(io.Discard)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	strat := RandomAck{Delay: cfg.AckLatency, IgnoreRate: cfg.IgnoreRate, DeclineRate: cfg.DeclineRate}
	fleet := GenerateFleet(FleetConfig{
		Size:      cfg.Count,
		DoctorPct: cfg.DoctorPct,
		CenterLat: cfg.CenterLat,
		CenterLon: cfg.CenterLon,
		SpreadKm:  cfg.SpreadKm,
		Broker:    cfg.Broker,
		Interval:  cfg.Interval,
	}, strat)

	var wg sync.WaitGroup
	for _, r := range fleet {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.Run(ctx); err != nil {
				log.Printf("%s: %v", r.ID, err)
			}
		}()
	}
	wg.Wait()
}

func parseFlags() Config {
	var cfg Config
	flag.StringVar(&cfg.Broker, "broker", "tcp://localhost:1883", "MQTT broker URL")
	flag.IntVar(&cfg.Count, "count", 10, "number of responders")
	flag.Float64Var(&cfg.DoctorPct, "doctor-pct", 0.2, "fraction of responders simulated as doctors")
	flag.Float64Var(&cfg.CenterLat, "lat", 23.8103, "fleet center latitude")
	flag.Float64Var(&cfg.CenterLon, "lon", 90.4125, "fleet center longitude")
	flag.Float64Var(&cfg.SpreadKm, "spread-km", 10, "fleet scatter radius in km")
	flag.DurationVar(&cfg.AckLatency, "ack-latency", 2*time.Second, "delay before answering an offer")
	flag.Float64Var(&cfg.IgnoreRate, "ignore-rate", 0.1, "probability an offer is silently ignored")
	flag.Float64Var(&cfg.DeclineRate, "decline-rate", 0.1, "probability an offer is declined")
	flag.DurationVar(&cfg.Interval, "status-interval", 30*time.Second, "status report interval")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "enable logging")
	flag.Parse()
	return cfg
}
