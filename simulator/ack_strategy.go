package main

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

var rng = rand.New(rand.NewSource(time.Now().UnixNano()))

// AckStrategy defines how a responder answers assignment offers.
type AckStrategy interface {
	Ack(ctx context.Context, cli paho.Client, responderID, commandID string)
}

// AutoAck accepts every offer after an optional fixed delay.
type AutoAck struct {
	Delay time.Duration
}

// Ack implements AckStrategy.
func (a AutoAck) Ack(ctx context.Context, cli paho.Client, responderID, commandID string) {
	if a.Delay > 0 {
		select {
		case <-time.After(a.Delay):
		case <-ctx.Done():
			return
		}
	}
	publishAck(cli, responderID, commandID, true)
}

// RandomAck ignores offers with the configured probability, declines with
// another, and waits for the specified delay before answering.
type RandomAck struct {
	Delay       time.Duration
	IgnoreRate  float64
	DeclineRate float64
}

// Ack implements AckStrategy.
func (r RandomAck) Ack(ctx context.Context, cli paho.Client, responderID, commandID string) {
	if r.IgnoreRate > 0 && rng.Float64() < r.IgnoreRate {
		return
	}
	if r.Delay > 0 {
		select {
		case <-time.After(r.Delay):
		case <-ctx.Done():
			return
		}
	}
	accepted := true
	if r.DeclineRate > 0 && rng.Float64() < r.DeclineRate {
		accepted = false
	}
	publishAck(cli, responderID, commandID, accepted)
}

func publishAck(cli paho.Client, responderID, commandID string, accepted bool) {
	payload, err := json.Marshal(struct {
		CommandID string `json:"command_id"`
		Accepted  bool   `json:"accepted"`
	}{CommandID: commandID, Accepted: accepted})
	if err != nil {
		log.Printf("marshal ack: %v", err)
		return
	}
	token := cli.Publish("dispatch/ack", 0, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		log.Printf("ack publish timeout for %s", responderID)
		return
	}
	if err := token.Error(); err != nil {
		log.Printf("publish ack error for %s: %v", responderID, err)
	}
}
