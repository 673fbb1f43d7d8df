package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// SimulatedResponder connects to MQTT, reports its status periodically and
// answers assignment offers according to its strategy.
type SimulatedResponder struct {
	ID        string
	Kind      string
	Broker    string
	Latitude  float64
	Longitude float64
	Interval  time.Duration
	Strategy  AckStrategy

	client paho.Client
	ackCh  chan string
}

// NewSimulatedResponder creates a new responder.
func NewSimulatedResponder(id, kind, broker string, lat, lon float64, interval time.Duration, strat AckStrategy) *SimulatedResponder {
	return &SimulatedResponder{
		ID:        id,
		Kind:      kind,
		Broker:    broker,
		Latitude:  lat,
		Longitude: lon,
		Interval:  interval,
		Strategy:  strat,
		ackCh:     make(chan string, 50),
	}
}

// Run connects to the broker and serves offers until ctx is done.
func (r *SimulatedResponder) Run(ctx context.Context) error {
	cli, err := newMQTTClient(r.Broker, "sim-"+r.ID)
	if err != nil {
		return err
	}
	r.client = cli
	for i := 0; i < 5; i++ {
		go r.worker(ctx)
	}
	topic := fmt.Sprintf("dispatch/responder/%s/offer", r.ID)
	if token := cli.Subscribe(topic, 0, r.onOffer); token.Wait() && token.Error() != nil {
		cli.Disconnect(250)
		return token.Error()
	}
	r.publishStatus("online")
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.publishStatus("online")
		case <-ctx.Done():
			r.publishStatus("offline")
			close(r.ackCh)
			cli.Disconnect(250)
			return nil
		}
	}
}

func (r *SimulatedResponder) onOffer(_ paho.Client, msg paho.Message) {
	var m struct {
		CommandID string `json:"command_id"`
	}
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		log.Printf("%s: decode offer: %v", r.ID, err)
		return
	}
	select {
	case r.ackCh <- m.CommandID:
	default:
		log.Printf("%s: ack queue full, dropping offer %s", r.ID, m.CommandID)
	}
}

func (r *SimulatedResponder) worker(ctx context.Context) {
	for {
		select {
		case cmdID, ok := <-r.ackCh:
			if !ok {
				return
			}
			r.Strategy.Ack(ctx, r.client, r.ID, cmdID)
		case <-ctx.Done():
			return
		}
	}
}

func (r *SimulatedResponder) publishStatus(status string) {
	payload, err := json.Marshal(struct {
		ResponderID string  `json:"responder_id"`
		Kind        string  `json:"kind"`
		Status      string  `json:"status"`
		Latitude    float64 `json:"latitude"`
		Longitude   float64 `json:"longitude"`
		CapturedAt  int64   `json:"captured_at"`
	}{
		ResponderID: r.ID,
		Kind:        r.Kind,
		Status:      status,
		Latitude:    r.Latitude,
		Longitude:   r.Longitude,
		CapturedAt:  time.Now().UnixMilli(),
	})
	if err != nil {
		log.Printf("%s: marshal status: %v", r.ID, err)
		return
	}
	topic := fmt.Sprintf("dispatch/responder/%s/status", r.ID)
	token := r.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		log.Printf("%s: status publish timeout", r.ID)
		return
	}
	if err := token.Error(); err != nil {
		log.Printf("%s: publish status: %v", r.ID, err)
	}
}
