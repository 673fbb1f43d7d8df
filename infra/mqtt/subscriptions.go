package mqtt

import (
	"encoding/json"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// StatusUpdate is the wire form of a responder status/location report.
type StatusUpdate struct {
	ResponderID string  `json:"responder_id"`
	Kind        string  `json:"kind"`
	Status      string  `json:"status"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	CapturedAt  int64   `json:"captured_at"`
}

// Captured returns the capture time carried by the update.
func (u StatusUpdate) Captured() time.Time {
	return time.UnixMilli(u.CapturedAt)
}

// PublishStatus sends a responder status report. Responder apps use this to
// report availability and location.
func (p *PahoClient) PublishStatus(u StatusUpdate) error {
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return p.publishWithRetry(statusTopic(u.ResponderID), "status", data)
}

// PublishGateway posts a raw fallback payload on the gateway inbound topic,
// the same path the low-bandwidth relay uses.
func (p *PahoClient) PublishGateway(payload string) error {
	return p.publishWithRetry(gatewayTopic, "gateway", []byte(payload))
}

// SubscribeStatus delivers responder status reports to the handler. Reports
// that fail to decode are logged and dropped.
func (p *PahoClient) SubscribeStatus(handler func(StatusUpdate)) error {
	qos := byte(0)
	if q, ok := p.qos["status"]; ok {
		qos = q
	}
	token := p.cli.Subscribe(statusTopicFilter, qos, func(_ paho.Client, msg paho.Message) {
		var u StatusUpdate
		if err := json.Unmarshal(msg.Payload(), &u); err != nil {
			p.logger.Errorf("failed to decode status update: %v", err)
			return
		}
		handler(u)
	})
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

// SubscribeGateway delivers raw fallback payloads from the low-bandwidth
// relay to the handler.
func (p *PahoClient) SubscribeGateway(handler func(payload string)) error {
	qos := byte(0)
	if q, ok := p.qos["gateway"]; ok {
		qos = q
	}
	token := p.cli.Subscribe(gatewayTopic, qos, func(_ paho.Client, msg paho.Message) {
		handler(string(msg.Payload()))
	})
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}
