package mqtt

import "fmt"

// Topic layout. Responder apps subscribe to their offer and event topics;
// external UI surfaces subscribe to the case event topics; the low-bandwidth
// relay posts raw fallback payloads on the gateway topic.
const (
	ackTopic          = "dispatch/ack"
	gatewayTopic      = "dispatch/gateway/inbound"
	statusTopicFilter = "dispatch/responder/+/status"
)

func statusTopic(responderID string) string {
	return fmt.Sprintf("dispatch/responder/%s/status", responderID)
}

func offerTopic(responderID string) string {
	return fmt.Sprintf("dispatch/responder/%s/offer", responderID)
}

func responderEventTopic(responderID string) string {
	return fmt.Sprintf("dispatch/responder/%s/events", responderID)
}

func caseEventTopic(caseID string) string {
	return fmt.Sprintf("dispatch/case/%s/events", caseID)
}
