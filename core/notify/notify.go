package notify

import "time"

// Client carries assignment proposals to responders and lifecycle events to
// external subscribers. The transport (MQTT, push, long-poll) is an infra
// concern.
type Client interface {
	// ProposeAssignment offers the case to the responder and returns the
	// command identifier used to track the acknowledgment.
	ProposeAssignment(responderID, caseID string, lat, lon float64) (commandID string, err error)

	// WaitForAck waits for an acknowledgment of the given command identifier
	// or until the window expires.
	WaitForAck(commandID string, window time.Duration) (bool, error)

	// PublishCaseEvent mirrors a lifecycle event onto the reporter's and
	// responder's external channels.
	PublishCaseEvent(caseID, responderID string, payload []byte) error
}
