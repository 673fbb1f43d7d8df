package notify

import "errors"

// ErrAckTimeout is returned when no acknowledgment is received before the window expires.
var ErrAckTimeout = errors.New("timeout waiting for ack")
