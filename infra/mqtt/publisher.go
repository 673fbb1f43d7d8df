package mqtt

import (
	"fmt"
	"sync"
	"time"

	corenotify "github.com/matriforce/dispatch/core/notify"
)

// Client mirrors the core notify.Client interface.
type Client = corenotify.Client

// MockPublisher is a simple notifier used in tests. Responder answers are
// configured up front: FailIDs simulates publish failures, DeclineIDs
// simulates explicit rejections, SilentIDs simulates missing acks.
type MockPublisher struct {
	Offers     map[string]string
	FailIDs    map[string]bool
	DeclineIDs map[string]bool
	SilentIDs  map[string]bool
	Events     map[string][][]byte
	mu         sync.Mutex

	cmdResponder map[string]string
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		Offers:       make(map[string]string),
		FailIDs:      make(map[string]bool),
		DeclineIDs:   make(map[string]bool),
		SilentIDs:    make(map[string]bool),
		Events:       make(map[string][][]byte),
		cmdResponder: make(map[string]string),
	}
}

// ProposeAssignment records the offer or returns an error if configured to
// fail for the responder.
func (m *MockPublisher) ProposeAssignment(responderID, caseID string, lat, lon float64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailIDs[responderID] {
		return "", fmt.Errorf("publish failed")
	}
	m.Offers[responderID] = caseID
	commandID := fmt.Sprintf("cmd-%s-%s", responderID, caseID)
	m.cmdResponder[commandID] = responderID
	return commandID, nil
}

// WaitForAck answers immediately based on the configured responder behavior.
func (m *MockPublisher) WaitForAck(commandID string, window time.Duration) (bool, error) {
	m.mu.Lock()
	responder, exists := m.cmdResponder[commandID]
	silent := m.SilentIDs[responder]
	declined := m.DeclineIDs[responder]
	m.mu.Unlock()
	if !exists {
		return false, fmt.Errorf("unknown command")
	}
	if silent {
		return false, fmt.Errorf("%w", corenotify.ErrAckTimeout)
	}
	return !declined, nil
}

// PublishCaseEvent records the event payload per case.
func (m *MockPublisher) PublishCaseEvent(caseID, responderID string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events[caseID] = append(m.Events[caseID], payload)
	return nil
}
