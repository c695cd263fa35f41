// Package events fans engine lifecycle events out to NATS and live monitors.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/z-honeypot/backend/internal/model/chat"
)

// Type names an event.
type Type string

const (
	SessionCreated  Type = "session.created"
	StateChanged    Type = "session.state_changed"
	FindingAdded    Type = "finding.added"
	ReportDelivered Type = "report.delivered"
	ReportFailed    Type = "report.failed"
)

// Event describes something that happened to a session.
type Event struct {
	ID            string        `json:"id"`
	Type          Type          `json:"type"`
	SessionID     string        `json:"sessionId"`
	State         chat.State    `json:"state,omitempty"`
	PreviousState chat.State    `json:"previousState,omitempty"`
	Turn          int           `json:"turn,omitempty"`
	Finding       *chat.Finding `json:"finding,omitempty"`
	Error         string        `json:"error,omitempty"`
	At            time.Time     `json:"at"`
}

// New stamps an event with a fresh id and the current time.
func New(t Type, sessionID string) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		SessionID: sessionID,
		At:        time.Now().UTC(),
	}
}

// Publisher accepts events. Implementations must not block the caller for long
// and must never fail it.
type Publisher interface {
	Publish(evt Event)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(Event) {}

// Multi forwards each event to every publisher in order.
type Multi []Publisher

func (m Multi) Publish(evt Event) {
	for _, p := range m {
		if p != nil {
			p.Publish(evt)
		}
	}
}
