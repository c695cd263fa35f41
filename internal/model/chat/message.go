package chat

import "time"

// Direction tells whether a message came from the counterpart or from the honeypot.
type Direction string

const (
	Inbound  Direction = "inbound"
	Outbound Direction = "outbound"
)

// Well-known sender labels.
const (
	SenderScammer = "scammer"
	SenderAgent   = "agent"
)

// Message persists individual turns for audit/debug.
type Message struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Direction Direction `json:"direction"`
	// Seeded marks history supplied by the caller rather than processed as a turn.
	Seeded bool `json:"seeded,omitempty"`
}

// FromCounterpart reports whether the message was written by the other party.
func (m Message) FromCounterpart() bool {
	return m.Direction == Inbound
}

// DirectionForSender maps caller-supplied sender labels onto a direction.
func DirectionForSender(sender string) Direction {
	switch sender {
	case SenderAgent, "user", "honeypot", "assistant":
		return Outbound
	default:
		return Inbound
	}
}
