package chat

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTransition is returned when a state change would move a session backwards.
var ErrInvalidTransition = errors.New("invalid state transition")

// State is a session lifecycle stage.
type State string

const (
	StateNew        State = "NEW"
	StateEngaged    State = "ENGAGED"
	StateStalling   State = "STALLING"
	StateConcluding State = "CONCLUDING"
	StateClosed     State = "CLOSED"
)

func (s State) rank() int {
	switch s {
	case StateNew:
		return 0
	case StateEngaged:
		return 1
	case StateStalling:
		return 2
	case StateConcluding:
		return 3
	case StateClosed:
		return 4
	default:
		return -1
	}
}

// Valid reports whether s is one of the known states.
func (s State) Valid() bool {
	return s.rank() >= 0
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateClosed
}

// CanAdvance reports whether moving from s to next keeps the walk monotonic.
// CLOSED is reachable from every live state and nothing leaves it.
func (s State) CanAdvance(next State) bool {
	if !s.Valid() || !next.Valid() || s.Terminal() {
		return false
	}
	if next == StateClosed {
		return true
	}
	return next.rank() > s.rank()
}

// Less orders states along the lifecycle.
func (s State) Less(other State) bool {
	return s.rank() < other.rank()
}

// Status is the lowercase form exposed to API clients.
func (s State) Status() string {
	return strings.ToLower(string(s))
}

// ParseState accepts any casing of a known state name.
func ParseState(raw string) (State, error) {
	state := State(strings.ToUpper(strings.TrimSpace(raw)))
	if !state.Valid() {
		return "", fmt.Errorf("unknown session state %q", raw)
	}
	return state, nil
}
