package conversation

import (
	"github.com/zhouzirui/z-honeypot/backend/internal/model/chat"
)

type replyMode int

const (
	replyGenerated replyMode = iota
	replyNeutral
	replyNone
)

// transition applies at most one state change to s and says how to answer.
func (e *Engine) transition(s *chat.Session) replyMode {
	next := s.State
	mode := replyGenerated

	switch s.State {
	case chat.StateNew:
		if s.ScamDetected {
			next = chat.StateEngaged
		} else {
			next = chat.StateClosed
			mode = replyNeutral
		}
	case chat.StateEngaged:
		if s.TurnCount > e.cfg.StallAfterTurns || e.plateaued(*s) || e.budgetReached(*s) {
			next = chat.StateStalling
		}
	case chat.StateStalling:
		if len(s.DistinctKinds()) >= e.cfg.MinFindingKinds || e.budgetReached(*s) {
			next = chat.StateConcluding
		}
	case chat.StateConcluding:
		next = chat.StateClosed
		if e.budgetExceeded(*s) {
			mode = replyNone
		}
	}

	if next != s.State {
		if err := s.Advance(next); err != nil {
			e.logger.Error("refusing state change", "session_id", s.ID, "error", err)
		}
	}
	return mode
}

func (e *Engine) plateaued(s chat.Session) bool {
	return e.cfg.PlateauTurns > 0 && s.TurnsSinceNewFinding >= e.cfg.PlateauTurns
}

func (e *Engine) budgetReached(s chat.Session) bool {
	if e.cfg.MaxTurns > 0 && s.TurnCount >= e.cfg.MaxTurns {
		return true
	}
	return e.cfg.MaxDuration > 0 && s.EngagementDuration() >= e.cfg.MaxDuration
}

func (e *Engine) budgetExceeded(s chat.Session) bool {
	if e.cfg.MaxTurns > 0 && s.TurnCount > e.cfg.MaxTurns {
		return true
	}
	return e.cfg.MaxDuration > 0 && s.EngagementDuration() > e.cfg.MaxDuration
}
