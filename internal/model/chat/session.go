package chat

import (
	"fmt"
	"time"
)

// Metadata carries channel hints supplied with the first message.
type Metadata struct {
	Channel  string `json:"channel,omitempty"`
	Language string `json:"language,omitempty"`
	Locale   string `json:"locale,omitempty"`
}

// IsZero reports whether no metadata field is set.
func (m Metadata) IsZero() bool {
	return m.Channel == "" && m.Language == "" && m.Locale == ""
}

// Fill copies fields from other that are empty in m.
func (m Metadata) Fill(other Metadata) Metadata {
	if m.Channel == "" {
		m.Channel = other.Channel
	}
	if m.Language == "" {
		m.Language = other.Language
	}
	if m.Locale == "" {
		m.Locale = other.Locale
	}
	return m
}

// Session captures one honeypot conversation keyed by the caller's session id.
type Session struct {
	ID                   string    `json:"id"`
	PersonaID            string    `json:"personaId"`
	State                State     `json:"state"`
	TurnCount            int       `json:"turnCount"`
	History              []Message `json:"history"`
	Intelligence         []Finding `json:"intelligence"`
	Keywords             []string  `json:"suspiciousKeywords,omitempty"`
	Notes                []string  `json:"agentNotes,omitempty"`
	Metadata             Metadata  `json:"metadata"`
	CreatedAt            time.Time `json:"createdAt"`
	LastActivityAt       time.Time `json:"lastActivityAt"`
	ScamScoreRunningMax  float64   `json:"scamScoreRunningMax"`
	ScamDetected         bool      `json:"scamDetected"`
	TurnsSinceNewFinding int       `json:"turnsSinceNewFinding"`
	Reported             bool      `json:"reported"`
	ReportedState        State     `json:"reportedState,omitempty"`
	ReportedKinds        []Kind    `json:"reportedKinds,omitempty"`
	SuccessorID          string    `json:"successorId,omitempty"`
	Version              int64     `json:"version"`
}

// NewSession returns a NEW session created at now.
func NewSession(id string, now time.Time) Session {
	return Session{
		ID:             id,
		State:          StateNew,
		CreatedAt:      now,
		LastActivityAt: now,
	}
}

// Advance moves the session to next, refusing backwards moves and anything out of CLOSED.
func (s *Session) Advance(next State) error {
	if !s.State.CanAdvance(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.State, next)
	}
	s.State = next
	return nil
}

// Merge adds findings that are not yet present and returns the ones that were new.
// Findings without a turn are stamped with turn. Existing entries only ever keep
// the earlier of the two turns.
func (s *Session) Merge(findings []Finding, turn int) []Finding {
	index := make(map[string]int, len(s.Intelligence))
	for i, f := range s.Intelligence {
		index[f.Key()] = i
	}

	var added []Finding
	for _, f := range findings {
		if f.Value == "" {
			continue
		}
		if f.FirstSeenTurn <= 0 {
			f.FirstSeenTurn = turn
		}
		if i, ok := index[f.Key()]; ok {
			if f.FirstSeenTurn < s.Intelligence[i].FirstSeenTurn {
				s.Intelligence[i].FirstSeenTurn = f.FirstSeenTurn
			}
			continue
		}
		index[f.Key()] = len(s.Intelligence)
		s.Intelligence = append(s.Intelligence, f)
		added = append(added, f)
	}
	return added
}

// DistinctKinds returns the kinds present in the intelligence, in reporting order.
func (s Session) DistinctKinds() []Kind {
	seen := make(map[Kind]bool, len(Kinds))
	for _, f := range s.Intelligence {
		seen[f.Kind] = true
	}
	kinds := make([]Kind, 0, len(seen))
	for _, k := range Kinds {
		if seen[k] {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// UnreportedKinds lists kinds gathered since the last successful report.
func (s Session) UnreportedKinds() []Kind {
	reported := make(map[Kind]bool, len(s.ReportedKinds))
	for _, k := range s.ReportedKinds {
		reported[k] = true
	}
	var pending []Kind
	for _, k := range s.DistinctKinds() {
		if !reported[k] {
			pending = append(pending, k)
		}
	}
	return pending
}

// FindingsOf returns the values of a single kind in first-seen order.
func (s Session) FindingsOf(kind Kind) []string {
	values := make([]string, 0)
	for _, f := range s.Intelligence {
		if f.Kind == kind {
			values = append(values, f.Value)
		}
	}
	return values
}

// AddKeywords appends keywords not seen before.
func (s *Session) AddKeywords(words []string) {
	s.Keywords = appendUnique(s.Keywords, words)
}

// AddNotes appends agent notes not seen before.
func (s *Session) AddNotes(notes []string) {
	s.Notes = appendUnique(s.Notes, notes)
}

// EngagementDuration is the time between creation and the latest activity.
func (s Session) EngagementDuration() time.Duration {
	if s.LastActivityAt.Before(s.CreatedAt) {
		return 0
	}
	return s.LastActivityAt.Sub(s.CreatedAt)
}

// Clone returns a deep copy safe to mutate independently.
func (s Session) Clone() Session {
	out := s
	out.History = append([]Message(nil), s.History...)
	out.Intelligence = append([]Finding(nil), s.Intelligence...)
	out.Keywords = append([]string(nil), s.Keywords...)
	out.Notes = append([]string(nil), s.Notes...)
	out.ReportedKinds = append([]Kind(nil), s.ReportedKinds...)
	return out
}

func appendUnique(dst, src []string) []string {
	if len(src) == 0 {
		return dst
	}
	seen := make(map[string]bool, len(dst))
	for _, v := range dst {
		seen[v] = true
	}
	for _, v := range src {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		dst = append(dst, v)
	}
	return dst
}
