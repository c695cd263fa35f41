// Package callback delivers session intelligence to the evaluation endpoint.
package callback

import (
	"strings"

	"github.com/zhouzirui/z-honeypot/backend/internal/model/chat"
)

const defaultNotesSummary = "Scam engagement in progress"

// ExtractedIntelligence groups finding values by kind.
type ExtractedIntelligence struct {
	BankAccounts       []string `json:"bankAccounts"`
	UPIIDs             []string `json:"upiIds"`
	PhishingLinks      []string `json:"phishingLinks"`
	PhoneNumbers       []string `json:"phoneNumbers"`
	SuspiciousKeywords []string `json:"suspiciousKeywords"`
}

// Report is the callback payload.
type Report struct {
	SessionID                 string                `json:"sessionId"`
	ScamDetected              bool                  `json:"scamDetected"`
	State                     chat.State            `json:"state"`
	TotalMessagesExchanged    int                   `json:"totalMessagesExchanged"`
	EngagementDurationSeconds int64                 `json:"engagementDurationSeconds"`
	Intelligence              []chat.Finding        `json:"intelligence"`
	ExtractedIntelligence     ExtractedIntelligence `json:"extractedIntelligence"`
	AgentNotes                string                `json:"agentNotes"`

	// Kinds is the set of finding kinds the report covers.
	Kinds []chat.Kind `json:"-"`
}

// FromSession snapshots s into a report.
func FromSession(s chat.Session) Report {
	intel := append([]chat.Finding{}, s.Intelligence...)
	return Report{
		SessionID:                 s.ID,
		ScamDetected:              s.ScamDetected,
		State:                     s.State,
		TotalMessagesExchanged:    MessagesExchanged(s),
		EngagementDurationSeconds: int64(s.EngagementDuration().Seconds()),
		Intelligence:              intel,
		ExtractedIntelligence:     Extract(s),
		AgentNotes:                NotesSummary(s),
		Kinds:                     s.DistinctKinds(),
	}
}

// Extract groups the session intelligence by kind.
func Extract(s chat.Session) ExtractedIntelligence {
	keywords := append([]string{}, s.Keywords...)
	return ExtractedIntelligence{
		BankAccounts:       s.FindingsOf(chat.KindBankAccount),
		UPIIDs:             s.FindingsOf(chat.KindUPIID),
		PhishingLinks:      s.FindingsOf(chat.KindURL),
		PhoneNumbers:       s.FindingsOf(chat.KindPhoneNumber),
		SuspiciousKeywords: keywords,
	}
}

// MessagesExchanged counts processed messages in both directions. Seeded history is excluded.
func MessagesExchanged(s chat.Session) int {
	n := 0
	for _, m := range s.History {
		if !m.Seeded {
			n++
		}
	}
	return n
}

// NotesSummary joins the agent notes into one line.
func NotesSummary(s chat.Session) string {
	if len(s.Notes) == 0 {
		return defaultNotesSummary
	}
	return strings.Join(s.Notes, "; ")
}
