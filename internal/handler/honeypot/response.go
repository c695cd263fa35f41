package honeypot

import (
	"time"

	"github.com/zhouzirui/z-honeypot/backend/internal/analysis/scam"
	"github.com/zhouzirui/z-honeypot/backend/internal/model/chat"
	"github.com/zhouzirui/z-honeypot/backend/internal/service/callback"
	"github.com/zhouzirui/z-honeypot/backend/internal/service/conversation"
)

const (
	statusSuccess = "success"
	statusEnded   = "session_ended"
)

type engagementMetrics struct {
	EngagementDurationSeconds int64 `json:"engagementDurationSeconds"`
	TotalMessagesExchanged    int   `json:"totalMessagesExchanged"`
}

func metricsFor(s chat.Session) engagementMetrics {
	return engagementMetrics{
		EngagementDurationSeconds: int64(s.EngagementDuration().Seconds()),
		TotalMessagesExchanged:    callback.MessagesExchanged(s),
	}
}

type honeypotResponse struct {
	Status                string                         `json:"status"`
	SessionID             string                         `json:"sessionId"`
	ScamDetected          bool                           `json:"scamDetected"`
	Reply                 string                         `json:"reply"`
	ConversationStatus    string                         `json:"conversationStatus"`
	Turn                  int                            `json:"turn"`
	EngagementMetrics     engagementMetrics              `json:"engagementMetrics"`
	Intelligence          []chat.Finding                 `json:"intelligence"`
	ExtractedIntelligence callback.ExtractedIntelligence `json:"extractedIntelligence"`
	AgentNotes            string                         `json:"agentNotes"`
}

func newHoneypotResponse(requestedID string, res conversation.Result) honeypotResponse {
	s := res.Session
	status := statusSuccess
	if res.Ended {
		status = statusEnded
	}
	intel := s.Intelligence
	if intel == nil {
		intel = []chat.Finding{}
	}
	return honeypotResponse{
		Status:                status,
		SessionID:             requestedID,
		ScamDetected:          s.ScamDetected,
		Reply:                 res.Reply,
		ConversationStatus:    s.State.Status(),
		Turn:                  s.TurnCount,
		EngagementMetrics:     metricsFor(s),
		Intelligence:          intel,
		ExtractedIntelligence: callback.Extract(s),
		AgentNotes:            callback.NotesSummary(s),
	}
}

type analyzeResponse struct {
	Status                string                         `json:"status"`
	ScamDetected          bool                           `json:"scamDetected"`
	Score                 float64                        `json:"score"`
	Families              []scam.Family                  `json:"families"`
	Intelligence          []chat.Finding                 `json:"intelligence"`
	ExtractedIntelligence callback.ExtractedIntelligence `json:"extractedIntelligence"`
	AgentNotes            []string                       `json:"agentNotes"`
}

func newAnalyzeResponse(a conversation.Analysis) analyzeResponse {
	probe := chat.Session{Keywords: a.Assessment.Keywords}
	probe.Merge(a.Findings, 0)

	families := a.Assessment.Families
	if families == nil {
		families = []scam.Family{}
	}
	notes := a.Assessment.Notes
	if notes == nil {
		notes = []string{}
	}
	findings := a.Findings
	if findings == nil {
		findings = []chat.Finding{}
	}
	return analyzeResponse{
		Status:                statusSuccess,
		ScamDetected:          a.Assessment.Scam,
		Score:                 a.Assessment.Score,
		Families:              families,
		Intelligence:          findings,
		ExtractedIntelligence: callback.Extract(probe),
		AgentNotes:            notes,
	}
}

type sessionView struct {
	SessionID             string                         `json:"sessionId"`
	State                 chat.State                     `json:"state"`
	ConversationStatus    string                         `json:"conversationStatus"`
	PersonaID             string                         `json:"personaId"`
	Turn                  int                            `json:"turn"`
	ScamDetected          bool                           `json:"scamDetected"`
	ScamScore             float64                        `json:"scamScore"`
	Reported              bool                           `json:"reported"`
	SuccessorID           string                         `json:"successorId,omitempty"`
	Metadata              chat.Metadata                  `json:"metadata"`
	EngagementMetrics     engagementMetrics              `json:"engagementMetrics"`
	Intelligence          []chat.Finding                 `json:"intelligence"`
	ExtractedIntelligence callback.ExtractedIntelligence `json:"extractedIntelligence"`
	AgentNotes            string                         `json:"agentNotes"`
	History               []chat.Message                 `json:"history,omitempty"`
	CreatedAt             time.Time                      `json:"createdAt"`
	LastActivityAt        time.Time                      `json:"lastActivityAt"`
}

func newSessionView(s chat.Session, withHistory bool) sessionView {
	view := sessionView{
		SessionID:             s.ID,
		State:                 s.State,
		ConversationStatus:    s.State.Status(),
		PersonaID:             s.PersonaID,
		Turn:                  s.TurnCount,
		ScamDetected:          s.ScamDetected,
		ScamScore:             s.ScamScoreRunningMax,
		Reported:              s.Reported,
		SuccessorID:           s.SuccessorID,
		Metadata:              s.Metadata,
		EngagementMetrics:     metricsFor(s),
		Intelligence:          s.Intelligence,
		ExtractedIntelligence: callback.Extract(s),
		AgentNotes:            callback.NotesSummary(s),
		CreatedAt:             s.CreatedAt,
		LastActivityAt:        s.LastActivityAt,
	}
	if view.Intelligence == nil {
		view.Intelligence = []chat.Finding{}
	}
	if withHistory {
		view.History = s.History
	}
	return view
}
