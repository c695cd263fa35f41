package honeypot

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/zhouzirui/z-honeypot/backend/internal/model/chat"
	"github.com/zhouzirui/z-honeypot/backend/internal/service/conversation"
)

// flexibleTimestamp 接受 ISO-8601 字符串或 epoch 数字，无法识别时留空由引擎兜底
type flexibleTimestamp string

func (t *flexibleTimestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = flexibleTimestamp(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*t = flexibleTimestamp(n.String())
		return nil
	}
	*t = ""
	return nil
}

type messagePayload struct {
	Sender    string            `json:"sender"`
	Text      string            `json:"text"`
	Timestamp flexibleTimestamp `json:"timestamp"`
}

type honeypotRequest struct {
	SessionID           string           `json:"sessionId"`
	Message             messagePayload   `json:"message"`
	ConversationHistory []messagePayload `json:"conversationHistory"`
	Metadata            chat.Metadata    `json:"metadata"`
}

func (req honeypotRequest) inbound() conversation.Inbound {
	history := make([]conversation.HistoryEntry, 0, len(req.ConversationHistory))
	for _, m := range req.ConversationHistory {
		history = append(history, conversation.HistoryEntry{
			Sender:    strings.ToLower(strings.TrimSpace(m.Sender)),
			Text:      m.Text,
			Timestamp: string(m.Timestamp),
		})
	}
	return conversation.Inbound{
		SessionID: req.SessionID,
		Sender:    strings.ToLower(strings.TrimSpace(req.Message.Sender)),
		Text:      req.Message.Text,
		Timestamp: string(req.Message.Timestamp),
		History:   history,
		Metadata:  req.Metadata,
	}
}

type analyzeRequest struct {
	Text    string         `json:"text"`
	Message messagePayload `json:"message"`
}

func (req analyzeRequest) text() string {
	if strings.TrimSpace(req.Text) != "" {
		return req.Text
	}
	return req.Message.Text
}
