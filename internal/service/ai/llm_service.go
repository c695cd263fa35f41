package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/z-honeypot/backend/internal/config"
	"github.com/zhouzirui/z-honeypot/backend/internal/model/chat"
	"github.com/zhouzirui/z-honeypot/backend/internal/model/persona"
)

const (
	defaultHistoryLimit = 10
	defaultReplyTimeout = 8 * time.Second
	maxReplyRunes       = 480
)

// Generator runs one prompt through the model chain.
// compose.Runnable satisfies it; tests substitute scripted stubs.
type Generator interface {
	Invoke(ctx context.Context, input map[string]any, opts ...compose.Option) (*schema.Message, error)
}

// Options tunes the responder.
type Options struct {
	HistoryLimit int
	Timeout      time.Duration
}

// ReplyInput is everything the responder needs to write the next line.
type ReplyInput struct {
	SessionID string
	Persona   persona.Persona
	State     chat.State
	Turn      int
	History   []chat.Message
	Metadata  chat.Metadata
}

// Responder writes persona-consistent replies and never fails: any generation
// problem falls back to a canned stalling line.
type Responder struct {
	generator Generator
	prompts   *PersonaPromptManager
	opts      Options
	logger    *slog.Logger
}

// NewChain compiles the prompt template and chat model into a runnable chain.
func NewChain(ctx context.Context, chatModel model.ChatModel) (compose.Runnable[map[string]any, *schema.Message], error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}
	return runnable, nil
}

// NewService builds a model-backed responder from configuration.
func NewService(ctx context.Context, cfg config.AIConfig, logger *slog.Logger) (*Responder, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	chain, err := NewChain(ctx, chatModel)
	if err != nil {
		return nil, err
	}

	return NewResponder(chain, Options{HistoryLimit: cfg.HistoryLimit, Timeout: cfg.ReplyTimeout}, logger), nil
}

// NewResponder wraps generator. A nil generator yields fallback replies only.
func NewResponder(generator Generator, opts Options, logger *slog.Logger) *Responder {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = defaultHistoryLimit
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultReplyTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{
		generator: generator,
		prompts:   NewPersonaPromptManager(),
		opts:      opts,
		logger:    logger,
	}
}

// Enabled reports whether a model backs the responder.
func (r *Responder) Enabled() bool {
	return r.generator != nil
}

// Reply returns the next honeypot message for the conversation.
func (r *Responder) Reply(ctx context.Context, in ReplyInput) string {
	if r.generator == nil {
		return Fallback(in.State, in.Turn)
	}

	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	started := time.Now()
	response, err := r.generator.Invoke(ctx, r.buildChainInput(in))
	if err != nil {
		r.logger.Warn("reply generation failed, using fallback",
			"session_id", in.SessionID, "state", in.State, "turn", in.Turn, "error", err)
		return Fallback(in.State, in.Turn)
	}
	if response == nil {
		r.logger.Warn("reply generation returned nil message", "session_id", in.SessionID)
		return Fallback(in.State, in.Turn)
	}

	reply, ok := sanitizeReply(response.Content)
	if !ok {
		r.logger.Warn("reply rejected, using fallback",
			"session_id", in.SessionID, "turn", in.Turn, "length", len(response.Content))
		return Fallback(in.State, in.Turn)
	}

	r.logger.Debug("reply generated",
		"session_id", in.SessionID, "persona", in.Persona.ID, "length", len(reply),
		"elapsed_ms", time.Since(started).Milliseconds())
	return reply
}

func (r *Responder) buildChainInput(in ReplyInput) map[string]any {
	history, query := splitHistory(in.History, r.opts.HistoryLimit)
	return map[string]any{
		"system":  r.prompts.BuildSystemPrompt(&in.Persona, in.State, in.Metadata),
		"history": history,
		"query":   query,
	}
}

// splitHistory keeps the last limit entries; a trailing inbound message becomes the query.
func splitHistory(messages []chat.Message, limit int) ([]*schema.Message, string) {
	query := "(the other person is waiting for your answer)"
	if n := len(messages); n > 0 && messages[n-1].Direction == chat.Inbound {
		query = messages[n-1].Text
		messages = messages[:n-1]
	}

	startIdx := 0
	if len(messages) > limit-1 {
		startIdx = len(messages) - (limit - 1)
	}
	if startIdx < 0 {
		startIdx = 0
	}

	history := make([]*schema.Message, 0, len(messages)-startIdx)
	for _, msg := range messages[startIdx:] {
		switch msg.Direction {
		case chat.Inbound:
			history = append(history, schema.UserMessage(msg.Text))
		case chat.Outbound:
			history = append(history, schema.AssistantMessage(msg.Text, nil))
		}
	}
	return history, query
}

// exposureTerms are words the persona must never say; they would reveal the honeypot.
var exposureTerms = []string{
	"scam", "fraud", "fake", "police", "phishing", "honeypot", "cyber crime", "cybercrime",
	"report you", "reporting you", "as an ai", "language model", "i am an ai", "chatbot",
}

func sanitizeReply(raw string) (string, bool) {
	reply := strings.TrimSpace(raw)
	reply = strings.Trim(reply, "\"'` ")
	reply = strings.Join(strings.Fields(reply), " ")
	if reply == "" {
		return "", false
	}

	lower := strings.ToLower(reply)
	for _, term := range exposureTerms {
		if strings.Contains(lower, term) {
			return "", false
		}
	}

	if utf8.RuneCountInString(reply) > maxReplyRunes {
		runes := []rune(reply)
		reply = strings.TrimSpace(string(runes[:maxReplyRunes]))
	}
	return reply, true
}
