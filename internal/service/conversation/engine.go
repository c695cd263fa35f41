// Package conversation drives a honeypot session through its lifecycle, one
// inbound message at a time.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/zhouzirui/z-honeypot/backend/internal/analysis/extract"
	"github.com/zhouzirui/z-honeypot/backend/internal/analysis/scam"
	"github.com/zhouzirui/z-honeypot/backend/internal/config"
	"github.com/zhouzirui/z-honeypot/backend/internal/model/chat"
	"github.com/zhouzirui/z-honeypot/backend/internal/model/persona"
	"github.com/zhouzirui/z-honeypot/backend/internal/service/ai"
	"github.com/zhouzirui/z-honeypot/backend/internal/service/callback"
	"github.com/zhouzirui/z-honeypot/backend/internal/service/events"
	"github.com/zhouzirui/z-honeypot/backend/internal/service/session"
)

const (
	maxSessionIDLength = 128
	maxMessageRunes    = 4000
	maxSeededMessages  = 50
	maxSuccessorDepth  = 8
	markReportTimeout  = 5 * time.Second

	// CLOSED sessions get no later trigger, so failed final reports are retried on a timer.
	maxClosedReportRetries = 3
	closedReportRetryDelay = 30 * time.Second
)

var (
	// ErrInvalidMessage marks requests rejected before any state is touched.
	ErrInvalidMessage = errors.New("invalid message")
	// ErrStoreContention is returned when optimistic saves keep losing races.
	ErrStoreContention = errors.New("session store contention")
)

// Classifier scores inbound text.
type Classifier interface {
	Analyze(text string) scam.Assessment
}

// Extractor pulls intelligence out of inbound text.
type Extractor interface {
	Extract(text string) []chat.Finding
}

// Responder writes the honeypot's next line. It must always return text.
type Responder interface {
	Reply(ctx context.Context, in ai.ReplyInput) string
}

// Reporter delivers reports in the background and calls onResult when done.
type Reporter interface {
	Enabled() bool
	Dispatch(rep callback.Report, onResult func(callback.Report, error))
}

// HistoryEntry is one message of caller-supplied prior conversation.
type HistoryEntry struct {
	Sender    string
	Text      string
	Timestamp string
}

// Inbound is one message from the counterpart.
type Inbound struct {
	SessionID string
	Sender    string
	Text      string
	Timestamp string
	History   []HistoryEntry
	Metadata  chat.Metadata
}

func (in Inbound) validate() error {
	id := strings.TrimSpace(in.SessionID)
	switch {
	case id == "":
		return fmt.Errorf("%w: sessionId is required", ErrInvalidMessage)
	case len(id) > maxSessionIDLength:
		return fmt.Errorf("%w: sessionId longer than %d characters", ErrInvalidMessage, maxSessionIDLength)
	case strings.TrimSpace(in.Text) == "":
		return fmt.Errorf("%w: message text is required", ErrInvalidMessage)
	case utf8.RuneCountInString(in.Text) > maxMessageRunes:
		return fmt.Errorf("%w: message text longer than %d characters", ErrInvalidMessage, maxMessageRunes)
	}
	return nil
}

// Result is the outcome of handling one inbound message.
type Result struct {
	Session    chat.Session
	Reply      string
	Ended      bool
	Previous   chat.State
	Assessment scam.Assessment
	Added      []chat.Finding
}

// Analysis is a side-effect free classification of a piece of text.
type Analysis struct {
	Assessment scam.Assessment
	Findings   []chat.Finding
}

// Deps groups the collaborators of an Engine. Reporter, Events and Extractor are optional.
type Deps struct {
	Store      session.Store
	Classifier Classifier
	Extractor  Extractor
	Responder  Responder
	Reporter   Reporter
	Events     events.Publisher
	Personas   persona.Store
}

// Engine processes inbound messages. Work on one session is serialized; distinct
// sessions proceed in parallel.
type Engine struct {
	store          session.Store
	classifier     Classifier
	extractor      Extractor
	responder      Responder
	reporter       Reporter
	events         events.Publisher
	personas       persona.Store
	cfg            config.EngineConfig
	defaultPersona string
	logger         *slog.Logger

	locks *keyedMutex
	now   func() time.Time

	reportMu    sync.Mutex
	reporting   map[string]bool
	retryDelay  time.Duration
	retries     map[string]int
	retryTimers map[string]*time.Timer
	stopped     bool
}

// New wires an engine.
func New(deps Deps, cfg config.EngineConfig, defaultPersona string, logger *slog.Logger) (*Engine, error) {
	if deps.Store == nil || deps.Classifier == nil || deps.Responder == nil || deps.Personas == nil {
		return nil, errors.New("conversation engine requires store, classifier, responder and personas")
	}
	if deps.Extractor == nil {
		deps.Extractor = extract.New()
	}
	if deps.Events == nil {
		deps.Events = events.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SaveRetries < 0 {
		cfg.SaveRetries = 0
	}
	if cfg.MinFindingKinds <= 0 {
		cfg.MinFindingKinds = 2
	}

	return &Engine{
		store:          deps.Store,
		classifier:     deps.Classifier,
		extractor:      deps.Extractor,
		responder:      deps.Responder,
		reporter:       deps.Reporter,
		events:         deps.Events,
		personas:       deps.Personas,
		cfg:            cfg,
		defaultPersona: defaultPersona,
		logger:         logger,
		locks:          newKeyedMutex(),
		now:            func() time.Time { return time.Now().UTC() },
		reporting:      make(map[string]bool),
		retryDelay:     closedReportRetryDelay,
		retries:        make(map[string]int),
		retryTimers:    make(map[string]*time.Timer),
	}, nil
}

// Close cancels pending report retries. Deliveries already in flight are left
// to the reporter.
func (e *Engine) Close() {
	e.reportMu.Lock()
	defer e.reportMu.Unlock()
	e.stopped = true
	for id, timer := range e.retryTimers {
		timer.Stop()
		delete(e.retryTimers, id)
	}
}

// Analyze classifies text and extracts intelligence without touching any session.
func (e *Engine) Analyze(text string) Analysis {
	return Analysis{
		Assessment: e.classifier.Analyze(text),
		Findings:   e.extractor.Extract(text),
	}
}

// Session returns the stored snapshot for id.
func (e *Engine) Session(ctx context.Context, id string) (chat.Session, error) {
	return e.store.Get(ctx, strings.TrimSpace(id))
}

// Sessions lists recent sessions.
func (e *Engine) Sessions(ctx context.Context, limit int) ([]chat.Session, error) {
	return e.store.List(ctx, limit)
}

// Handle processes one inbound message and returns the reply to send back.
func (e *Engine) Handle(ctx context.Context, in Inbound) (Result, error) {
	if err := in.validate(); err != nil {
		return Result{}, err
	}
	in.SessionID = strings.TrimSpace(in.SessionID)

	result, err := e.handleLocked(ctx, in)
	if err != nil {
		return Result{}, err
	}
	if !result.Ended && needsReport(result.Session) {
		e.dispatchReport(result.Session)
	}
	return result, nil
}

func (e *Engine) handleLocked(ctx context.Context, in Inbound) (Result, error) {
	unlock := e.locks.Lock(in.SessionID)
	defer unlock()

	now := e.now()

	current, err := e.store.GetOrCreate(ctx, in.SessionID)
	if err != nil {
		return Result{}, fmt.Errorf("load session %s: %w", in.SessionID, err)
	}

	if current.State == chat.StateClosed {
		if e.cfg.ClosedPolicy != config.ClosedPolicyReopen {
			e.logger.Info("message for closed session ignored", "session_id", current.ID)
			return Result{Session: current, Ended: true, Previous: current.State}, nil
		}
		current, err = e.successor(ctx, current)
		if err != nil {
			return Result{}, err
		}
		if current.State == chat.StateClosed {
			e.logger.Warn("successor chain exhausted", "session_id", in.SessionID)
			return Result{Session: current, Ended: true, Previous: current.State}, nil
		}
	}

	classified := in.Text
	if len(current.History) == 0 && len(in.History) > 0 {
		classified = seededCounterpartText(in.History) + "\n" + in.Text
	}
	assessment := e.classifier.Analyze(classified)

	replies := make(map[chat.State]string)
	attempts := e.cfg.SaveRetries + 1
	for attempt := 1; ; attempt++ {
		fresh := current.TurnCount == 0 && current.State == chat.StateNew
		next, added, reply := e.apply(ctx, current, in, assessment, now, replies)

		saved, err := e.store.Save(ctx, next)
		if err == nil {
			e.publishTurn(current.State, saved, added, fresh)
			e.logger.Info("message handled",
				"session_id", saved.ID, "state", saved.State, "turn", saved.TurnCount,
				"score", assessment.Score, "new_findings", len(added))
			return Result{
				Session:    saved,
				Reply:      reply,
				Previous:   current.State,
				Assessment: assessment,
				Added:      added,
			}, nil
		}
		if !errors.Is(err, session.ErrVersionConflict) {
			return Result{}, fmt.Errorf("save session %s: %w", current.ID, err)
		}
		if attempt >= attempts {
			e.logger.Warn("giving up after version conflicts", "session_id", current.ID, "attempts", attempt)
			return Result{}, fmt.Errorf("%w: session %s", ErrStoreContention, current.ID)
		}

		current, err = e.store.Get(ctx, current.ID)
		if err != nil {
			return Result{}, fmt.Errorf("reload session %s: %w", in.SessionID, err)
		}
		if current.State == chat.StateClosed {
			return Result{Session: current, Ended: true, Previous: current.State}, nil
		}
	}
}

// apply folds one inbound message into a copy of current and produces the reply.
func (e *Engine) apply(ctx context.Context, current chat.Session, in Inbound, assessment scam.Assessment, now time.Time, replies map[chat.State]string) (chat.Session, []chat.Finding, string) {
	s := current.Clone()
	turn := s.TurnCount + 1
	if s.TurnCount == 0 {
		// engagement is measured from the first processed message
		s.CreatedAt = now
	}

	if s.PersonaID == "" {
		if p, ok := persona.Choose(e.personas, e.defaultPersona, s.ID); ok {
			s.PersonaID = p.ID
		}
	}
	s.Metadata = s.Metadata.Fill(in.Metadata)

	var findings []chat.Finding
	if len(s.History) == 0 && len(in.History) > 0 {
		findings = append(findings, e.seed(&s, in.History, now)...)
	}

	sender := strings.TrimSpace(in.Sender)
	if sender == "" {
		sender = chat.SenderScammer
	}
	s.History = append(s.History, chat.Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Text:      in.Text,
		Timestamp: ParseTimestamp(in.Timestamp, now),
		Direction: chat.Inbound,
	})
	s.TurnCount = turn
	s.LastActivityAt = now

	if assessment.Score > s.ScamScoreRunningMax {
		s.ScamScoreRunningMax = assessment.Score
	}
	if assessment.Scam {
		s.ScamDetected = true
	}
	s.AddKeywords(assessment.Keywords)
	s.AddNotes(assessment.Notes)

	findings = append(findings, e.extractor.Extract(in.Text)...)
	added := s.Merge(findings, turn)
	if len(added) > 0 {
		s.TurnsSinceNewFinding = 0
	} else {
		s.TurnsSinceNewFinding++
	}

	mode := e.transition(&s)

	var reply string
	switch mode {
	case replyNeutral:
		reply = ai.NeutralReply
	case replyGenerated:
		if cached, ok := replies[s.State]; ok {
			reply = cached
			break
		}
		reply = e.generate(ctx, s)
		replies[s.State] = reply
	}

	if reply != "" {
		s.History = append(s.History, chat.Message{
			ID:        uuid.NewString(),
			Sender:    chat.SenderAgent,
			Text:      reply,
			Timestamp: now,
			Direction: chat.Outbound,
		})
	}
	return s, added, reply
}

// seed copies caller-supplied history into a session that has none and returns
// what the counterpart side of it reveals.
func (e *Engine) seed(s *chat.Session, history []HistoryEntry, now time.Time) []chat.Finding {
	if len(history) > maxSeededMessages {
		history = history[len(history)-maxSeededMessages:]
	}
	var findings []chat.Finding
	for _, h := range history {
		text := strings.TrimSpace(h.Text)
		if text == "" {
			continue
		}
		sender := strings.TrimSpace(h.Sender)
		if sender == "" {
			sender = chat.SenderScammer
		}
		msg := chat.Message{
			ID:        uuid.NewString(),
			Sender:    sender,
			Text:      text,
			Timestamp: ParseTimestamp(h.Timestamp, now),
			Direction: chat.DirectionForSender(sender),
			Seeded:    true,
		}
		s.History = append(s.History, msg)
		if msg.FromCounterpart() {
			findings = append(findings, e.extractor.Extract(text)...)
		}
	}
	return findings
}

func seededCounterpartText(history []HistoryEntry) string {
	var parts []string
	for _, h := range history {
		sender := strings.TrimSpace(h.Sender)
		if sender == "" || chat.DirectionForSender(sender) == chat.Inbound {
			parts = append(parts, h.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func (e *Engine) generate(ctx context.Context, s chat.Session) string {
	p, ok := e.personas.FindByID(s.PersonaID)
	if !ok {
		p, _ = persona.Choose(e.personas, e.defaultPersona, s.ID)
	}
	reply := strings.TrimSpace(e.responder.Reply(ctx, ai.ReplyInput{
		SessionID: s.ID,
		Persona:   p,
		State:     s.State,
		Turn:      s.TurnCount,
		History:   s.History,
		Metadata:  s.Metadata,
	}))
	if reply == "" {
		reply = ai.Fallback(s.State, s.TurnCount)
	}
	return reply
}

// successor resolves the live session that replaces a closed one, creating it
// when the chain ends in a closed session without a successor.
func (e *Engine) successor(ctx context.Context, closed chat.Session) (chat.Session, error) {
	base, _, _ := strings.Cut(closed.ID, "~")
	current := closed

	for depth := 0; depth < maxSuccessorDepth; depth++ {
		if current.SuccessorID == "" {
			current.SuccessorID = base + "~" + uuid.NewString()[:8]
			if _, err := e.store.Save(ctx, current); err != nil {
				if !errors.Is(err, session.ErrVersionConflict) {
					return chat.Session{}, fmt.Errorf("link successor for %s: %w", current.ID, err)
				}
				if current, err = e.store.Get(ctx, current.ID); err != nil {
					return chat.Session{}, fmt.Errorf("reload session %s: %w", closed.ID, err)
				}
				continue
			}
			e.logger.Info("reopened closed session", "session_id", current.ID, "successor_id", current.SuccessorID)
		}

		next, err := e.store.GetOrCreate(ctx, current.SuccessorID)
		if err != nil {
			return chat.Session{}, fmt.Errorf("load successor %s: %w", current.SuccessorID, err)
		}
		if next.State != chat.StateClosed {
			return next, nil
		}
		current = next
	}
	return current, nil
}

func (e *Engine) publishTurn(previous chat.State, saved chat.Session, added []chat.Finding, fresh bool) {
	if fresh {
		evt := events.New(events.SessionCreated, saved.ID)
		evt.State = chat.StateNew
		e.events.Publish(evt)
	}
	if saved.State != previous {
		evt := events.New(events.StateChanged, saved.ID)
		evt.State = saved.State
		evt.PreviousState = previous
		evt.Turn = saved.TurnCount
		e.events.Publish(evt)
	}
	for i := range added {
		evt := events.New(events.FindingAdded, saved.ID)
		evt.State = saved.State
		evt.Turn = saved.TurnCount
		evt.Finding = &added[i]
		e.events.Publish(evt)
	}
}
