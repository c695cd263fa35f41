package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/z-honeypot/backend/internal/analysis/scam"
	"github.com/zhouzirui/z-honeypot/backend/internal/config"
	"github.com/zhouzirui/z-honeypot/backend/internal/model/chat"
	"github.com/zhouzirui/z-honeypot/backend/internal/model/persona"
	"github.com/zhouzirui/z-honeypot/backend/internal/service/ai"
	"github.com/zhouzirui/z-honeypot/backend/internal/service/callback"
	"github.com/zhouzirui/z-honeypot/backend/internal/service/events"
	"github.com/zhouzirui/z-honeypot/backend/internal/service/session"
)

const blockedAccountMessage = "Your account will be blocked! Call 9876543210 immediately or pay to UPI id fraud@examplebank."

type scriptedResponder struct {
	mu    sync.Mutex
	calls []ai.ReplyInput
}

func (r *scriptedResponder) Reply(_ context.Context, in ai.ReplyInput) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, in)
	return fmt.Sprintf("%s reply %d", strings.ToLower(string(in.State)), in.Turn)
}

func (r *scriptedResponder) lastState() chat.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return ""
	}
	return r.calls[len(r.calls)-1].State
}

type failingGenerator struct{}

func (failingGenerator) Invoke(context.Context, map[string]any, ...compose.Option) (*schema.Message, error) {
	return nil, errors.New("model unavailable")
}

type fakeReporter struct {
	mu      sync.Mutex
	reports []callback.Report
	fail    bool
	wg      sync.WaitGroup
}

func (f *fakeReporter) Enabled() bool { return true }

func (f *fakeReporter) Dispatch(rep callback.Report, onResult func(callback.Report, error)) {
	f.mu.Lock()
	f.reports = append(f.reports, rep)
	fail := f.fail
	f.mu.Unlock()

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		var err error
		if fail {
			err = errors.New("endpoint down")
		}
		onResult(rep, err)
	}()
}

func (f *fakeReporter) setFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

func (f *fakeReporter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reports)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingPublisher) Publish(evt events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recordingPublisher) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, len(r.events))
	for i, evt := range r.events {
		out[i] = evt.Type
	}
	return out
}

// conflictStore loses every save race.
type conflictStore struct {
	session.Store
}

func (conflictStore) Save(context.Context, chat.Session) (chat.Session, error) {
	return chat.Session{}, session.ErrVersionConflict
}

// racingStore lets another writer commit just before the first save lands.
type racingStore struct {
	session.Store
	once  sync.Once
	rival func()
}

func (r *racingStore) Save(ctx context.Context, s chat.Session) (chat.Session, error) {
	r.once.Do(r.rival)
	return r.Store.Save(ctx, s)
}

func testConfig() config.EngineConfig {
	return config.EngineConfig{
		ScamThreshold:   scam.DefaultThreshold,
		StallAfterTurns: 4,
		PlateauTurns:    3,
		MinFindingKinds: 2,
		MaxTurns:        10,
		MaxDuration:     30 * time.Minute,
		ClosedPolicy:    config.ClosedPolicyReject,
		SaveRetries:     3,
	}
}

type fixture struct {
	engine    *Engine
	store     *session.MemoryStore
	responder *scriptedResponder
	reporter  *fakeReporter
	events    *recordingPublisher
}

func newFixture(t *testing.T, cfg config.EngineConfig) *fixture {
	t.Helper()
	f := &fixture{
		store:     session.NewMemoryStore(),
		responder: &scriptedResponder{},
		reporter:  &fakeReporter{},
		events:    &recordingPublisher{},
	}
	engine, err := New(Deps{
		Store:      f.store,
		Classifier: scam.New(cfg.ScamThreshold),
		Responder:  f.responder,
		Reporter:   f.reporter,
		Events:     f.events,
		Personas:   persona.NewMemoryStore(persona.Seed()),
	}, cfg, "retired-teacher", nil)
	require.NoError(t, err)
	f.engine = engine
	return f
}

func (f *fixture) send(t *testing.T, id, text string) Result {
	t.Helper()
	res, err := f.engine.Handle(context.Background(), Inbound{SessionID: id, Sender: chat.SenderScammer, Text: text})
	require.NoError(t, err)
	f.reporter.wg.Wait()
	return res
}

func findingValues(s chat.Session, kind chat.Kind) []string {
	return s.FindingsOf(kind)
}

func TestHandleBlockedAccountScenario(t *testing.T) {
	f := newFixture(t, testConfig())

	res := f.send(t, "case-1", blockedAccountMessage)

	assert.Equal(t, chat.StateNew, res.Previous)
	assert.Equal(t, chat.StateEngaged, res.Session.State)
	assert.True(t, res.Session.ScamDetected)
	assert.True(t, res.Assessment.Scam)
	assert.Equal(t, []string{"9876543210"}, findingValues(res.Session, chat.KindPhoneNumber))
	assert.Equal(t, []string{"fraud@examplebank"}, findingValues(res.Session, chat.KindUPIID))
	for _, finding := range res.Session.Intelligence {
		assert.Equal(t, 1, finding.FirstSeenTurn)
	}
	assert.Equal(t, "engaged reply 1", res.Reply)
	assert.Equal(t, 1, res.Session.TurnCount)
	require.Len(t, res.Session.History, 2)
	assert.Equal(t, chat.Inbound, res.Session.History[0].Direction)
	assert.Equal(t, chat.Outbound, res.Session.History[1].Direction)
	assert.Equal(t, "retired-teacher", res.Session.PersonaID)
	assert.Contains(t, res.Session.Keywords, "blocked")

	stored, err := f.store.Get(context.Background(), "case-1")
	require.NoError(t, err)
	assert.Equal(t, res.Session.Version, stored.Version)
}

func TestHandleDuplicateMessageAddsNoFindings(t *testing.T) {
	f := newFixture(t, testConfig())

	f.send(t, "dup", blockedAccountMessage)
	res := f.send(t, "dup", blockedAccountMessage)

	assert.Empty(t, res.Added)
	assert.Len(t, res.Session.Intelligence, 2)
	assert.Equal(t, 2, res.Session.TurnCount)
	assert.Equal(t, 1, res.Session.TurnsSinceNewFinding)
	for _, finding := range res.Session.Intelligence {
		assert.Equal(t, 1, finding.FirstSeenTurn)
	}
}

func TestHandleStallingWithTwoKindsConcludes(t *testing.T) {
	f := newFixture(t, testConfig())
	ctx := context.Background()

	s, err := f.store.GetOrCreate(ctx, "stall")
	require.NoError(t, err)
	s.State = chat.StateStalling
	s.TurnCount = 5
	s.ScamDetected = true
	s.PersonaID = "shop-owner"
	s.Merge([]chat.Finding{
		{Kind: chat.KindPhoneNumber, Value: "9876543210"},
		{Kind: chat.KindURL, Value: "http://bit.ly/pay"},
	}, 2)
	_, err = f.store.Save(ctx, s)
	require.NoError(t, err)

	res := f.send(t, "stall", "why are you so slow")

	assert.Equal(t, chat.StateStalling, res.Previous)
	assert.Equal(t, chat.StateConcluding, res.Session.State)
	assert.Equal(t, 6, res.Session.TurnCount)
	assert.Equal(t, chat.StateConcluding, f.responder.lastState())
}

func TestHandleWalksFullLifecycle(t *testing.T) {
	cfg := testConfig()
	cfg.StallAfterTurns = 1
	f := newFixture(t, cfg)

	steps := []struct {
		text  string
		state chat.State
	}{
		{blockedAccountMessage, chat.StateEngaged},
		{"ok tell me what to do", chat.StateStalling},
		{"hello? are you there", chat.StateConcluding},
		{"send the money now", chat.StateClosed},
	}
	for i, step := range steps {
		res := f.send(t, "walk", step.text)
		assert.Equal(t, step.state, res.Session.State, "step %d", i+1)
		assert.NotEmpty(t, res.Reply, "step %d", i+1)
	}
	assert.Equal(t, chat.StateClosed, f.responder.lastState(), "exit line written in CLOSED")

	res := f.send(t, "walk", "are you still there?")
	assert.True(t, res.Ended)
	assert.Empty(t, res.Reply)
	assert.Equal(t, 4, res.Session.TurnCount)
}

func TestHandleFailingResponderStillReplies(t *testing.T) {
	store := session.NewMemoryStore()
	engine, err := New(Deps{
		Store:      store,
		Classifier: scam.New(scam.DefaultThreshold),
		Responder:  ai.NewResponder(failingGenerator{}, ai.Options{Timeout: time.Second}, nil),
		Personas:   persona.NewMemoryStore(persona.Seed()),
	}, testConfig(), "", nil)
	require.NoError(t, err)

	res, err := engine.Handle(context.Background(), Inbound{SessionID: "fail", Text: blockedAccountMessage})
	require.NoError(t, err)

	assert.NotEmpty(t, res.Reply)
	assert.Equal(t, ai.Fallback(chat.StateEngaged, 1), res.Reply)

	stored, err := store.Get(context.Background(), "fail")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.TurnCount)
	assert.Len(t, stored.History, 2)
}

func TestHandleConcurrentDistinctPhones(t *testing.T) {
	f := newFixture(t, testConfig())
	messages := []string{
		"URGENT: your account will be blocked. Call 9876543210 immediately.",
		"URGENT: your account will be blocked. Call 9123456780 immediately.",
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(messages))
	for _, text := range messages {
		wg.Add(1)
		go func(text string) {
			defer wg.Done()
			_, err := f.engine.Handle(context.Background(), Inbound{SessionID: "race", Text: text})
			errs <- err
		}(text)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	f.reporter.wg.Wait()

	stored, err := f.store.Get(context.Background(), "race")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.TurnCount)
	assert.ElementsMatch(t, []string{"9876543210", "9123456780"}, stored.FindingsOf(chat.KindPhoneNumber))
	assert.Equal(t, 0, f.engine.locks.size())
}

func TestHandleTurnCountAndMonotonicStates(t *testing.T) {
	f := newFixture(t, testConfig())
	texts := []string{
		blockedAccountMessage,
		"which branch are you calling from",
		"my son handles the bank things",
		"can you wait a little",
		"i am looking for my glasses",
	}

	previous := chat.StateNew
	for i, text := range texts {
		res := f.send(t, "count", text)
		require.False(t, res.Ended)
		assert.Equal(t, i+1, res.Session.TurnCount)
		assert.False(t, res.Session.State.Less(previous), "state moved backwards at turn %d", i+1)
		previous = res.Session.State
	}
	assert.Equal(t, chat.StateConcluding, previous)
}

func TestHandleNonScamClosesWithNeutralReply(t *testing.T) {
	f := newFixture(t, testConfig())

	res := f.send(t, "friend", "Hi, are we still meeting for lunch tomorrow?")
	assert.Equal(t, chat.StateClosed, res.Session.State)
	assert.False(t, res.Session.ScamDetected)
	assert.Equal(t, ai.NeutralReply, res.Reply)
	assert.Empty(t, f.responder.calls)

	again := f.send(t, "friend", "hello?")
	assert.True(t, again.Ended)
	assert.Equal(t, 1, again.Session.TurnCount)
}

func TestHandleClosedSessionReopens(t *testing.T) {
	cfg := testConfig()
	cfg.ClosedPolicy = config.ClosedPolicyReopen
	f := newFixture(t, cfg)

	f.send(t, "re", "Hi, are we still meeting for lunch tomorrow?")

	res := f.send(t, "re", blockedAccountMessage)
	assert.False(t, res.Ended)
	assert.True(t, strings.HasPrefix(res.Session.ID, "re~"), res.Session.ID)
	assert.Equal(t, chat.StateEngaged, res.Session.State)
	assert.Equal(t, 1, res.Session.TurnCount)

	original, err := f.store.Get(context.Background(), "re")
	require.NoError(t, err)
	assert.Equal(t, res.Session.ID, original.SuccessorID)
	assert.Equal(t, chat.StateClosed, original.State)

	next := f.send(t, "re", "hello?")
	assert.Equal(t, res.Session.ID, next.Session.ID)
	assert.Equal(t, 2, next.Session.TurnCount)
}

func TestHandleSeedsHistory(t *testing.T) {
	f := newFixture(t, testConfig())

	res, err := f.engine.Handle(context.Background(), Inbound{
		SessionID: "seeded",
		Text:      "hello? did you pay?",
		History: []HistoryEntry{
			{Sender: "scammer", Text: "Your account is blocked, pay immediately to fraud@examplebank", Timestamp: "1767348000000"},
			{Sender: "user", Text: "what? who is this?"},
		},
		Metadata: chat.Metadata{Channel: "SMS", Language: "English"},
	})
	require.NoError(t, err)
	f.reporter.wg.Wait()

	s := res.Session
	assert.Equal(t, chat.StateEngaged, s.State)
	assert.Equal(t, 1, s.TurnCount)
	require.Len(t, s.History, 4)
	assert.True(t, s.History[0].Seeded)
	assert.Equal(t, chat.Outbound, s.History[1].Direction)
	assert.False(t, s.History[2].Seeded)
	assert.Equal(t, []string{"fraud@examplebank"}, s.FindingsOf(chat.KindUPIID))
	assert.Equal(t, 1, s.Intelligence[0].FirstSeenTurn)
	assert.Equal(t, "SMS", s.Metadata.Channel)
	assert.Equal(t, 2, callback.MessagesExchanged(s))
	assert.Equal(t, time.UnixMilli(1767348000000).UTC(), s.History[0].Timestamp)
}

func TestHandleRejectsInvalidInput(t *testing.T) {
	f := newFixture(t, testConfig())
	cases := map[string]Inbound{
		"empty id":   {SessionID: "  ", Text: "hi"},
		"long id":    {SessionID: strings.Repeat("x", maxSessionIDLength+1), Text: "hi"},
		"empty text": {SessionID: "v", Text: " \n"},
		"long text":  {SessionID: "v", Text: strings.Repeat("a", maxMessageRunes+1)},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.engine.Handle(context.Background(), in)
			assert.ErrorIs(t, err, ErrInvalidMessage)
		})
	}

	sessions, err := f.store.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestHandleReportsNewKindsOnce(t *testing.T) {
	f := newFixture(t, testConfig())

	f.send(t, "rep", blockedAccountMessage)
	require.Equal(t, 1, f.reporter.count())

	stored, err := f.store.Get(context.Background(), "rep")
	require.NoError(t, err)
	assert.True(t, stored.Reported)
	assert.Equal(t, []chat.Kind{chat.KindUPIID, chat.KindPhoneNumber}, stored.ReportedKinds)

	f.send(t, "rep", blockedAccountMessage)
	assert.Equal(t, 1, f.reporter.count(), "nothing new to report")

	f.send(t, "rep", "use this link instead http://bit.ly/kyc-update")
	assert.Equal(t, 2, f.reporter.count())
}

func TestHandleFailedReportIsRetriedOnNextTrigger(t *testing.T) {
	f := newFixture(t, testConfig())
	f.reporter.fail = true

	f.send(t, "retry", blockedAccountMessage)
	stored, err := f.store.Get(context.Background(), "retry")
	require.NoError(t, err)
	assert.False(t, stored.Reported)

	f.reporter.mu.Lock()
	f.reporter.fail = false
	f.reporter.mu.Unlock()

	f.send(t, "retry", "please hurry")
	assert.Equal(t, 2, f.reporter.count())
	stored, err = f.store.Get(context.Background(), "retry")
	require.NoError(t, err)
	assert.True(t, stored.Reported)
	assert.Contains(t, f.events.types(), events.ReportFailed)
	assert.Contains(t, f.events.types(), events.ReportDelivered)
}

func TestFailedFinalReportIsRetriedOnTimer(t *testing.T) {
	f := newFixture(t, testConfig())
	f.engine.retryDelay = 10 * time.Millisecond
	defer f.engine.Close()
	f.reporter.setFail(true)

	res := f.send(t, "final", "hi, are we still meeting for lunch tomorrow?")
	require.Equal(t, chat.StateClosed, res.Session.State)
	f.reporter.setFail(false)

	require.Eventually(t, func() bool {
		stored, err := f.store.Get(context.Background(), "final")
		return err == nil && stored.Reported && stored.ReportedState == chat.StateClosed
	}, 2*time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, f.reporter.count(), 2)
	f.reporter.wg.Wait()
}

func TestFailedFinalReportGivesUp(t *testing.T) {
	f := newFixture(t, testConfig())
	f.engine.retryDelay = 10 * time.Millisecond
	defer f.engine.Close()
	f.reporter.setFail(true)

	f.send(t, "unreachable", "hi, are we still meeting for lunch tomorrow?")

	want := 1 + maxClosedReportRetries
	require.Eventually(t, func() bool {
		return f.reporter.count() == want
	}, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	f.reporter.wg.Wait()
	assert.Equal(t, want, f.reporter.count())

	stored, err := f.store.Get(context.Background(), "unreachable")
	require.NoError(t, err)
	assert.False(t, stored.Reported)
}

func TestHandleBudgetExceededClosesSilently(t *testing.T) {
	cfg := testConfig()
	cfg.MaxTurns = 3
	cfg.StallAfterTurns = 10
	cfg.PlateauTurns = 0
	f := newFixture(t, cfg)

	expected := []chat.State{
		chat.StateEngaged,
		chat.StateEngaged,
		chat.StateStalling,
		chat.StateConcluding,
		chat.StateClosed,
	}
	var last Result
	for i, want := range expected {
		last = f.send(t, "budget", "Your account is blocked, call 9876543210 urgently")
		assert.Equal(t, want, last.Session.State, "turn %d", i+1)
	}
	assert.Empty(t, last.Reply)
	assert.Equal(t, chat.Inbound, last.Session.History[len(last.Session.History)-1].Direction)
}

func TestHandleDurationBudget(t *testing.T) {
	cfg := testConfig()
	cfg.StallAfterTurns = 10
	cfg.MaxDuration = time.Minute
	f := newFixture(t, cfg)

	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	f.engine.now = func() time.Time { return clock }

	f.send(t, "slow", "Your account is blocked, call 9876543210 urgently")
	clock = clock.Add(2 * time.Minute)
	res := f.send(t, "slow", "are you there?")
	assert.Equal(t, chat.StateStalling, res.Session.State)
	assert.Equal(t, 2*time.Minute, res.Session.EngagementDuration())
}

func TestHandleStoreContention(t *testing.T) {
	engine, err := New(Deps{
		Store:      conflictStore{Store: session.NewMemoryStore()},
		Classifier: scam.New(scam.DefaultThreshold),
		Responder:  &scriptedResponder{},
		Personas:   persona.NewMemoryStore(persona.Seed()),
	}, testConfig(), "", nil)
	require.NoError(t, err)

	_, err = engine.Handle(context.Background(), Inbound{SessionID: "busy", Text: blockedAccountMessage})
	assert.ErrorIs(t, err, ErrStoreContention)
}

func TestHandleRetriesOnFreshReadAfterLostRace(t *testing.T) {
	shared := session.NewMemoryStore()
	newEngine := func(store session.Store) *Engine {
		engine, err := New(Deps{
			Store:      store,
			Classifier: scam.New(scam.DefaultThreshold),
			Responder:  &scriptedResponder{},
			Personas:   persona.NewMemoryStore(persona.Seed()),
		}, testConfig(), "retired-teacher", nil)
		require.NoError(t, err)
		return engine
	}

	rival := newEngine(shared)
	racing := &racingStore{Store: shared}
	racing.rival = func() {
		_, err := rival.Handle(context.Background(), Inbound{
			SessionID: "race",
			Sender:    chat.SenderScammer,
			Text:      "Your account is blocked, call 9123456780 urgently",
		})
		require.NoError(t, err)
	}

	res, err := newEngine(racing).Handle(context.Background(), Inbound{
		SessionID: "race",
		Sender:    chat.SenderScammer,
		Text:      blockedAccountMessage,
	})
	require.NoError(t, err)

	stored, err := shared.Get(context.Background(), "race")
	require.NoError(t, err)
	assert.Equal(t, res.Session.Version, stored.Version)
	assert.Equal(t, 2, stored.TurnCount)
	assert.ElementsMatch(t, []string{"9123456780", "9876543210"}, stored.FindingsOf(chat.KindPhoneNumber))
	assert.Equal(t, []string{"fraud@examplebank"}, stored.FindingsOf(chat.KindUPIID))

	firstSeen := map[string]int{}
	for _, finding := range stored.Intelligence {
		firstSeen[finding.Value] = finding.FirstSeenTurn
	}
	assert.Equal(t, 1, firstSeen["9123456780"])
	assert.Equal(t, 2, firstSeen["9876543210"])
	assert.Equal(t, 2, firstSeen["fraud@examplebank"])

	inbound := 0
	for _, msg := range stored.History {
		if msg.Direction == chat.Inbound {
			inbound++
		}
	}
	assert.Equal(t, 2, inbound)
}

func TestHandleOutOfRangeTimestampsPersistToSQLite(t *testing.T) {
	store, err := session.NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	engine, err := New(Deps{
		Store:      store,
		Classifier: scam.New(scam.DefaultThreshold),
		Responder:  &scriptedResponder{},
		Personas:   persona.NewMemoryStore(persona.Seed()),
	}, testConfig(), "retired-teacher", nil)
	require.NoError(t, err)

	before := time.Now().UTC()
	_, err = engine.Handle(context.Background(), Inbound{
		SessionID: "far-future",
		Sender:    chat.SenderScammer,
		Text:      blockedAccountMessage,
		Timestamp: "99999999999999999",
		History: []HistoryEntry{
			{Sender: chat.SenderScammer, Text: "Hello sir, KYC pending", Timestamp: "1e20"},
		},
	})
	require.NoError(t, err)

	stored, err := store.Get(context.Background(), "far-future")
	require.NoError(t, err)
	require.NotEmpty(t, stored.History)
	for _, msg := range stored.History {
		assert.False(t, msg.Timestamp.Before(before.Add(-time.Second)), msg.Timestamp)
		assert.Less(t, msg.Timestamp.Year(), 10000)
	}
	_, err = json.Marshal(stored)
	assert.NoError(t, err)
}

func TestHandlePublishesLifecycleEvents(t *testing.T) {
	f := newFixture(t, testConfig())
	f.send(t, "evt", blockedAccountMessage)

	types := f.events.types()
	require.GreaterOrEqual(t, len(types), 4)
	assert.Equal(t, []events.Type{
		events.SessionCreated,
		events.StateChanged,
		events.FindingAdded,
		events.FindingAdded,
	}, types[:4])
	assert.Contains(t, types, events.ReportDelivered)
}

func TestAnalyzeDoesNotTouchStore(t *testing.T) {
	f := newFixture(t, testConfig())
	out := f.engine.Analyze(blockedAccountMessage)

	assert.True(t, out.Assessment.Scam)
	assert.Len(t, out.Findings, 2)
	sessions, err := f.store.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Deps{}, testConfig(), "", nil)
	assert.Error(t, err)
}
