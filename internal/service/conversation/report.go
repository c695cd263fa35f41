package conversation

import (
	"context"
	"errors"
	"time"

	"github.com/zhouzirui/z-honeypot/backend/internal/model/chat"
	"github.com/zhouzirui/z-honeypot/backend/internal/service/callback"
	"github.com/zhouzirui/z-honeypot/backend/internal/service/events"
	"github.com/zhouzirui/z-honeypot/backend/internal/service/session"
)

// needsReport is true once a session reaches a reportable state it has not
// reported yet, or holds finding kinds no successful report has covered.
func needsReport(s chat.Session) bool {
	if (s.State == chat.StateConcluding || s.State == chat.StateClosed) && s.ReportedState != s.State {
		return true
	}
	return len(s.UnreportedKinds()) > 0
}

// dispatchReport starts a delivery unless one is already in flight for the session.
func (e *Engine) dispatchReport(s chat.Session) {
	if e.reporter == nil || !e.reporter.Enabled() {
		return
	}

	e.reportMu.Lock()
	if e.reporting[s.ID] {
		e.reportMu.Unlock()
		return
	}
	e.reporting[s.ID] = true
	e.reportMu.Unlock()

	e.reporter.Dispatch(callback.FromSession(s), e.reportDone)
}

func (e *Engine) reportDone(rep callback.Report, err error) {
	e.reportMu.Lock()
	delete(e.reporting, rep.SessionID)
	e.reportMu.Unlock()

	evt := events.New(events.ReportDelivered, rep.SessionID)
	evt.State = rep.State
	if err != nil {
		evt.Type = events.ReportFailed
		evt.Error = err.Error()
	}
	e.events.Publish(evt)

	if err != nil {
		if rep.State == chat.StateClosed {
			e.scheduleClosedRetry(rep.SessionID)
		}
		return
	}

	e.reportMu.Lock()
	delete(e.retries, rep.SessionID)
	e.reportMu.Unlock()

	latest, ok := e.markReported(rep)
	if ok && needsReport(latest) {
		e.dispatchReport(latest)
	}
}

// scheduleClosedRetry re-sends the final report of a CLOSED session with a
// linear backoff, giving up after maxClosedReportRetries attempts.
func (e *Engine) scheduleClosedRetry(id string) {
	e.reportMu.Lock()
	defer e.reportMu.Unlock()
	if e.stopped {
		return
	}
	if _, pending := e.retryTimers[id]; pending {
		return
	}

	attempt := e.retries[id] + 1
	if attempt > maxClosedReportRetries {
		delete(e.retries, id)
		e.logger.Warn("giving up on final report", "session_id", id, "retries", maxClosedReportRetries)
		return
	}
	e.retries[id] = attempt
	e.retryTimers[id] = time.AfterFunc(e.retryDelay*time.Duration(attempt), func() {
		e.retryClosedReport(id)
	})
}

func (e *Engine) retryClosedReport(id string) {
	e.reportMu.Lock()
	delete(e.retryTimers, id)
	stopped := e.stopped
	e.reportMu.Unlock()
	if stopped {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), markReportTimeout)
	defer cancel()
	s, err := e.store.Get(ctx, id)
	if err != nil {
		e.logger.Warn("load session for report retry", "session_id", id, "error", err)
		return
	}
	if needsReport(s) {
		e.dispatchReport(s)
	}
}

// markReported records a successful delivery on the stored session.
func (e *Engine) markReported(rep callback.Report) (chat.Session, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), markReportTimeout)
	defer cancel()

	unlock := e.locks.Lock(rep.SessionID)
	defer unlock()

	for attempt := 0; attempt <= e.cfg.SaveRetries; attempt++ {
		s, err := e.store.Get(ctx, rep.SessionID)
		if err != nil {
			e.logger.Warn("load session to mark report", "session_id", rep.SessionID, "error", err)
			return chat.Session{}, false
		}

		s.Reported = true
		if s.ReportedState.Less(rep.State) {
			s.ReportedState = rep.State
		}
		s.ReportedKinds = unionKinds(s.ReportedKinds, rep.Kinds)

		saved, err := e.store.Save(ctx, s)
		if err == nil {
			return saved, true
		}
		if !errors.Is(err, session.ErrVersionConflict) {
			e.logger.Warn("mark session reported", "session_id", rep.SessionID, "error", err)
			return chat.Session{}, false
		}
	}
	e.logger.Warn("mark session reported: too many conflicts", "session_id", rep.SessionID)
	return chat.Session{}, false
}

func unionKinds(have, more []chat.Kind) []chat.Kind {
	seen := make(map[chat.Kind]bool, len(have)+len(more))
	for _, k := range have {
		seen[k] = true
	}
	out := make([]chat.Kind, 0, len(seen)+len(more))
	for _, k := range chat.Kinds {
		if seen[k] {
			out = append(out, k)
			continue
		}
		for _, m := range more {
			if m == k {
				out = append(out, k)
				break
			}
		}
	}
	return out
}
