package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultMaxAttempts = 2
	retryBackoff       = 500 * time.Millisecond
	maxErrorBody       = 512
)

// ErrDisabled is returned by Report when no endpoint is configured.
var ErrDisabled = errors.New("callback endpoint not configured")

// Options configures a Reporter.
type Options struct {
	URL         string
	APIKey      string
	Timeout     time.Duration
	MaxAttempts int
}

// Reporter posts reports to the evaluation endpoint. Dispatch runs deliveries in
// the background; Close waits for them to finish.
type Reporter struct {
	client *http.Client
	opts   Options
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewReporter creates a reporter. An empty URL yields a reporter that reports ErrDisabled.
func NewReporter(opts Options, client *http.Client, logger *slog.Logger) *Reporter {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{client: client, opts: opts, logger: logger}
}

// Enabled reports whether an endpoint is configured.
func (r *Reporter) Enabled() bool {
	return r.opts.URL != ""
}

// Report delivers rep, retrying transient failures up to MaxAttempts.
func (r *Reporter) Report(ctx context.Context, rep Report) error {
	if !r.Enabled() {
		return ErrDisabled
	}

	body, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= r.opts.MaxAttempts; attempt++ {
		retry, err := r.post(ctx, body)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry || attempt == r.opts.MaxAttempts {
			break
		}
		r.logger.Debug("callback attempt failed, retrying",
			"session_id", rep.SessionID, "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return fmt.Errorf("deliver report: %w", ctx.Err())
		case <-time.After(retryBackoff * time.Duration(attempt)):
		}
	}
	return fmt.Errorf("deliver report for %s: %w", rep.SessionID, lastErr)
}

// Dispatch delivers rep in the background with its own timeout and hands the
// outcome to onResult.
func (r *Reporter) Dispatch(rep Report, onResult func(Report, error)) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), r.opts.Timeout*time.Duration(r.opts.MaxAttempts))
		defer cancel()

		err := r.Report(ctx, rep)
		if err != nil {
			r.logger.Warn("callback delivery failed",
				"session_id", rep.SessionID, "state", rep.State, "error", err)
		} else {
			r.logger.Info("callback delivered",
				"session_id", rep.SessionID, "state", rep.State, "findings", len(rep.Intelligence))
		}
		if onResult != nil {
			onResult(rep, err)
		}
	}()
}

// Close waits for in-flight deliveries.
func (r *Reporter) Close() {
	r.wg.Wait()
}

// post sends one attempt and reports whether a failure is worth retrying.
func (r *Reporter) post(ctx context.Context, body []byte) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.opts.URL, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.opts.APIKey != "" {
		req.Header.Set("x-api-key", r.opts.APIKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return true, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, nil
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	retry := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
	return retry, fmt.Errorf("endpoint returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
}
