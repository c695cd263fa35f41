package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/z-honeypot/backend/internal/analysis/extract"
	"github.com/zhouzirui/z-honeypot/backend/internal/analysis/scam"
	"github.com/zhouzirui/z-honeypot/backend/internal/config"
	"github.com/zhouzirui/z-honeypot/backend/internal/handler"
	"github.com/zhouzirui/z-honeypot/backend/internal/model/persona"
	"github.com/zhouzirui/z-honeypot/backend/internal/service/ai"
	"github.com/zhouzirui/z-honeypot/backend/internal/service/callback"
	"github.com/zhouzirui/z-honeypot/backend/internal/service/conversation"
	"github.com/zhouzirui/z-honeypot/backend/internal/service/events"
	"github.com/zhouzirui/z-honeypot/backend/internal/service/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded, using process environment", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	setupLogging(cfg.LogLevel)
	logger := slog.Default()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	personaStore := persona.NewMemoryStore(persona.Seed())

	// Initialize AI responder; without Ark credentials replies come from the canned set
	responder := ai.NewResponder(nil, ai.Options{HistoryLimit: cfg.AI.HistoryLimit, Timeout: cfg.AI.ReplyTimeout}, logger)
	if cfg.AI.Enabled() {
		svc, err := ai.NewService(ctx, cfg.AI, logger)
		if err != nil {
			logger.Warn("failed to initialize AI service, continuing with fallback replies", "error", err)
		} else {
			responder = svc
			logger.Info("AI service initialized", "model", cfg.AI.Model)
		}
	} else {
		logger.Info("Ark 凭证未配置，使用预置回复")
	}

	var publishers events.Multi
	var hub *events.Hub
	if cfg.Events.MonitorEnabled {
		hub = events.NewHub(0, logger)
		publishers = append(publishers, hub)
	}
	if cfg.Events.NatsURL != "" {
		nc, err := events.NewNATSClient(cfg.Events.NatsURL, cfg.Events.NatsToken, cfg.Events.SubjectPrefix, logger)
		if err != nil {
			logger.Warn("NATS unavailable, events stay in-process", "error", err)
		} else {
			defer nc.Close()
			publishers = append(publishers, nc)
			logger.Info("publishing events to NATS", "url", cfg.Events.NatsURL, "prefix", cfg.Events.SubjectPrefix)
		}
	}

	reporter := callback.NewReporter(callback.Options{
		URL:         cfg.Callback.URL,
		APIKey:      cfg.Callback.APIKey,
		Timeout:     cfg.Callback.Timeout,
		MaxAttempts: cfg.Callback.MaxAttempts,
	}, nil, logger)
	defer reporter.Close()
	if !reporter.Enabled() {
		logger.Info("CALLBACK_URL not set, intelligence reports disabled")
	}

	engine, err := conversation.New(conversation.Deps{
		Store:      store,
		Classifier: scam.New(cfg.Engine.ScamThreshold),
		Extractor:  extract.New(),
		Responder:  responder,
		Reporter:   reporter,
		Events:     publishers,
		Personas:   personaStore,
	}, cfg.Engine, cfg.AI.DefaultPersona, logger)
	if err != nil {
		return err
	}
	defer engine.Close()

	deps := handler.Dependencies{
		Engine:         engine,
		Personas:       personaStore,
		DefaultPersona: cfg.AI.DefaultPersona,
		APIKey:         cfg.Auth.APIKey,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger,
	}
	if hub != nil {
		deps.Monitor = hub
	}
	if cfg.Auth.APIKey == "" {
		logger.Warn("HONEYPOT_API_KEY not set, API is unauthenticated")
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler.NewRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("Z Honeypot backend listening", "addr", cfg.Server.Addr, "store", cfg.Store.Backend)
	return runServer(ctx, srv)
}

func openStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (session.Store, error) {
	switch cfg.Backend {
	case session.BackendSQLite:
		store, err := session.NewSQLiteStore(cfg.SQLitePath, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, nil
	case session.BackendPostgres:
		store, err := session.NewPostgresStore(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return store, nil
	default:
		return session.NewMemoryStore(), nil
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(logHandler))
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
