package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zhouzirui/z-honeypot/backend/internal/model/chat"
)

// PostgresStore implements Store on PostgreSQL so several instances can share sessions.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgresStore connects to databaseURL and ensures the schema exists.
func NewPostgresStore(ctx context.Context, databaseURL string, logger *slog.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &PostgresStore{pool: pool, logger: logger}
	if err := store.initSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS honeypot_sessions (
			id TEXT PRIMARY KEY,
			state TEXT NOT NULL,
			version BIGINT NOT NULL,
			data JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_honeypot_sessions_updated ON honeypot_sessions (updated_at DESC)`,
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// GetOrCreate inserts a NEW session unless one exists, then reads it back.
func (s *PostgresStore) GetOrCreate(ctx context.Context, id string) (chat.Session, error) {
	id, err := normalizeID(id)
	if err != nil {
		return chat.Session{}, err
	}

	created := chat.NewSession(id, time.Now().UTC())
	created.Version = 1
	data, err := json.Marshal(created)
	if err != nil {
		return chat.Session{}, fmt.Errorf("marshal session: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO honeypot_sessions (id, state, version, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (id) DO NOTHING`,
		id, string(created.State), created.Version, data, created.CreatedAt,
	)
	if err != nil {
		return chat.Session{}, fmt.Errorf("insert session: %w", err)
	}
	return s.Get(ctx, id)
}

// Get reads one session.
func (s *PostgresStore) Get(ctx context.Context, id string) (chat.Session, error) {
	var (
		version int64
		data    []byte
	)
	err := s.pool.QueryRow(ctx, `SELECT version, data FROM honeypot_sessions WHERE id = $1`, id).Scan(&version, &data)
	if errors.Is(err, pgx.ErrNoRows) {
		return chat.Session{}, ErrSessionNotFound
	}
	if err != nil {
		return chat.Session{}, fmt.Errorf("get session: %w", err)
	}
	return decodeSession(data, version)
}

// Save writes the session if the stored version equals session.Version.
func (s *PostgresStore) Save(ctx context.Context, session chat.Session) (chat.Session, error) {
	next := session.Clone()
	next.Version = session.Version + 1
	data, err := json.Marshal(next)
	if err != nil {
		return chat.Session{}, fmt.Errorf("marshal session: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return chat.Session{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE honeypot_sessions
		SET state = $1, version = $2, data = $3, updated_at = NOW()
		WHERE id = $4 AND version = $5`,
		string(next.State), next.Version, data, session.ID, session.Version,
	)
	if err != nil {
		return chat.Session{}, fmt.Errorf("update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM honeypot_sessions WHERE id = $1)`, session.ID).Scan(&exists); err != nil {
			return chat.Session{}, fmt.Errorf("check session: %w", err)
		}
		if !exists {
			return chat.Session{}, ErrSessionNotFound
		}
		return chat.Session{}, ErrVersionConflict
	}

	if err := tx.Commit(ctx); err != nil {
		return chat.Session{}, fmt.Errorf("commit: %w", err)
	}
	return next, nil
}

// List returns recently updated sessions first.
func (s *PostgresStore) List(ctx context.Context, limit int) ([]chat.Session, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT version, data FROM honeypot_sessions
		ORDER BY updated_at DESC, id ASC
		LIMIT $1`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []chat.Session
	for rows.Next() {
		var (
			version int64
			data    []byte
		)
		if err := rows.Scan(&version, &data); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		session, err := decodeSession(data, version)
		if err != nil {
			return nil, err
		}
		out = append(out, session)
	}
	return out, rows.Err()
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
