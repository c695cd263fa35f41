package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/zhouzirui/z-honeypot/backend/internal/model/chat"
)

// SQLiteStore implements Store on a local SQLite file.
type SQLiteStore struct {
	db      *sql.DB
	writeMu sync.Mutex // serializes writers to avoid SQLITE_BUSY under WAL
	logger  *slog.Logger
}

// NewSQLiteStore opens (and if needed creates) the database at dbPath.
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db, logger: logger}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	logger.Info("sqlite session store ready", "path", dbPath)
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS honeypot_sessions (
		id TEXT PRIMARY KEY,
		state TEXT NOT NULL,
		version INTEGER NOT NULL,
		data TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_honeypot_sessions_updated ON honeypot_sessions(updated_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// GetOrCreate inserts a NEW session unless one already exists, then reads it back.
func (s *SQLiteStore) GetOrCreate(ctx context.Context, id string) (chat.Session, error) {
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

	s.writeMu.Lock()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO honeypot_sessions (id, state, version, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		id, string(created.State), created.Version, string(data),
		created.CreatedAt.UnixMilli(), created.LastActivityAt.UnixMilli(),
	)
	s.writeMu.Unlock()
	if err != nil {
		return chat.Session{}, fmt.Errorf("insert session: %w", err)
	}

	return s.Get(ctx, id)
}

// Get reads one session.
func (s *SQLiteStore) Get(ctx context.Context, id string) (chat.Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT version, data FROM honeypot_sessions WHERE id = ?`, id)
	return scanSession(row)
}

// Save writes the session if the stored version equals session.Version.
func (s *SQLiteStore) Save(ctx context.Context, session chat.Session) (chat.Session, error) {
	next := session.Clone()
	next.Version = session.Version + 1
	data, err := json.Marshal(next)
	if err != nil {
		return chat.Session{}, fmt.Errorf("marshal session: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	result, err := s.db.ExecContext(ctx, `
		UPDATE honeypot_sessions
		SET state = ?, version = ?, data = ?, updated_at = ?
		WHERE id = ? AND version = ?`,
		string(next.State), next.Version, string(data), time.Now().UTC().UnixMilli(),
		session.ID, session.Version,
	)
	if err != nil {
		return chat.Session{}, fmt.Errorf("update session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return chat.Session{}, fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		var exists int
		err := s.db.QueryRowContext(ctx, `SELECT 1 FROM honeypot_sessions WHERE id = ?`, session.ID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return chat.Session{}, ErrSessionNotFound
		}
		if err != nil {
			return chat.Session{}, fmt.Errorf("check session: %w", err)
		}
		return chat.Session{}, ErrVersionConflict
	}
	return next, nil
}

// List returns recently updated sessions first.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]chat.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT version, data FROM honeypot_sessions
		ORDER BY updated_at DESC, id ASC
		LIMIT ?`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []chat.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, session)
	}
	return out, rows.Err()
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (chat.Session, error) {
	var (
		version int64
		data    string
	)
	if err := row.Scan(&version, &data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return chat.Session{}, ErrSessionNotFound
		}
		return chat.Session{}, fmt.Errorf("scan session row: %w", err)
	}
	return decodeSession([]byte(data), version)
}

func decodeSession(data []byte, version int64) (chat.Session, error) {
	var session chat.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return chat.Session{}, fmt.Errorf("decode session: %w", err)
	}
	session.Version = version
	return session, nil
}
