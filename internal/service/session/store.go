// Package session persists honeypot sessions behind a compare-and-swap store contract.
package session

import (
	"context"
	"errors"
	"strings"

	"github.com/zhouzirui/z-honeypot/backend/internal/model/chat"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrVersionConflict = errors.New("session version conflict")
	ErrSessionIDEmpty  = errors.New("session id is required")
)

// Store maps session ids to sessions.
//
// Save replaces the stored session wholesale but only when the caller's Version
// matches the stored one; the returned copy carries the incremented Version.
type Store interface {
	GetOrCreate(ctx context.Context, id string) (chat.Session, error)
	Get(ctx context.Context, id string) (chat.Session, error)
	Save(ctx context.Context, s chat.Session) (chat.Session, error)
	List(ctx context.Context, limit int) ([]chat.Session, error)
	Close() error
}

// Backend names accepted by STORE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

func normalizeID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrSessionIDEmpty
	}
	return id, nil
}

const defaultListLimit = 50

func clampLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return defaultListLimit
	}
	return limit
}
