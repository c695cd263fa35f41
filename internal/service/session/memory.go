package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/zhouzirui/z-honeypot/backend/internal/model/chat"
)

// MemoryStore keeps sessions in process memory, suitable for a single instance.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]chat.Session
	now      func() time.Time
}

// NewMemoryStore bootstraps an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]chat.Session),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// GetOrCreate returns the session for id, creating a NEW one atomically if absent.
func (s *MemoryStore) GetOrCreate(_ context.Context, id string) (chat.Session, error) {
	id, err := normalizeID(id)
	if err != nil {
		return chat.Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.sessions[id]; ok {
		return existing.Clone(), nil
	}
	created := chat.NewSession(id, s.now())
	created.Version = 1
	s.sessions[id] = created
	return created.Clone(), nil
}

// Get retrieves a session without creating it.
func (s *MemoryStore) Get(_ context.Context, id string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	existing, ok := s.sessions[id]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return existing.Clone(), nil
}

// Save replaces the stored session if its version still matches.
func (s *MemoryStore) Save(_ context.Context, session chat.Session) (chat.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.sessions[session.ID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	if existing.Version != session.Version {
		return chat.Session{}, ErrVersionConflict
	}

	stored := session.Clone()
	stored.Version++
	s.sessions[session.ID] = stored
	return stored.Clone(), nil
}

// List returns the most recently active sessions first.
func (s *MemoryStore) List(_ context.Context, limit int) ([]chat.Session, error) {
	s.mu.RLock()
	items := make([]chat.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		items = append(items, session.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool {
		if items[i].LastActivityAt.Equal(items[j].LastActivityAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].LastActivityAt.After(items[j].LastActivityAt)
	})

	if limit = clampLimit(limit); len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}
