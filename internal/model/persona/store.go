package persona

import "hash/fnv"

// AutoSelect asks Choose to spread sessions across personas.
const AutoSelect = "auto"

// Store exposes persona retrieval for HTTP handlers and the conversation engine.
type Store interface {
	List() []Persona
	FindByID(id string) (Persona, bool)
}

// MemoryStore implements Store with an in-memory slice.
type MemoryStore struct {
	items []Persona
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied personas.
func NewMemoryStore(items []Persona) *MemoryStore {
	return &MemoryStore{items: append([]Persona(nil), items...)}
}

// List returns the predefined persona list.
func (s *MemoryStore) List() []Persona {
	return append([]Persona(nil), s.items...)
}

// FindByID looks up a persona by identifier.
func (s *MemoryStore) FindByID(id string) (Persona, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Persona{}, false
}

// Choose resolves the persona for a session. An explicit preferred id wins;
// AutoSelect or an unknown id hashes the session id over the catalogue so the
// same session always gets the same persona.
func Choose(store Store, preferred, sessionID string) (Persona, bool) {
	if preferred != "" && preferred != AutoSelect {
		if p, ok := store.FindByID(preferred); ok {
			return p, true
		}
	}
	items := store.List()
	if len(items) == 0 {
		return Persona{}, false
	}
	if preferred != AutoSelect {
		return items[0], true
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return items[int(h.Sum32()%uint32(len(items)))], true
}
