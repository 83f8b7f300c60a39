package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/gramseva/idverify/models"
)

// registry owns every live session on this agent and serializes access
// per session ID: all transitions run under the entry's lock, so no two
// concurrent operations mutate the same session. There is deliberately
// no ambient "current session" — callers always address a session by ID.
type registry struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*sessionEntry
}

type sessionEntry struct {
	mu      sync.Mutex
	session *models.AuthenticationSession
}

func newRegistry() *registry {
	return &registry{entries: make(map[uuid.UUID]*sessionEntry)}
}

func (r *registry) add(s *models.AuthenticationSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[s.SessionID] = &sessionEntry{session: s}
}

// withSession runs fn with the session's exclusivity lock held.
// Returns ErrSessionNotFound for unknown IDs.
func (r *registry) withSession(id uuid.UUID, fn func(s *models.AuthenticationSession) error) error {
	r.mu.RLock()
	entry, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return fn(entry.session)
}

// snapshot returns a copy of the session safe to hand to callers.
func (r *registry) snapshot(id uuid.UUID) (models.AuthenticationSession, error) {
	var copied models.AuthenticationSession
	err := r.withSession(id, func(s *models.AuthenticationSession) error {
		copied = *s
		copied.Attempts = append([]models.AuthenticationAttempt(nil), s.Attempts...)
		copied.OfferedMethods = append([]models.AuthMethod(nil), s.OfferedMethods...)
		return nil
	})
	return copied, err
}

// remove drops a terminal session from the registry.
func (r *registry) remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}
