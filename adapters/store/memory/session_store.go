package memory

import (
	"context"

	"github.com/Karthikshettyhub/passwordless-auth/core"
)

// SessionStore is the in-memory session store.
type SessionStore struct {
	s *Store
}

// NewSessionStore creates a session store over the shared state.
func NewSessionStore(s *Store) *SessionStore {
	return &SessionStore{s: s}
}

// Create persists a session.
func (r *SessionStore) Create(ctx context.Context, session core.Session) (core.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.sessions[session.Token] = session
	return session, nil
}

// GetByToken resolves a bearer token to its live session.
func (r *SessionStore) GetByToken(ctx context.Context, token string) (core.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	session, ok := r.s.sessions[token]
	if !ok || session.Expired(r.s.now()) {
		return core.Session{}, core.ErrSessionNotFound
	}
	return session, nil
}
