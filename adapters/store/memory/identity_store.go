package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Karthikshettyhub/passwordless-auth/core"
)

// IdentityStore is the in-memory identity directory.
type IdentityStore struct {
	s *Store
}

// NewIdentityStore creates an identity store over the shared state.
func NewIdentityStore(s *Store) *IdentityStore {
	return &IdentityStore{s: s}
}

// FindOrCreate returns the identity for email, creating it on first sight.
func (r *IdentityStore) FindOrCreate(ctx context.Context, email, displayName string) (core.Identity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if id, ok := r.s.emailIndex[email]; ok {
		return r.s.identities[id], nil
	}

	identity := core.Identity{
		ID:          uuid.New(),
		Email:       email,
		DisplayName: displayName,
		CreatedAt:   time.Now().UTC(),
	}
	r.s.identities[identity.ID] = identity
	r.s.emailIndex[email] = identity.ID
	return identity, nil
}

// GetByEmail looks up an identity by email.
func (r *IdentityStore) GetByEmail(ctx context.Context, email string) (core.Identity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id, ok := r.s.emailIndex[email]
	if !ok {
		return core.Identity{}, core.ErrIdentityNotFound
	}
	return r.s.identities[id], nil
}

// GetByID looks up an identity by its internal ID.
func (r *IdentityStore) GetByID(ctx context.Context, id uuid.UUID) (core.Identity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	identity, ok := r.s.identities[id]
	if !ok {
		return core.Identity{}, core.ErrIdentityNotFound
	}
	return identity, nil
}
