package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Karthikshettyhub/passwordless-auth/core"
)

// CredentialStore is the in-memory credential registry.
type CredentialStore struct {
	s *Store
}

// NewCredentialStore creates a credential store over the shared state.
func NewCredentialStore(s *Store) *CredentialStore {
	return &CredentialStore{s: s}
}

// ListByOwner returns all credentials registered to the identity.
func (r *CredentialStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]core.Credential, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var creds []core.Credential
	for _, cred := range r.s.credentials {
		if cred.OwnerID == ownerID {
			creds = append(creds, cred)
		}
	}
	return creds, nil
}

// GetByID looks up a credential by its authenticator-assigned ID.
func (r *CredentialStore) GetByID(ctx context.Context, credentialID []byte) (core.Credential, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cred, ok := r.s.credentials[string(credentialID)]
	if !ok {
		return core.Credential{}, core.ErrCredentialNotFound
	}
	return cred, nil
}

// Register inserts a credential, failing on a duplicate credential ID.
func (r *CredentialStore) Register(ctx context.Context, cred core.Credential) (core.Credential, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := string(cred.ID)
	if _, exists := r.s.credentials[key]; exists {
		return core.Credential{}, core.ErrDuplicateCredential
	}
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = time.Now().UTC()
	}
	r.s.credentials[key] = cred
	return cred, nil
}

// RecordUse advances the signature counter, conditioned on oldCount.
func (r *CredentialStore) RecordUse(ctx context.Context, credentialID []byte, oldCount, newCount uint32, usedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := string(credentialID)
	cred, ok := r.s.credentials[key]
	if !ok {
		return core.ErrCredentialNotFound
	}
	if cred.SignCount != oldCount {
		return core.ErrPossibleCloneDetected
	}
	cred.SignCount = newCount
	cred.LastUsedAt = usedAt
	r.s.credentials[key] = cred
	return nil
}
