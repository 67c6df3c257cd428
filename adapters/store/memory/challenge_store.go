package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Karthikshettyhub/passwordless-auth/core"
)

// ChallengeStore is the in-memory challenge store.
type ChallengeStore struct {
	s   *Store
	ttl time.Duration
}

// NewChallengeStore creates a challenge store issuing challenges with the
// given TTL over the shared state.
func NewChallengeStore(s *Store, ttl time.Duration) *ChallengeStore {
	return &ChallengeStore{s: s, ttl: ttl}
}

// Issue persists a fresh challenge, superseding any live bound challenge
// for the same (kind, identity) pair. Used and expired entries are swept
// on the way so the slice holds live challenges only.
func (r *ChallengeStore) Issue(ctx context.Context, kind core.ChallengeKind, identityID *uuid.UUID) (core.Challenge, error) {
	challenge, err := core.NewChallenge(kind, identityID, r.ttl)
	if err != nil {
		return core.Challenge{}, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if identityID != nil {
		for _, prior := range r.s.challenges {
			if prior.Kind == kind && prior.IdentityID != nil && *prior.IdentityID == *identityID {
				prior.Used = true
			}
		}
	}

	now := r.s.now()
	live := r.s.challenges[:0]
	for _, ch := range r.s.challenges {
		if ch.Live(now) {
			live = append(live, ch)
		}
	}
	r.s.challenges = append(live, &challenge)
	return challenge, nil
}

// ConsumeBound marks used the newest live challenge bound to the identity.
func (r *ChallengeStore) ConsumeBound(ctx context.Context, kind core.ChallengeKind, identityID uuid.UUID) (core.Challenge, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	for i := len(r.s.challenges) - 1; i >= 0; i-- {
		ch := r.s.challenges[i]
		if ch.Kind == kind && ch.IdentityID != nil && *ch.IdentityID == identityID && ch.Live(now) {
			ch.Used = true
			return *ch, nil
		}
	}
	return core.Challenge{}, core.ErrChallengeNotFound
}

// ConsumeByValue marks used the live challenge with the exact value,
// provided it is unbound or bound to identityID.
func (r *ChallengeStore) ConsumeByValue(ctx context.Context, kind core.ChallengeKind, value string, identityID uuid.UUID) (core.Challenge, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	for _, ch := range r.s.challenges {
		if ch.Kind != kind || ch.Value != value || !ch.Live(now) {
			continue
		}
		if ch.IdentityID != nil && *ch.IdentityID != identityID {
			continue
		}
		ch.Used = true
		return *ch, nil
	}
	return core.Challenge{}, core.ErrChallengeNotFound
}
