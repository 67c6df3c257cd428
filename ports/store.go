package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Karthikshettyhub/passwordless-auth/core"
)

// IdentityStore resolves email addresses to identities.
type IdentityStore interface {
	// FindOrCreate returns the identity for email, creating it on first
	// sight. Concurrent calls for the same email must converge on a
	// single identity record.
	FindOrCreate(ctx context.Context, email, displayName string) (core.Identity, error)

	// GetByEmail returns core.ErrIdentityNotFound when absent.
	GetByEmail(ctx context.Context, email string) (core.Identity, error)

	// GetByID returns core.ErrIdentityNotFound when absent.
	GetByID(ctx context.Context, id uuid.UUID) (core.Identity, error)
}

// CredentialStore persists registered public-key credentials.
type CredentialStore interface {
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]core.Credential, error)

	// GetByID returns core.ErrCredentialNotFound when absent.
	GetByID(ctx context.Context, credentialID []byte) (core.Credential, error)

	// Register atomically checks-and-inserts on the credential ID and
	// returns core.ErrDuplicateCredential if it already exists.
	Register(ctx context.Context, cred core.Credential) (core.Credential, error)

	// RecordUse advances the signature counter and last-used timestamp.
	// The update is conditioned on the counter still holding oldCount; a
	// lost race returns core.ErrPossibleCloneDetected so two concurrent
	// completions cannot both commit with stale data.
	RecordUse(ctx context.Context, credentialID []byte, oldCount, newCount uint32, usedAt time.Time) error
}

// ChallengeStore persists outstanding ceremony challenges with
// single-use and expiry semantics.
type ChallengeStore interface {
	// Issue persists a fresh challenge. When identityID is non-nil, any
	// prior live challenge for the same (kind, identity) pair is
	// superseded so at most one bound challenge is outstanding.
	Issue(ctx context.Context, kind core.ChallengeKind, identityID *uuid.UUID) (core.Challenge, error)

	// ConsumeBound atomically marks used the newest live challenge of the
	// given kind bound to the identity. Returns core.ErrChallengeNotFound
	// if none is live; a second call for the same challenge fails the same way.
	ConsumeBound(ctx context.Context, kind core.ChallengeKind, identityID uuid.UUID) (core.Challenge, error)

	// ConsumeByValue atomically marks used the live challenge with the
	// exact value, provided it is unbound or bound to identityID.
	// Returns core.ErrChallengeNotFound if none matches.
	ConsumeByValue(ctx context.Context, kind core.ChallengeKind, value string, identityID uuid.UUID) (core.Challenge, error)
}

// SessionStore persists issued sessions.
type SessionStore interface {
	Create(ctx context.Context, session core.Session) (core.Session, error)

	// GetByToken returns core.ErrSessionNotFound for unknown or expired tokens.
	GetByToken(ctx context.Context, token string) (core.Session, error)
}
