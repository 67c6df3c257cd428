package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Karthikshettyhub/passwordless-auth/core"
	"github.com/Karthikshettyhub/passwordless-auth/ports"
)

const tokenBytes = 32

// OpaqueIssuer mints random bearer tokens and keeps the authoritative
// session state in the session store. A token carries no claims; revoking
// the stored row invalidates it immediately.
type OpaqueIssuer struct {
	sessions ports.SessionStore
	ttl      time.Duration
	now      func() time.Time
}

// NewOpaqueIssuer creates an issuer persisting sessions with the given TTL.
func NewOpaqueIssuer(sessions ports.SessionStore, ttl time.Duration) *OpaqueIssuer {
	return &OpaqueIssuer{sessions: sessions, ttl: ttl, now: time.Now}
}

func (i *OpaqueIssuer) Issue(ctx context.Context, identityID uuid.UUID) (core.Session, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return core.Session{}, fmt.Errorf("generate session token: %w", err)
	}

	now := i.now().UTC()
	session := core.Session{
		Token:      base64.RawURLEncoding.EncodeToString(buf),
		IdentityID: identityID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(i.ttl),
	}
	return i.sessions.Create(ctx, session)
}

func (i *OpaqueIssuer) Validate(ctx context.Context, token string) (core.Session, error) {
	if token == "" {
		return core.Session{}, core.ErrSessionNotFound
	}
	session, err := i.sessions.GetByToken(ctx, token)
	if err != nil {
		return core.Session{}, err
	}
	if session.Expired(i.now().UTC()) {
		return core.Session{}, core.ErrSessionNotFound
	}
	return session, nil
}
