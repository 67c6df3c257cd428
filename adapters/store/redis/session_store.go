package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Karthikshettyhub/passwordless-auth/core"
	"github.com/Karthikshettyhub/passwordless-auth/ports"
)

var _ ports.SessionStore = (*SessionStore)(nil)

const sessionPrefix = "auth:session:"

// sessionPayload is the stored representation of a session.
type sessionPayload struct {
	IdentityID string    `json:"identity_id"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// SessionStore is a Redis session store; expiry rides on key TTLs.
type SessionStore struct {
	client *goredis.Client
}

// NewSessionStore creates a Redis session store.
func NewSessionStore(client *goredis.Client) *SessionStore {
	return &SessionStore{client: client}
}

// Create persists a session until its expiry.
func (s *SessionStore) Create(ctx context.Context, session core.Session) (core.Session, error) {
	raw, err := json.Marshal(sessionPayload{
		IdentityID: session.IdentityID.String(),
		CreatedAt:  session.CreatedAt,
		ExpiresAt:  session.ExpiresAt,
	})
	if err != nil {
		return core.Session{}, fmt.Errorf("failed to marshal session: %w", err)
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return core.Session{}, fmt.Errorf("session already expired")
	}

	if err := s.client.Set(ctx, sessionPrefix+session.Token, raw, ttl).Err(); err != nil {
		return core.Session{}, fmt.Errorf("%w: failed to store session: %v", core.ErrStoreUnavailable, err)
	}

	return session, nil
}

// GetByToken resolves a bearer token to its live session.
func (s *SessionStore) GetByToken(ctx context.Context, token string) (core.Session, error) {
	raw, err := s.client.Get(ctx, sessionPrefix+token).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return core.Session{}, core.ErrSessionNotFound
		}
		return core.Session{}, fmt.Errorf("%w: failed to get session: %v", core.ErrStoreUnavailable, err)
	}

	var payload sessionPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return core.Session{}, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	identityID, err := uuid.Parse(payload.IdentityID)
	if err != nil {
		return core.Session{}, fmt.Errorf("failed to parse session identity: %w", err)
	}

	return core.Session{
		Token:      token,
		IdentityID: identityID,
		CreatedAt:  payload.CreatedAt,
		ExpiresAt:  payload.ExpiresAt,
	}, nil
}
