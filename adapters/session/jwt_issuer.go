package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Karthikshettyhub/passwordless-auth/core"
	"github.com/Karthikshettyhub/passwordless-auth/ports"
)

const AudienceSession = "auth:session"

// SessionClaims are the registered claims carried by a session token.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// JWTIssuer mints HS256-signed session tokens. Each token references a
// stored session row through its jti claim, so sessions stay revocable
// despite the token being self-describing.
type JWTIssuer struct {
	signKey  []byte
	sessions ports.SessionStore
	ttl      time.Duration
	now      func() time.Time
}

// NewJWTIssuer creates an issuer signing with the given symmetric key.
func NewJWTIssuer(signKey []byte, sessions ports.SessionStore, ttl time.Duration) *JWTIssuer {
	return &JWTIssuer{signKey: signKey, sessions: sessions, ttl: ttl, now: time.Now}
}

func (i *JWTIssuer) Issue(ctx context.Context, identityID uuid.UUID) (core.Session, error) {
	now := i.now().UTC()
	sessionID := uuid.NewString()
	expiresAt := now.Add(i.ttl)

	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identityID.String(),
			ID:        sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Audience:  jwt.ClaimStrings{AudienceSession},
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.signKey)
	if err != nil {
		return core.Session{}, fmt.Errorf("sign session token: %w", err)
	}

	// The store row is keyed by jti, not by the signed token, so the row
	// stays small and the token never has to round-trip through storage.
	if _, err := i.sessions.Create(ctx, core.Session{
		Token:      sessionID,
		IdentityID: identityID,
		CreatedAt:  now,
		ExpiresAt:  expiresAt,
	}); err != nil {
		return core.Session{}, err
	}

	return core.Session{
		Token:      signed,
		IdentityID: identityID,
		CreatedAt:  now,
		ExpiresAt:  expiresAt,
	}, nil
}

func (i *JWTIssuer) Validate(ctx context.Context, token string) (core.Session, error) {
	if token == "" {
		return core.Session{}, core.ErrSessionNotFound
	}

	parsed, err := jwt.ParseWithClaims(token, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.signKey, nil
	}, jwt.WithAudience(AudienceSession))
	if err != nil || !parsed.Valid {
		return core.Session{}, core.ErrSessionNotFound
	}

	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok {
		return core.Session{}, core.ErrSessionNotFound
	}

	stored, err := i.sessions.GetByToken(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, core.ErrSessionNotFound) {
			return core.Session{}, core.ErrSessionNotFound
		}
		return core.Session{}, err
	}
	if stored.Expired(i.now().UTC()) {
		return core.Session{}, core.ErrSessionNotFound
	}

	stored.Token = token
	return stored, nil
}
