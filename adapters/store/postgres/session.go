package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Karthikshettyhub/passwordless-auth/core"
	"github.com/Karthikshettyhub/passwordless-auth/ports"
)

var _ ports.SessionStore = (*SessionRepository)(nil)

// SessionRepository is the Postgres session store.
type SessionRepository struct {
	db *Connection
}

// NewSessionRepository creates a session repository.
func NewSessionRepository(db *Connection) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create persists a session.
func (r *SessionRepository) Create(ctx context.Context, session core.Session) (core.Session, error) {
	query := `INSERT INTO sessions (token, identity_id, created_at, expires_at)
			  VALUES ($1, $2, $3, $4)
			  RETURNING token, identity_id, created_at, expires_at`

	var saved core.Session
	err := r.db.QueryRow(ctx, query,
		session.Token, session.IdentityID, session.CreatedAt, session.ExpiresAt,
	).Scan(&saved.Token, &saved.IdentityID, &saved.CreatedAt, &saved.ExpiresAt)
	if err != nil {
		return core.Session{}, fmt.Errorf("%w: failed to create session: %v", core.ErrStoreUnavailable, err)
	}

	return saved, nil
}

// GetByToken resolves a bearer token to its live session.
func (r *SessionRepository) GetByToken(ctx context.Context, token string) (core.Session, error) {
	query := `SELECT token, identity_id, created_at, expires_at
			  FROM sessions WHERE token = $1 AND expires_at > now()`

	var session core.Session
	err := r.db.QueryRow(ctx, query, token).Scan(
		&session.Token, &session.IdentityID, &session.CreatedAt, &session.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.Session{}, core.ErrSessionNotFound
		}
		return core.Session{}, fmt.Errorf("%w: failed to get session: %v", core.ErrStoreUnavailable, err)
	}

	return session, nil
}
