package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Karthikshettyhub/passwordless-auth/core"
	"github.com/Karthikshettyhub/passwordless-auth/ports"
)

var _ ports.IdentityStore = (*IdentityRepository)(nil)

// IdentityRepository is the Postgres identity directory.
type IdentityRepository struct {
	db *Connection
}

// NewIdentityRepository creates an identity repository.
func NewIdentityRepository(db *Connection) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// FindOrCreate returns the identity for email, creating it on first
// sight. ON CONFLICT DO NOTHING plus a re-read keeps concurrent creates
// converging on one row.
func (r *IdentityRepository) FindOrCreate(ctx context.Context, email, displayName string) (core.Identity, error) {
	query := `INSERT INTO identities (id, email, display_name, created_at)
			  VALUES ($1, $2, $3, $4)
			  ON CONFLICT (email) DO NOTHING
			  RETURNING id, email, display_name, created_at`

	var identity core.Identity
	err := r.db.QueryRow(ctx, query, uuid.New(), email, displayName, time.Now().UTC()).Scan(
		&identity.ID, &identity.Email, &identity.DisplayName, &identity.CreatedAt,
	)
	if err == nil {
		return identity, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return core.Identity{}, fmt.Errorf("%w: failed to create identity: %v", core.ErrStoreUnavailable, err)
	}

	// Conflict: the email already has an identity.
	return r.GetByEmail(ctx, email)
}

// GetByEmail looks up an identity by email.
func (r *IdentityRepository) GetByEmail(ctx context.Context, email string) (core.Identity, error) {
	query := `SELECT id, email, display_name, created_at FROM identities WHERE email = $1`

	var identity core.Identity
	err := r.db.QueryRow(ctx, query, email).Scan(
		&identity.ID, &identity.Email, &identity.DisplayName, &identity.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.Identity{}, core.ErrIdentityNotFound
		}
		return core.Identity{}, fmt.Errorf("%w: failed to get identity by email: %v", core.ErrStoreUnavailable, err)
	}

	return identity, nil
}

// GetByID looks up an identity by its internal ID.
func (r *IdentityRepository) GetByID(ctx context.Context, id uuid.UUID) (core.Identity, error) {
	query := `SELECT id, email, display_name, created_at FROM identities WHERE id = $1`

	var identity core.Identity
	err := r.db.QueryRow(ctx, query, id).Scan(
		&identity.ID, &identity.Email, &identity.DisplayName, &identity.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.Identity{}, core.ErrIdentityNotFound
		}
		return core.Identity{}, fmt.Errorf("%w: failed to get identity by id: %v", core.ErrStoreUnavailable, err)
	}

	return identity, nil
}
