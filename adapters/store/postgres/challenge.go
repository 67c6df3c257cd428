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

var _ ports.ChallengeStore = (*ChallengeRepository)(nil)

// ChallengeRepository is the Postgres challenge store. Consumption is a
// single conditional UPDATE, so two racing completions see exactly one
// success and one miss.
type ChallengeRepository struct {
	db  *Connection
	ttl time.Duration
}

// NewChallengeRepository creates a challenge repository issuing
// challenges with the given TTL.
func NewChallengeRepository(db *Connection, ttl time.Duration) *ChallengeRepository {
	return &ChallengeRepository{db: db, ttl: ttl}
}

// Issue persists a fresh challenge. Bound challenges supersede any prior
// live challenge for the same (kind, identity) pair in the same
// transaction, keeping at most one outstanding.
func (r *ChallengeRepository) Issue(ctx context.Context, kind core.ChallengeKind, identityID *uuid.UUID) (core.Challenge, error) {
	challenge, err := core.NewChallenge(kind, identityID, r.ttl)
	if err != nil {
		return core.Challenge{}, err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return core.Challenge{}, fmt.Errorf("%w: failed to begin transaction: %v", core.ErrStoreUnavailable, err)
	}
	defer tx.Rollback(ctx)

	if identityID != nil {
		supersede := `UPDATE challenges SET used = true
					  WHERE identity_id = $1 AND kind = $2 AND NOT used`
		if _, err := tx.Exec(ctx, supersede, identityID, kind); err != nil {
			return core.Challenge{}, fmt.Errorf("%w: failed to supersede challenges: %v", core.ErrStoreUnavailable, err)
		}
	}

	insert := `INSERT INTO challenges (value, identity_id, kind, used, created_at, expires_at)
			   VALUES ($1, $2, $3, false, $4, $5)`
	if _, err := tx.Exec(ctx, insert, challenge.Value, identityID, kind, challenge.CreatedAt, challenge.ExpiresAt); err != nil {
		return core.Challenge{}, fmt.Errorf("%w: failed to insert challenge: %v", core.ErrStoreUnavailable, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return core.Challenge{}, fmt.Errorf("%w: failed to commit challenge: %v", core.ErrStoreUnavailable, err)
	}

	return challenge, nil
}

// ConsumeBound marks used the newest live challenge bound to the
// identity. The outer NOT used guard makes the mark one-shot when two
// calls race on the same row.
func (r *ChallengeRepository) ConsumeBound(ctx context.Context, kind core.ChallengeKind, identityID uuid.UUID) (core.Challenge, error) {
	query := `UPDATE challenges SET used = true
			  WHERE NOT used AND id = (
				  SELECT id FROM challenges
				  WHERE identity_id = $1 AND kind = $2 AND NOT used AND expires_at > now()
				  ORDER BY created_at DESC LIMIT 1
			  )
			  RETURNING value, identity_id, kind, created_at, expires_at`

	return r.scanConsumed(r.db.QueryRow(ctx, query, identityID, kind))
}

// ConsumeByValue marks used the live challenge with the exact value,
// provided it is unbound or bound to identityID.
func (r *ChallengeRepository) ConsumeByValue(ctx context.Context, kind core.ChallengeKind, value string, identityID uuid.UUID) (core.Challenge, error) {
	query := `UPDATE challenges SET used = true
			  WHERE value = $1 AND kind = $2 AND NOT used AND expires_at > now()
				AND (identity_id IS NULL OR identity_id = $3)
			  RETURNING value, identity_id, kind, created_at, expires_at`

	return r.scanConsumed(r.db.QueryRow(ctx, query, value, kind, identityID))
}

func (r *ChallengeRepository) scanConsumed(row pgx.Row) (core.Challenge, error) {
	var challenge core.Challenge
	err := row.Scan(
		&challenge.Value, &challenge.IdentityID, &challenge.Kind,
		&challenge.CreatedAt, &challenge.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.Challenge{}, core.ErrChallengeNotFound
		}
		return core.Challenge{}, fmt.Errorf("%w: failed to consume challenge: %v", core.ErrStoreUnavailable, err)
	}

	challenge.Used = true
	return challenge, nil
}
