package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Karthikshettyhub/passwordless-auth/core"
	"github.com/Karthikshettyhub/passwordless-auth/ports"
)

var _ ports.CredentialStore = (*CredentialRepository)(nil)

// uniqueViolation is the Postgres error code for unique constraint violations.
const uniqueViolation = "23505"

// CredentialRepository is the Postgres credential registry.
type CredentialRepository struct {
	db *Connection
}

// NewCredentialRepository creates a credential repository.
func NewCredentialRepository(db *Connection) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// ListByOwner returns all credentials registered to the identity.
func (r *CredentialRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]core.Credential, error) {
	query := `SELECT credential_id, identity_id, public_key, sign_count, attestation_type, device_label, created_at, last_used_at
			  FROM credentials WHERE identity_id = $1 ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list credentials: %v", core.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var creds []core.Credential
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan credential: %v", core.ErrStoreUnavailable, err)
		}
		creds = append(creds, cred)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to read credentials: %v", core.ErrStoreUnavailable, err)
	}

	return creds, nil
}

// GetByID looks up a credential by its authenticator-assigned ID.
func (r *CredentialRepository) GetByID(ctx context.Context, credentialID []byte) (core.Credential, error) {
	query := `SELECT credential_id, identity_id, public_key, sign_count, attestation_type, device_label, created_at, last_used_at
			  FROM credentials WHERE credential_id = $1`

	cred, err := scanCredential(r.db.QueryRow(ctx, query, credentialID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.Credential{}, core.ErrCredentialNotFound
		}
		return core.Credential{}, fmt.Errorf("%w: failed to get credential: %v", core.ErrStoreUnavailable, err)
	}

	return cred, nil
}

// Register inserts a credential, relying on the primary key for the
// atomic check-and-insert.
func (r *CredentialRepository) Register(ctx context.Context, cred core.Credential) (core.Credential, error) {
	query := `INSERT INTO credentials (credential_id, identity_id, public_key, sign_count, attestation_type, device_label, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING credential_id, identity_id, public_key, sign_count, attestation_type, device_label, created_at, last_used_at`

	saved, err := scanCredential(r.db.QueryRow(ctx, query,
		cred.ID, cred.OwnerID, cred.PublicKey, cred.SignCount, cred.AttestationType, cred.DeviceLabel, time.Now().UTC(),
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return core.Credential{}, core.ErrDuplicateCredential
		}
		return core.Credential{}, fmt.Errorf("%w: failed to register credential: %v", core.ErrStoreUnavailable, err)
	}

	return saved, nil
}

// RecordUse advances the signature counter with a compare-and-set on the
// previously read value. Zero rows means another completion committed
// first, which is indistinguishable from a replay.
func (r *CredentialRepository) RecordUse(ctx context.Context, credentialID []byte, oldCount, newCount uint32, usedAt time.Time) error {
	query := `UPDATE credentials SET sign_count = $3, last_used_at = $4
			  WHERE credential_id = $1 AND sign_count = $2`

	tag, err := r.db.Exec(ctx, query, credentialID, oldCount, newCount, usedAt)
	if err != nil {
		return fmt.Errorf("%w: failed to record credential use: %v", core.ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrPossibleCloneDetected
	}

	return nil
}

// scanCredential reads one credential row; last_used_at is nullable.
func scanCredential(row pgx.Row) (core.Credential, error) {
	var cred core.Credential
	var lastUsed sql.NullTime
	err := row.Scan(
		&cred.ID, &cred.OwnerID, &cred.PublicKey, &cred.SignCount,
		&cred.AttestationType, &cred.DeviceLabel, &cred.CreatedAt, &lastUsed,
	)
	if err != nil {
		return core.Credential{}, err
	}
	if lastUsed.Valid {
		cred.LastUsedAt = lastUsed.Time
	}
	return cred, nil
}
