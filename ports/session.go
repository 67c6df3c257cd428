package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/Karthikshettyhub/passwordless-auth/core"
)

// SessionIssuer mints bearer tokens bound to an identity as the terminal
// step of a successful ceremony, and resolves presented tokens back to
// their session.
type SessionIssuer interface {
	Issue(ctx context.Context, identityID uuid.UUID) (core.Session, error)

	// Validate returns core.ErrSessionNotFound for unknown, malformed or
	// expired tokens.
	Validate(ctx context.Context, token string) (core.Session, error)
}
