package ports

import (
	"context"

	"github.com/google/uuid"
)

// EventPublisher notifies other components about completed ceremonies.
type EventPublisher interface {
	PublishCredentialRegistered(ctx context.Context, identityID uuid.UUID, credentialID []byte) error
	PublishIdentityAuthenticated(ctx context.Context, identityID uuid.UUID, credentialID []byte) error
}
