package core

import (
	"time"

	"github.com/google/uuid"
)

// Identity represents a human account resolved from an email address.
// Identities are created on the first registration attempt for an unseen
// email and are never deleted by this service.
type Identity struct {
	ID          uuid.UUID // Internal identifier, generated on creation
	Email       string    // Unique, stored case-sensitive
	DisplayName string
	CreatedAt   time.Time
}

// UserHandle returns the WebAuthn user handle for the identity.
// Authenticators echo this handle back in discoverable-credential
// assertions, so it must be stable for the identity's lifetime.
func (i Identity) UserHandle() []byte {
	return i.ID[:]
}
