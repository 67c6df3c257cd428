package core

import (
	"time"

	"github.com/google/uuid"
)

// Credential is a public-key credential registered by an authenticator.
// The public key is stored verbatim and never parsed here; all COSE
// handling happens inside the ceremony verifier.
type Credential struct {
	ID              []byte    // Credential ID assigned by the authenticator, globally unique
	OwnerID         uuid.UUID // Owning identity; a credential has exactly one owner
	PublicKey       []byte    // Opaque COSE key material
	SignCount       uint32    // Monotonically non-decreasing across successful authentications
	AttestationType string
	DeviceLabel     string
	CreatedAt       time.Time
	LastUsedAt      time.Time
}
