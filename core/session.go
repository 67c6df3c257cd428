package core

import (
	"time"

	"github.com/google/uuid"
)

// Session is an opaque bearer credential minted as the terminal step of a
// successful ceremony. This service never revokes or renews sessions.
type Session struct {
	Token      string // Opaque bearer value, unique
	IdentityID uuid.UUID
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// Expired reports whether the session is past its expiry at the given time.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
