package core

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ChallengeKind discriminates the ceremony a challenge belongs to.
type ChallengeKind string

const (
	// ChallengeRegistration marks challenges issued for registration ceremonies.
	ChallengeRegistration ChallengeKind = "registration"

	// ChallengeAuthentication marks challenges issued for authentication ceremonies.
	ChallengeAuthentication ChallengeKind = "authentication"
)

// challengeBytes is the entropy of a challenge value before encoding.
const challengeBytes = 32

// Challenge is a single-use random value binding one ceremony attempt.
// A challenge is acceptable for verification only while it is unused,
// unexpired and of the kind being completed.
type Challenge struct {
	Value      string        // base64url-encoded random value, matches the client data challenge
	IdentityID *uuid.UUID    // nil for identity-discoverable authentication
	Kind       ChallengeKind
	CreatedAt  time.Time
	ExpiresAt  time.Time
	Used       bool
}

// NewChallenge generates a challenge with a fresh random value and the
// given TTL. Store adapters call this so all of them share the same
// entropy and encoding.
func NewChallenge(kind ChallengeKind, identityID *uuid.UUID, ttl time.Duration) (Challenge, error) {
	buf := make([]byte, challengeBytes)
	if _, err := rand.Read(buf); err != nil {
		return Challenge{}, fmt.Errorf("failed to generate challenge value: %w", err)
	}

	now := time.Now().UTC()
	return Challenge{
		Value:      base64.RawURLEncoding.EncodeToString(buf),
		IdentityID: identityID,
		Kind:       kind,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}, nil
}

// Live reports whether the challenge is still consumable at the given time.
func (c Challenge) Live(now time.Time) bool {
	return !c.Used && now.Before(c.ExpiresAt)
}
