package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Karthikshettyhub/passwordless-auth/core"
)

// Store holds the shared in-memory state behind the per-record-set
// adapters, intended for development and tests. A single mutex makes
// every operation atomic, which is exactly the property the ceremony
// invariants rely on.
type Store struct {
	mu          sync.Mutex
	identities  map[uuid.UUID]core.Identity
	emailIndex  map[string]uuid.UUID
	credentials map[string]core.Credential
	challenges  []*core.Challenge
	sessions    map[string]core.Session
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		identities:  make(map[uuid.UUID]core.Identity),
		emailIndex:  make(map[string]uuid.UUID),
		credentials: make(map[string]core.Credential),
		sessions:    make(map[string]core.Session),
	}
}

// now is separated for tests that need deterministic clocks.
func (s *Store) now() time.Time {
	return time.Now().UTC()
}
