package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Karthikshettyhub/passwordless-auth/core"
)

func TestCredentialStore_RegisterRejectsDuplicateID(t *testing.T) {
	ctx := context.Background()
	store := NewCredentialStore(NewStore())

	cred := core.Credential{ID: []byte("cred-1"), OwnerID: uuid.New(), PublicKey: []byte("pk")}
	_, err := store.Register(ctx, cred)
	require.NoError(t, err)

	// Same credential ID under a different owner still collides.
	cred.OwnerID = uuid.New()
	_, err = store.Register(ctx, cred)
	assert.ErrorIs(t, err, core.ErrDuplicateCredential)
}

func TestCredentialStore_ListByOwner(t *testing.T) {
	ctx := context.Background()
	store := NewCredentialStore(NewStore())
	owner := uuid.New()

	_, err := store.Register(ctx, core.Credential{ID: []byte("a"), OwnerID: owner})
	require.NoError(t, err)
	_, err = store.Register(ctx, core.Credential{ID: []byte("b"), OwnerID: owner})
	require.NoError(t, err)
	_, err = store.Register(ctx, core.Credential{ID: []byte("c"), OwnerID: uuid.New()})
	require.NoError(t, err)

	creds, err := store.ListByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, creds, 2)
}

func TestCredentialStore_RecordUseAdvancesCounter(t *testing.T) {
	ctx := context.Background()
	store := NewCredentialStore(NewStore())
	id := []byte("cred-1")

	_, err := store.Register(ctx, core.Credential{ID: id, OwnerID: uuid.New(), SignCount: 4})
	require.NoError(t, err)

	usedAt := time.Now().UTC()
	require.NoError(t, store.RecordUse(ctx, id, 4, 5, usedAt))

	cred, err := store.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), cred.SignCount)
	assert.Equal(t, usedAt, cred.LastUsedAt)
}

func TestCredentialStore_RecordUseFailsOnStaleCounter(t *testing.T) {
	ctx := context.Background()
	store := NewCredentialStore(NewStore())
	id := []byte("cred-1")

	_, err := store.Register(ctx, core.Credential{ID: id, OwnerID: uuid.New(), SignCount: 7})
	require.NoError(t, err)

	err = store.RecordUse(ctx, id, 4, 8, time.Now().UTC())
	assert.ErrorIs(t, err, core.ErrPossibleCloneDetected)
}

func TestCredentialStore_ConcurrentRecordUseSingleWinner(t *testing.T) {
	ctx := context.Background()
	store := NewCredentialStore(NewStore())
	id := []byte("cred-1")

	_, err := store.Register(ctx, core.Credential{ID: id, OwnerID: uuid.New(), SignCount: 10})
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- store.RecordUse(ctx, id, 10, 11, time.Now().UTC())
		}()
	}
	wg.Wait()
	close(results)

	var wins int
	for err := range results {
		if err == nil {
			wins++
		} else if !errors.Is(err, core.ErrPossibleCloneDetected) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
}

func TestIdentityStore_FindOrCreateConverges(t *testing.T) {
	ctx := context.Background()
	store := NewIdentityStore(NewStore())

	first, err := store.FindOrCreate(ctx, "a@example.com", "Alice")
	require.NoError(t, err)
	second, err := store.FindOrCreate(ctx, "a@example.com", "Someone Else")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Alice", second.DisplayName)
}

func TestIdentityStore_GetByEmailUnknown(t *testing.T) {
	ctx := context.Background()
	store := NewIdentityStore(NewStore())

	_, err := store.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, core.ErrIdentityNotFound)
}

func TestSessionStore_ExpiredSessionNotReturned(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(NewStore())

	_, err := store.Create(ctx, core.Session{
		Token:      "tok",
		IdentityID: uuid.New(),
		CreatedAt:  time.Now().UTC().Add(-2 * time.Hour),
		ExpiresAt:  time.Now().UTC().Add(-time.Hour),
	})
	require.NoError(t, err)

	_, err = store.GetByToken(ctx, "tok")
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
}
