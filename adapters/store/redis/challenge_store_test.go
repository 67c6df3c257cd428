package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Karthikshettyhub/passwordless-auth/core"
)

func newTestClient(t *testing.T) *goredis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestChallengeStore_ConsumeByValueIsSingleUse(t *testing.T) {
	ctx := context.Background()
	store := NewChallengeStore(newTestClient(t), 5*time.Minute)

	issued, err := store.Issue(ctx, core.ChallengeAuthentication, nil)
	require.NoError(t, err)

	consumed, err := store.ConsumeByValue(ctx, core.ChallengeAuthentication, issued.Value, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, issued.Value, consumed.Value)
	assert.True(t, consumed.Used)

	_, err = store.ConsumeByValue(ctx, core.ChallengeAuthentication, issued.Value, uuid.New())
	assert.ErrorIs(t, err, core.ErrChallengeNotFound)
}

func TestChallengeStore_ConsumeBoundIsSingleUse(t *testing.T) {
	ctx := context.Background()
	store := NewChallengeStore(newTestClient(t), 5*time.Minute)
	identityID := uuid.New()

	issued, err := store.Issue(ctx, core.ChallengeRegistration, &identityID)
	require.NoError(t, err)

	consumed, err := store.ConsumeBound(ctx, core.ChallengeRegistration, identityID)
	require.NoError(t, err)
	assert.Equal(t, issued.Value, consumed.Value)
	require.NotNil(t, consumed.IdentityID)
	assert.Equal(t, identityID, *consumed.IdentityID)

	_, err = store.ConsumeBound(ctx, core.ChallengeRegistration, identityID)
	assert.ErrorIs(t, err, core.ErrChallengeNotFound)
}

func TestChallengeStore_KindMismatchDoesNotBurnChallenge(t *testing.T) {
	ctx := context.Background()
	store := NewChallengeStore(newTestClient(t), 5*time.Minute)
	identityID := uuid.New()

	issued, err := store.Issue(ctx, core.ChallengeRegistration, &identityID)
	require.NoError(t, err)

	_, err = store.ConsumeByValue(ctx, core.ChallengeAuthentication, issued.Value, identityID)
	assert.ErrorIs(t, err, core.ErrChallengeNotFound)

	// The mismatching attempt left the challenge intact.
	_, err = store.ConsumeByValue(ctx, core.ChallengeRegistration, issued.Value, identityID)
	assert.NoError(t, err)
}

func TestChallengeStore_BoundChallengeRejectsOtherIdentity(t *testing.T) {
	ctx := context.Background()
	store := NewChallengeStore(newTestClient(t), 5*time.Minute)
	owner := uuid.New()

	issued, err := store.Issue(ctx, core.ChallengeAuthentication, &owner)
	require.NoError(t, err)

	_, err = store.ConsumeByValue(ctx, core.ChallengeAuthentication, issued.Value, uuid.New())
	assert.ErrorIs(t, err, core.ErrChallengeNotFound)

	_, err = store.ConsumeByValue(ctx, core.ChallengeAuthentication, issued.Value, owner)
	assert.NoError(t, err)
}

func TestChallengeStore_ReissueSupersedesBoundChallenge(t *testing.T) {
	ctx := context.Background()
	store := NewChallengeStore(newTestClient(t), 5*time.Minute)
	identityID := uuid.New()

	first, err := store.Issue(ctx, core.ChallengeAuthentication, &identityID)
	require.NoError(t, err)
	second, err := store.Issue(ctx, core.ChallengeAuthentication, &identityID)
	require.NoError(t, err)

	_, err = store.ConsumeByValue(ctx, core.ChallengeAuthentication, first.Value, identityID)
	assert.ErrorIs(t, err, core.ErrChallengeNotFound)

	consumed, err := store.ConsumeBound(ctx, core.ChallengeAuthentication, identityID)
	require.NoError(t, err)
	assert.Equal(t, second.Value, consumed.Value)
}

func TestChallengeStore_ConcurrentBoundIssueLeavesOneLive(t *testing.T) {
	ctx := context.Background()
	store := NewChallengeStore(newTestClient(t), 5*time.Minute)
	identityID := uuid.New()

	const issuers = 8
	var wg sync.WaitGroup
	values := make(chan string, issuers)
	for i := 0; i < issuers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			issued, err := store.Issue(ctx, core.ChallengeAuthentication, &identityID)
			if err != nil {
				t.Error(err)
				return
			}
			values <- issued.Value
		}()
	}
	wg.Wait()
	close(values)

	// Racing issues must not leave more than one consumable challenge.
	var live int
	for value := range values {
		_, err := store.ConsumeByValue(ctx, core.ChallengeAuthentication, value, identityID)
		switch {
		case err == nil:
			live++
		case errors.Is(err, core.ErrChallengeNotFound):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, live)
}

func TestSessionStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(newTestClient(t))
	identityID := uuid.New()

	now := time.Now().UTC()
	session := core.Session{
		Token:      "tok",
		IdentityID: identityID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(time.Hour),
	}
	_, err := store.Create(ctx, session)
	require.NoError(t, err)

	fetched, err := store.GetByToken(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, identityID, fetched.IdentityID)

	_, err = store.GetByToken(ctx, "unknown")
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
}

func TestSessionStore_RejectsAlreadyExpired(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(newTestClient(t))

	_, err := store.Create(ctx, core.Session{
		Token:      "tok",
		IdentityID: uuid.New(),
		ExpiresAt:  time.Now().UTC().Add(-time.Minute),
	})
	assert.Error(t, err)
}
