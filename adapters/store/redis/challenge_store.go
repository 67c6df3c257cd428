package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Karthikshettyhub/passwordless-auth/core"
	"github.com/Karthikshettyhub/passwordless-auth/ports"
)

var _ ports.ChallengeStore = (*ChallengeStore)(nil)

const (
	challengePrefix = "auth:challenge:"
	boundPrefix     = "auth:challenge:bound:"
)

// issueBoundScript stores a bound challenge and supersedes the prior one
// in a single atomic step: the old value key dies with the index swap, so
// two racing issues can never leave two live bound challenges behind.
// KEYS[1] is the bound index key, KEYS[2] the new challenge value key.
var issueBoundScript = goredis.NewScript(`
local prior = redis.call('GET', KEYS[1])
if prior then
	redis.call('DEL', ARGV[4] .. prior)
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

// consumeScript atomically validates and deletes a challenge key, so a
// mismatching consume attempt cannot burn someone else's challenge and
// two racing consumers see exactly one success.
var consumeScript = goredis.NewScript(`
local v = redis.call('GET', KEYS[1])
if not v then
	return false
end
local p = cjson.decode(v)
if p.kind ~= ARGV[1] then
	return false
end
if p.identity_id ~= '' and p.identity_id ~= ARGV[2] then
	return false
end
redis.call('DEL', KEYS[1])
return v
`)

// challengePayload is the stored representation of a challenge.
type challengePayload struct {
	IdentityID string    `json:"identity_id"`
	Kind       string    `json:"kind"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// ChallengeStore is a Redis challenge store. Expiry rides on key TTLs
// and consumption deletes the key, so used challenges need no flag.
type ChallengeStore struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewChallengeStore creates a Redis challenge store issuing challenges
// with the given TTL.
func NewChallengeStore(client *goredis.Client, ttl time.Duration) *ChallengeStore {
	return &ChallengeStore{client: client, ttl: ttl}
}

// Issue persists a fresh challenge. Bound challenges go through a script
// that deletes the superseded value key and swaps the index in one step.
func (s *ChallengeStore) Issue(ctx context.Context, kind core.ChallengeKind, identityID *uuid.UUID) (core.Challenge, error) {
	challenge, err := core.NewChallenge(kind, identityID, s.ttl)
	if err != nil {
		return core.Challenge{}, err
	}

	payload := challengePayload{
		Kind:      string(kind),
		CreatedAt: challenge.CreatedAt,
		ExpiresAt: challenge.ExpiresAt,
	}
	if identityID != nil {
		payload.IdentityID = identityID.String()
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return core.Challenge{}, fmt.Errorf("failed to marshal challenge: %w", err)
	}

	if identityID != nil {
		err := issueBoundScript.Run(ctx, s.client,
			[]string{s.boundKey(kind, *identityID), challengePrefix + challenge.Value},
			challenge.Value, raw, s.ttl.Milliseconds(), challengePrefix,
		).Err()
		if err != nil {
			return core.Challenge{}, fmt.Errorf("%w: failed to store bound challenge: %v", core.ErrStoreUnavailable, err)
		}
		return challenge, nil
	}

	if err := s.client.Set(ctx, challengePrefix+challenge.Value, raw, s.ttl).Err(); err != nil {
		return core.Challenge{}, fmt.Errorf("%w: failed to store challenge: %v", core.ErrStoreUnavailable, err)
	}

	return challenge, nil
}

// ConsumeBound consumes the live challenge bound to the identity.
func (s *ChallengeStore) ConsumeBound(ctx context.Context, kind core.ChallengeKind, identityID uuid.UUID) (core.Challenge, error) {
	value, err := s.client.GetDel(ctx, s.boundKey(kind, identityID)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return core.Challenge{}, core.ErrChallengeNotFound
		}
		return core.Challenge{}, fmt.Errorf("%w: failed to read bound challenge index: %v", core.ErrStoreUnavailable, err)
	}

	return s.consume(ctx, kind, value, identityID)
}

// ConsumeByValue consumes the live challenge with the exact value.
func (s *ChallengeStore) ConsumeByValue(ctx context.Context, kind core.ChallengeKind, value string, identityID uuid.UUID) (core.Challenge, error) {
	return s.consume(ctx, kind, value, identityID)
}

func (s *ChallengeStore) consume(ctx context.Context, kind core.ChallengeKind, value string, identityID uuid.UUID) (core.Challenge, error) {
	res, err := consumeScript.Run(ctx, s.client,
		[]string{challengePrefix + value},
		string(kind), identityID.String(),
	).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return core.Challenge{}, core.ErrChallengeNotFound
		}
		return core.Challenge{}, fmt.Errorf("%w: failed to consume challenge: %v", core.ErrStoreUnavailable, err)
	}

	raw, ok := res.(string)
	if !ok {
		return core.Challenge{}, core.ErrChallengeNotFound
	}

	var payload challengePayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return core.Challenge{}, fmt.Errorf("failed to unmarshal challenge: %w", err)
	}

	challenge := core.Challenge{
		Value:     value,
		Kind:      core.ChallengeKind(payload.Kind),
		CreatedAt: payload.CreatedAt,
		ExpiresAt: payload.ExpiresAt,
		Used:      true,
	}
	if payload.IdentityID != "" {
		bound, err := uuid.Parse(payload.IdentityID)
		if err != nil {
			return core.Challenge{}, fmt.Errorf("failed to parse bound identity: %w", err)
		}
		challenge.IdentityID = &bound
	}

	return challenge, nil
}

func (s *ChallengeStore) boundKey(kind core.ChallengeKind, identityID uuid.UUID) string {
	return boundPrefix + string(kind) + ":" + identityID.String()
}
