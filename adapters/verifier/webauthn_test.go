package verifier

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Karthikshettyhub/passwordless-auth/core"
)

func newTestVerifier(t *testing.T) *WebAuthn {
	t.Helper()
	v, err := NewWebAuthn(Config{
		RPID:      "localhost",
		RPName:    "Passwordless Auth",
		RPOrigins: []string{"http://localhost:3001"},
	})
	require.NoError(t, err)
	return v
}

func testIdentity() core.Identity {
	return core.Identity{
		ID:          [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
		Email:       "alice@example.com",
		DisplayName: "Alice",
		CreatedAt:   time.Now().UTC(),
	}
}

func issuedChallenge(t *testing.T) string {
	t.Helper()
	challenge, err := core.NewChallenge(core.ChallengeRegistration, nil, 5*time.Minute)
	require.NoError(t, err)
	return challenge.Value
}

func TestPrepareRegistration_CarriesIssuedChallenge(t *testing.T) {
	v := newTestVerifier(t)
	identity := testIdentity()
	challenge := issuedChallenge(t)

	raw, err := v.PrepareRegistration(context.Background(), identity, nil, challenge)
	require.NoError(t, err)

	var options struct {
		PublicKey struct {
			Challenge string `json:"challenge"`
			RP        struct {
				ID string `json:"id"`
			} `json:"rp"`
			User struct {
				ID string `json:"id"`
			} `json:"user"`
		} `json:"publicKey"`
	}
	require.NoError(t, json.Unmarshal(raw, &options))

	assert.Equal(t, challenge, options.PublicKey.Challenge)
	assert.Equal(t, "localhost", options.PublicKey.RP.ID)
	assert.Equal(t, base64.RawURLEncoding.EncodeToString(identity.UserHandle()), options.PublicKey.User.ID)
}

func TestPrepareRegistration_ExcludesExistingCredentials(t *testing.T) {
	v := newTestVerifier(t)
	identity := testIdentity()
	existing := []core.Credential{{ID: []byte("enrolled"), OwnerID: identity.ID, PublicKey: []byte("pk")}}

	raw, err := v.PrepareRegistration(context.Background(), identity, existing, issuedChallenge(t))
	require.NoError(t, err)

	var options struct {
		PublicKey struct {
			ExcludeCredentials []struct {
				ID string `json:"id"`
			} `json:"excludeCredentials"`
		} `json:"publicKey"`
	}
	require.NoError(t, json.Unmarshal(raw, &options))
	require.Len(t, options.PublicKey.ExcludeCredentials, 1)
	assert.Equal(t, base64.RawURLEncoding.EncodeToString([]byte("enrolled")), options.PublicKey.ExcludeCredentials[0].ID)
}

func TestPrepareAuthentication_Discoverable(t *testing.T) {
	v := newTestVerifier(t)
	challenge := issuedChallenge(t)

	raw, err := v.PrepareAuthentication(context.Background(), nil, nil, challenge)
	require.NoError(t, err)

	var options struct {
		PublicKey struct {
			Challenge        string `json:"challenge"`
			AllowCredentials []any  `json:"allowCredentials"`
		} `json:"publicKey"`
	}
	require.NoError(t, json.Unmarshal(raw, &options))
	assert.Equal(t, challenge, options.PublicKey.Challenge)
	assert.Empty(t, options.PublicKey.AllowCredentials)
}

func TestPrepareAuthentication_AllowListForKnownIdentity(t *testing.T) {
	v := newTestVerifier(t)
	identity := testIdentity()
	allow := []core.Credential{{ID: []byte("cred-1"), OwnerID: identity.ID, PublicKey: []byte("pk")}}

	raw, err := v.PrepareAuthentication(context.Background(), &identity, allow, issuedChallenge(t))
	require.NoError(t, err)

	var options struct {
		PublicKey struct {
			AllowCredentials []struct {
				ID string `json:"id"`
			} `json:"allowCredentials"`
		} `json:"publicKey"`
	}
	require.NoError(t, json.Unmarshal(raw, &options))
	require.Len(t, options.PublicKey.AllowCredentials, 1)
	assert.Equal(t, base64.RawURLEncoding.EncodeToString([]byte("cred-1")), options.PublicKey.AllowCredentials[0].ID)
}

func TestPrepareRegistration_RejectsMalformedChallenge(t *testing.T) {
	v := newTestVerifier(t)

	_, err := v.PrepareRegistration(context.Background(), testIdentity(), nil, "not!base64url!")
	assert.Error(t, err)
}

func TestDescribeAssertion_MalformedResponse(t *testing.T) {
	v := newTestVerifier(t)

	_, err := v.DescribeAssertion([]byte("not json"))
	assert.ErrorIs(t, err, core.ErrVerificationFailed)
}

func TestVerifyRegistration_MalformedResponse(t *testing.T) {
	v := newTestVerifier(t)

	_, err := v.VerifyRegistration(context.Background(), []byte("{}"), issuedChallenge(t), testIdentity())
	assert.ErrorIs(t, err, core.ErrVerificationFailed)
}
