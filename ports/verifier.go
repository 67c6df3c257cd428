package ports

import (
	"context"
	"encoding/json"

	"github.com/Karthikshettyhub/passwordless-auth/core"
)

// RegistrationResult carries the material extracted from a verified
// attestation response.
type RegistrationResult struct {
	CredentialID    []byte
	PublicKey       []byte
	SignCount       uint32
	AttestationType string
}

// AuthenticationResult carries the outcome of a verified assertion response.
type AuthenticationResult struct {
	// NewCount is the signature counter reported by the authenticator.
	NewCount uint32

	// CloneWarning is set when the verifier itself observed a
	// non-advancing counter.
	CloneWarning bool
}

// AssertionSummary is the pre-verification description of an assertion
// response: which credential signed it and which challenge it answers.
type AssertionSummary struct {
	CredentialID []byte
	Challenge    string
}

// CeremonyVerifier performs the cryptographic validation of ceremony
// responses. Orchestrators treat it as an opaque, correct collaborator;
// swapping the backend never touches orchestration logic.
type CeremonyVerifier interface {
	// PrepareRegistration builds client-facing ceremony parameters for
	// registering a new credential, embedding the store-issued challenge
	// and excluding the identity's existing credentials.
	PrepareRegistration(ctx context.Context, identity core.Identity, exclude []core.Credential, challenge string) (json.RawMessage, error)

	// VerifyRegistration validates an attestation response against the
	// expected challenge, origin and relying-party ID. Rejections are
	// reported as core.ErrVerificationFailed.
	VerifyRegistration(ctx context.Context, response []byte, challenge string, identity core.Identity) (RegistrationResult, error)

	// PrepareAuthentication builds client-facing ceremony parameters. A
	// nil identity produces a discoverable-credential ceremony; otherwise
	// the allow-list is restricted to the identity's credentials.
	PrepareAuthentication(ctx context.Context, identity *core.Identity, allow []core.Credential, challenge string) (json.RawMessage, error)

	// VerifyAuthentication validates an assertion response against the
	// expected challenge and the stored credential. Rejections are
	// reported as core.ErrVerificationFailed.
	VerifyAuthentication(ctx context.Context, response []byte, challenge string, owner core.Identity, cred core.Credential) (AuthenticationResult, error)

	// DescribeAssertion parses an assertion response without verifying
	// it, exposing the asserted credential ID and challenge value so the
	// orchestrator can scope its lookups by response content.
	DescribeAssertion(response []byte) (AssertionSummary, error)
}
