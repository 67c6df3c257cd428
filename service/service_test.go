package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Karthikshettyhub/passwordless-auth/adapters/session"
	"github.com/Karthikshettyhub/passwordless-auth/adapters/store/memory"
	"github.com/Karthikshettyhub/passwordless-auth/core"
	"github.com/Karthikshettyhub/passwordless-auth/ports"
	"github.com/Karthikshettyhub/passwordless-auth/testutil"
)

// fakeVerifier stands in for the cryptographic backend. It remembers the
// challenge embedded into the last prepared options and echoes it from
// DescribeAssertion, mimicking a client that round-trips the ceremony.
type fakeVerifier struct {
	mu            sync.Mutex
	lastChallenge string

	registration    ports.RegistrationResult
	registrationErr error

	authentication    ports.AuthenticationResult
	authenticationErr error

	assertedCredential []byte
}

func (f *fakeVerifier) PrepareRegistration(ctx context.Context, identity core.Identity, exclude []core.Credential, challenge string) (json.RawMessage, error) {
	f.mu.Lock()
	f.lastChallenge = challenge
	f.mu.Unlock()
	return json.RawMessage(`{}`), nil
}

func (f *fakeVerifier) VerifyRegistration(ctx context.Context, response []byte, challenge string, identity core.Identity) (ports.RegistrationResult, error) {
	if f.registrationErr != nil {
		return ports.RegistrationResult{}, f.registrationErr
	}
	return f.registration, nil
}

func (f *fakeVerifier) PrepareAuthentication(ctx context.Context, identity *core.Identity, allow []core.Credential, challenge string) (json.RawMessage, error) {
	f.mu.Lock()
	f.lastChallenge = challenge
	f.mu.Unlock()
	return json.RawMessage(`{}`), nil
}

func (f *fakeVerifier) VerifyAuthentication(ctx context.Context, response []byte, challenge string, owner core.Identity, cred core.Credential) (ports.AuthenticationResult, error) {
	if f.authenticationErr != nil {
		return ports.AuthenticationResult{}, f.authenticationErr
	}
	return f.authentication, nil
}

func (f *fakeVerifier) DescribeAssertion(response []byte) (ports.AssertionSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return ports.AssertionSummary{CredentialID: f.assertedCredential, Challenge: f.lastChallenge}, nil
}

type fakePublisher struct {
	mu            sync.Mutex
	registered    int
	authenticated int
}

func (f *fakePublisher) PublishCredentialRegistered(ctx context.Context, identityID uuid.UUID, credentialID []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered++
	return nil
}

func (f *fakePublisher) PublishIdentityAuthenticated(ctx context.Context, identityID uuid.UUID, credentialID []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authenticated++
	return nil
}

type fixture struct {
	identities  *memory.IdentityStore
	credentials *memory.CredentialStore
	challenges  *memory.ChallengeStore
	verifier    *fakeVerifier
	publisher   *fakePublisher

	registration   *Registration
	authentication *Authentication
}

func newFixture() *fixture {
	store := memory.NewStore()
	f := &fixture{
		identities:  memory.NewIdentityStore(store),
		credentials: memory.NewCredentialStore(store),
		challenges:  memory.NewChallengeStore(store, 5*time.Minute),
		verifier:    &fakeVerifier{},
		publisher:   &fakePublisher{},
	}

	issuer := session.NewOpaqueIssuer(memory.NewSessionStore(store), 7*24*time.Hour)
	log := testutil.MakeNoopLogger()

	f.registration = NewRegistration(f.identities, f.credentials, f.challenges, f.verifier, issuer, f.publisher, log)
	f.authentication = NewAuthentication(f.identities, f.credentials, f.challenges, f.verifier, issuer, f.publisher, log)
	return f
}
