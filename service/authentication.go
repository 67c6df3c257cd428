package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Karthikshettyhub/passwordless-auth/core"
	"github.com/Karthikshettyhub/passwordless-auth/logger"
	"github.com/Karthikshettyhub/passwordless-auth/ports"
)

// AuthenticationResult is the outcome of a completed authentication
// ceremony.
type AuthenticationResult struct {
	Session  core.Session
	Identity core.Identity
}

// Authentication orchestrates authentication ceremonies.
type Authentication struct {
	identities  ports.IdentityStore
	credentials ports.CredentialStore
	challenges  ports.ChallengeStore
	verifier    ports.CeremonyVerifier
	sessions    ports.SessionIssuer
	eventPub    ports.EventPublisher
	log         *logger.Logger
	now         func() time.Time
}

// NewAuthentication creates an authentication orchestrator.
func NewAuthentication(
	identities ports.IdentityStore,
	credentials ports.CredentialStore,
	challenges ports.ChallengeStore,
	verifier ports.CeremonyVerifier,
	sessions ports.SessionIssuer,
	eventPub ports.EventPublisher,
	log *logger.Logger,
) *Authentication {
	return &Authentication{
		identities:  identities,
		credentials: credentials,
		challenges:  challenges,
		verifier:    verifier,
		sessions:    sessions,
		eventPub:    eventPub,
		log:         log,
		now:         time.Now,
	}
}

// Begin prepares ceremony options. A known email produces an allow-list
// bound to that identity; an unknown or absent email degrades to a
// discoverable ceremony so the response never reveals whether the email
// is registered.
func (s *Authentication) Begin(ctx context.Context, email string) (json.RawMessage, error) {
	email = strings.TrimSpace(email)

	var (
		identity *core.Identity
		allow    []core.Credential
	)
	if email != "" {
		found, err := s.identities.GetByEmail(ctx, email)
		switch {
		case err == nil:
			creds, err := s.credentials.ListByOwner(ctx, found.ID)
			if err != nil {
				return nil, fmt.Errorf("list credentials: %w", err)
			}
			if len(creds) > 0 {
				identity = &found
				allow = creds
			}
		case errors.Is(err, core.ErrIdentityNotFound):
			// Fall through to a discoverable ceremony.
		default:
			return nil, fmt.Errorf("resolve identity: %w", err)
		}
	}

	var boundTo *uuid.UUID
	if identity != nil {
		boundTo = &identity.ID
	}
	challenge, err := s.challenges.Issue(ctx, core.ChallengeAuthentication, boundTo)
	if err != nil {
		return nil, fmt.Errorf("issue challenge: %w", err)
	}

	options, err := s.verifier.PrepareAuthentication(ctx, identity, allow, challenge.Value)
	if err != nil {
		return nil, fmt.Errorf("prepare authentication: %w", err)
	}
	return options, nil
}

// Complete verifies an assertion response and establishes a session. The
// challenge is consumed by the exact value echoed in the response, the
// signature counter is advanced under compare-and-set, and a
// non-advancing counter rejects the ceremony.
func (s *Authentication) Complete(ctx context.Context, response []byte) (AuthenticationResult, error) {
	if len(response) == 0 {
		return AuthenticationResult{}, fmt.Errorf("%w: credential response is required", core.ErrMissingInput)
	}

	summary, err := s.verifier.DescribeAssertion(response)
	if err != nil {
		return AuthenticationResult{}, err
	}

	cred, err := s.credentials.GetByID(ctx, summary.CredentialID)
	if err != nil {
		return AuthenticationResult{}, err
	}

	owner, err := s.identities.GetByID(ctx, cred.OwnerID)
	if err != nil {
		return AuthenticationResult{}, err
	}

	challenge, err := s.challenges.ConsumeByValue(ctx, core.ChallengeAuthentication, summary.Challenge, owner.ID)
	if err != nil {
		return AuthenticationResult{}, err
	}

	result, err := s.verifier.VerifyAuthentication(ctx, response, challenge.Value, owner, cred)
	if err != nil {
		s.log.Info("authentication verification rejected", "identity_id", owner.ID, "error", err)
		return AuthenticationResult{}, err
	}

	// A counter that fails to advance past the stored value signals a
	// possible cloned authenticator. Authenticators that never count
	// report zero on both sides and are tolerated.
	if result.CloneWarning || (cred.SignCount > 0 && result.NewCount <= cred.SignCount) {
		s.log.Warn("possible cloned authenticator",
			"identity_id", owner.ID,
			"credential_id", base64.RawURLEncoding.EncodeToString(cred.ID),
			"stored_count", cred.SignCount,
			"reported_count", result.NewCount)
		return AuthenticationResult{}, core.ErrPossibleCloneDetected
	}

	if err := s.credentials.RecordUse(ctx, cred.ID, cred.SignCount, result.NewCount, s.now().UTC()); err != nil {
		return AuthenticationResult{}, err
	}

	session, err := s.sessions.Issue(ctx, owner.ID)
	if err != nil {
		return AuthenticationResult{}, fmt.Errorf("issue session: %w", err)
	}

	if err := s.eventPub.PublishIdentityAuthenticated(ctx, owner.ID, cred.ID); err != nil {
		s.log.Warn("failed to publish identity authenticated event", "error", err)
	}

	s.log.Info("identity authenticated",
		"identity_id", owner.ID,
		"credential_id", base64.RawURLEncoding.EncodeToString(cred.ID))
	return AuthenticationResult{Session: session, Identity: owner}, nil
}
