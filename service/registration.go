package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Karthikshettyhub/passwordless-auth/core"
	"github.com/Karthikshettyhub/passwordless-auth/logger"
	"github.com/Karthikshettyhub/passwordless-auth/ports"
)

// RegistrationOptions is the client-facing outcome of starting a
// registration ceremony.
type RegistrationOptions struct {
	IdentityID uuid.UUID
	Options    json.RawMessage
}

// Registration orchestrates credential registration ceremonies.
type Registration struct {
	identities  ports.IdentityStore
	credentials ports.CredentialStore
	challenges  ports.ChallengeStore
	verifier    ports.CeremonyVerifier
	sessions    ports.SessionIssuer
	eventPub    ports.EventPublisher
	log         *logger.Logger
}

// NewRegistration creates a registration orchestrator.
func NewRegistration(
	identities ports.IdentityStore,
	credentials ports.CredentialStore,
	challenges ports.ChallengeStore,
	verifier ports.CeremonyVerifier,
	sessions ports.SessionIssuer,
	eventPub ports.EventPublisher,
	log *logger.Logger,
) *Registration {
	return &Registration{
		identities:  identities,
		credentials: credentials,
		challenges:  challenges,
		verifier:    verifier,
		sessions:    sessions,
		eventPub:    eventPub,
		log:         log,
	}
}

// Begin resolves or creates the identity for email and prepares ceremony
// options carrying a fresh bound challenge. Credentials the identity
// already registered are excluded so an authenticator is not enrolled twice.
func (s *Registration) Begin(ctx context.Context, email, username string) (RegistrationOptions, error) {
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)
	if email == "" || username == "" {
		return RegistrationOptions{}, fmt.Errorf("%w: email and username are required", core.ErrMissingInput)
	}

	identity, err := s.identities.FindOrCreate(ctx, email, username)
	if err != nil {
		return RegistrationOptions{}, fmt.Errorf("resolve identity: %w", err)
	}

	existing, err := s.credentials.ListByOwner(ctx, identity.ID)
	if err != nil {
		return RegistrationOptions{}, fmt.Errorf("list credentials: %w", err)
	}

	challenge, err := s.challenges.Issue(ctx, core.ChallengeRegistration, &identity.ID)
	if err != nil {
		return RegistrationOptions{}, fmt.Errorf("issue challenge: %w", err)
	}

	options, err := s.verifier.PrepareRegistration(ctx, identity, existing, challenge.Value)
	if err != nil {
		return RegistrationOptions{}, fmt.Errorf("prepare registration: %w", err)
	}

	s.log.Info("registration ceremony started", "identity_id", identity.ID)
	return RegistrationOptions{IdentityID: identity.ID, Options: options}, nil
}

// Complete consumes the identity's outstanding registration challenge,
// verifies the attestation response and registers the new credential.
// The challenge stays consumed even when a later step fails.
func (s *Registration) Complete(ctx context.Context, identityID uuid.UUID, response []byte, deviceLabel string) (core.Session, error) {
	if len(response) == 0 {
		return core.Session{}, fmt.Errorf("%w: credential response is required", core.ErrMissingInput)
	}

	identity, err := s.identities.GetByID(ctx, identityID)
	if err != nil {
		return core.Session{}, err
	}

	challenge, err := s.challenges.ConsumeBound(ctx, core.ChallengeRegistration, identity.ID)
	if err != nil {
		return core.Session{}, err
	}

	result, err := s.verifier.VerifyRegistration(ctx, response, challenge.Value, identity)
	if err != nil {
		s.log.Info("registration verification rejected", "identity_id", identity.ID, "error", err)
		return core.Session{}, err
	}

	cred, err := s.credentials.Register(ctx, core.Credential{
		ID:              result.CredentialID,
		OwnerID:         identity.ID,
		PublicKey:       result.PublicKey,
		SignCount:       result.SignCount,
		AttestationType: result.AttestationType,
		DeviceLabel:     strings.TrimSpace(deviceLabel),
	})
	if err != nil {
		return core.Session{}, err
	}

	session, err := s.sessions.Issue(ctx, identity.ID)
	if err != nil {
		return core.Session{}, fmt.Errorf("issue session: %w", err)
	}

	if err := s.eventPub.PublishCredentialRegistered(ctx, identity.ID, cred.ID); err != nil {
		// The credential is already stored; a missed event must not fail
		// the ceremony.
		s.log.Warn("failed to publish credential registered event", "error", err)
	}

	s.log.Info("credential registered",
		"identity_id", identity.ID,
		"credential_id", base64.RawURLEncoding.EncodeToString(cred.ID))
	return session, nil
}
