package verifier

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/Karthikshettyhub/passwordless-auth/core"
	"github.com/Karthikshettyhub/passwordless-auth/ports"
)

// Config holds the relying-party settings for ceremony verification.
type Config struct {
	RPID      string
	RPName    string
	RPOrigins []string
}

// WebAuthn verifies registration and authentication ceremonies with the
// go-webauthn library. Challenges are issued and consumed by the challenge
// store, so the library session data is rebuilt at verification time from
// the consumed challenge rather than persisted between the two phases.
type WebAuthn struct {
	handler *webauthn.WebAuthn
}

// NewWebAuthn builds a verifier for the given relying party.
func NewWebAuthn(cfg Config) (*WebAuthn, error) {
	handler, err := webauthn.New(&webauthn.Config{
		RPDisplayName: cfg.RPName,
		RPID:          cfg.RPID,
		RPOrigins:     cfg.RPOrigins,
		AuthenticatorSelection: protocol.AuthenticatorSelection{
			ResidentKey:      protocol.ResidentKeyRequirementPreferred,
			UserVerification: protocol.VerificationPreferred,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("configure webauthn: %w", err)
	}
	return &WebAuthn{handler: handler}, nil
}

func (v *WebAuthn) PrepareRegistration(ctx context.Context, identity core.Identity, exclude []core.Credential, challenge string) (json.RawMessage, error) {
	user := newCeremonyUser(identity, exclude)

	var opts []webauthn.RegistrationOption
	if len(user.credentials) > 0 {
		opts = append(opts, webauthn.WithExclusions(webauthn.Credentials(user.credentials).CredentialDescriptors()))
	}

	creation, _, err := v.handler.BeginRegistration(user, opts...)
	if err != nil {
		return nil, fmt.Errorf("begin registration: %w", err)
	}
	if err := overrideChallenge(&creation.Response.Challenge, challenge); err != nil {
		return nil, err
	}
	return json.Marshal(creation)
}

func (v *WebAuthn) VerifyRegistration(ctx context.Context, response []byte, challenge string, identity core.Identity) (ports.RegistrationResult, error) {
	parsed, err := protocol.ParseCredentialCreationResponseBytes(response)
	if err != nil {
		return ports.RegistrationResult{}, fmt.Errorf("%w: parse attestation response: %v", core.ErrVerificationFailed, err)
	}

	user := newCeremonyUser(identity, nil)
	credential, err := v.handler.CreateCredential(user, v.sessionData(challenge, user), parsed)
	if err != nil {
		return ports.RegistrationResult{}, fmt.Errorf("%w: %v", core.ErrVerificationFailed, err)
	}

	return ports.RegistrationResult{
		CredentialID:    credential.ID,
		PublicKey:       credential.PublicKey,
		SignCount:       credential.Authenticator.SignCount,
		AttestationType: credential.AttestationType,
	}, nil
}

func (v *WebAuthn) PrepareAuthentication(ctx context.Context, identity *core.Identity, allow []core.Credential, challenge string) (json.RawMessage, error) {
	var (
		assertion *protocol.CredentialAssertion
		err       error
	)
	if identity == nil {
		assertion, _, err = v.handler.BeginDiscoverableLogin()
	} else {
		assertion, _, err = v.handler.BeginLogin(newCeremonyUser(*identity, allow))
	}
	if err != nil {
		return nil, fmt.Errorf("begin authentication: %w", err)
	}
	if err := overrideChallenge(&assertion.Response.Challenge, challenge); err != nil {
		return nil, err
	}
	return json.Marshal(assertion)
}

func (v *WebAuthn) VerifyAuthentication(ctx context.Context, response []byte, challenge string, owner core.Identity, cred core.Credential) (ports.AuthenticationResult, error) {
	parsed, err := protocol.ParseCredentialRequestResponseBytes(response)
	if err != nil {
		return ports.AuthenticationResult{}, fmt.Errorf("%w: parse assertion response: %v", core.ErrVerificationFailed, err)
	}

	user := newCeremonyUser(owner, []core.Credential{cred})
	validated, err := v.handler.ValidateLogin(user, v.sessionData(challenge, user), parsed)
	if err != nil {
		return ports.AuthenticationResult{}, fmt.Errorf("%w: %v", core.ErrVerificationFailed, err)
	}

	return ports.AuthenticationResult{
		NewCount:     validated.Authenticator.SignCount,
		CloneWarning: validated.Authenticator.CloneWarning,
	}, nil
}

func (v *WebAuthn) DescribeAssertion(response []byte) (ports.AssertionSummary, error) {
	parsed, err := protocol.ParseCredentialRequestResponseBytes(response)
	if err != nil {
		return ports.AssertionSummary{}, fmt.Errorf("%w: parse assertion response: %v", core.ErrVerificationFailed, err)
	}
	return ports.AssertionSummary{
		CredentialID: parsed.RawID,
		Challenge:    parsed.Response.CollectedClientData.Challenge,
	}, nil
}

// sessionData reconstructs the library session for a consumed challenge.
// Expires stays zero: challenge lifetime is enforced by the store.
func (v *WebAuthn) sessionData(challenge string, user *ceremonyUser) webauthn.SessionData {
	return webauthn.SessionData{
		Challenge:        challenge,
		UserID:           user.WebAuthnID(),
		UserVerification: protocol.VerificationPreferred,
	}
}

func overrideChallenge(target *protocol.URLEncodedBase64, challenge string) error {
	raw, err := base64.RawURLEncoding.DecodeString(challenge)
	if err != nil {
		return fmt.Errorf("decode issued challenge: %w", err)
	}
	*target = raw
	return nil
}

type ceremonyUser struct {
	identity    core.Identity
	credentials []webauthn.Credential
}

func newCeremonyUser(identity core.Identity, creds []core.Credential) *ceremonyUser {
	user := &ceremonyUser{identity: identity}
	for _, c := range creds {
		user.credentials = append(user.credentials, webauthn.Credential{
			ID:              c.ID,
			PublicKey:       c.PublicKey,
			AttestationType: c.AttestationType,
			Authenticator: webauthn.Authenticator{
				SignCount: c.SignCount,
			},
		})
	}
	return user
}

func (u *ceremonyUser) WebAuthnID() []byte {
	return u.identity.UserHandle()
}

func (u *ceremonyUser) WebAuthnName() string {
	return u.identity.Email
}

func (u *ceremonyUser) WebAuthnDisplayName() string {
	if u.identity.DisplayName != "" {
		return u.identity.DisplayName
	}
	return u.identity.Email
}

func (u *ceremonyUser) WebAuthnIcon() string {
	return ""
}

func (u *ceremonyUser) WebAuthnCredentials() []webauthn.Credential {
	return u.credentials
}
