package core

import "errors"

var (
	// ErrMissingInput is returned when a required request field is absent.
	ErrMissingInput = errors.New("missing required input")

	// ErrIdentityNotFound is returned when no identity matches the lookup.
	ErrIdentityNotFound = errors.New("identity not found")

	// ErrChallengeNotFound is returned when no live challenge matches the
	// ceremony being completed, including expired and already-consumed ones.
	ErrChallengeNotFound = errors.New("invalid or expired challenge")

	// ErrVerificationFailed is returned when the ceremony verifier rejects a response.
	ErrVerificationFailed = errors.New("ceremony verification failed")

	// ErrDuplicateCredential is returned when registering a credential ID that already exists.
	ErrDuplicateCredential = errors.New("credential already registered")

	// ErrCredentialNotFound is returned when no credential matches the asserted ID.
	ErrCredentialNotFound = errors.New("credential not found")

	// ErrPossibleCloneDetected is returned when a signature counter does not
	// advance past its stored value, indicating a cloned or replayed authenticator.
	ErrPossibleCloneDetected = errors.New("possible cloned authenticator detected")

	// ErrSessionNotFound is returned when a bearer token resolves to no live session.
	ErrSessionNotFound = errors.New("session not found")

	// ErrStoreUnavailable is returned when the persistent store cannot serve a request.
	ErrStoreUnavailable = errors.New("store unavailable")
)
