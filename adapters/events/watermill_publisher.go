package events

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/Karthikshettyhub/passwordless-auth/ports"
)

const (
	TopicCredentialRegistered  = "auth.credential_registered"
	TopicIdentityAuthenticated = "auth.identity_authenticated"
)

// CredentialRegisteredEvent announces a newly registered credential.
type CredentialRegisteredEvent struct {
	IdentityID   string    `json:"identity_id"`
	CredentialID string    `json:"credential_id"`
	RegisteredAt time.Time `json:"registered_at"`
}

// IdentityAuthenticatedEvent announces a completed authentication ceremony.
type IdentityAuthenticatedEvent struct {
	IdentityID      string    `json:"identity_id"`
	CredentialID    string    `json:"credential_id"`
	AuthenticatedAt time.Time `json:"authenticated_at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

func (p *WatermillPublisher) PublishCredentialRegistered(ctx context.Context, identityID uuid.UUID, credentialID []byte) error {
	event := CredentialRegisteredEvent{
		IdentityID:   identityID.String(),
		CredentialID: base64.RawURLEncoding.EncodeToString(credentialID),
		RegisteredAt: time.Now().UTC(),
	}
	return p.publish(TopicCredentialRegistered, event)
}

func (p *WatermillPublisher) PublishIdentityAuthenticated(ctx context.Context, identityID uuid.UUID, credentialID []byte) error {
	event := IdentityAuthenticatedEvent{
		IdentityID:      identityID.String(),
		CredentialID:    base64.RawURLEncoding.EncodeToString(credentialID),
		AuthenticatedAt: time.Now().UTC(),
	}
	return p.publish(TopicIdentityAuthenticated, event)
}

func (p *WatermillPublisher) publish(topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
