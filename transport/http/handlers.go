package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Karthikshettyhub/passwordless-auth/core"
	"github.com/Karthikshettyhub/passwordless-auth/ports"
	"github.com/Karthikshettyhub/passwordless-auth/service"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// AuthHandlers contains HTTP handlers for the ceremony endpoints
type AuthHandlers struct {
	registration   *service.Registration
	authentication *service.Authentication
	identities     ports.IdentityStore
	db             Pinger
}

// NewAuthHandlers creates new auth handlers. db may be nil when the
// service runs on in-memory stores.
func NewAuthHandlers(registration *service.Registration, authentication *service.Authentication, identities ports.IdentityStore, db Pinger) *AuthHandlers {
	return &AuthHandlers{
		registration:   registration,
		authentication: authentication,
		identities:     identities,
		db:             db,
	}
}

// RegisterOptions starts a registration ceremony
func (h *AuthHandlers) RegisterOptions(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Username string `json:"username" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	options, err := h.registration.Begin(c.Request.Context(), req.Email, req.Username)
	if err != nil {
		writeCeremonyError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"options":    options.Options,
		"identityId": options.IdentityID.String(),
	})
}

// RegisterVerify completes a registration ceremony
func (h *AuthHandlers) RegisterVerify(c *gin.Context) {
	var req struct {
		IdentityID string          `json:"identityId" binding:"required"`
		Credential json.RawMessage `json:"credential" binding:"required"`
		DeviceName string          `json:"deviceName"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	identityID, err := uuid.Parse(req.IdentityID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	session, err := h.registration.Complete(c.Request.Context(), identityID, req.Credential, req.DeviceName)
	if err != nil {
		writeCeremonyError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessionToken": session.Token,
		"expiresAt":    session.ExpiresAt,
	})
}

// AuthenticateOptions starts an authentication ceremony
func (h *AuthHandlers) AuthenticateOptions(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}

	// An empty body requests a discoverable ceremony.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	options, err := h.authentication.Begin(c.Request.Context(), req.Email)
	if err != nil {
		writeCeremonyError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"options": options})
}

// AuthenticateVerify completes an authentication ceremony
func (h *AuthHandlers) AuthenticateVerify(c *gin.Context) {
	var req struct {
		Credential json.RawMessage `json:"credential" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	result, err := h.authentication.Complete(c.Request.Context(), req.Credential)
	if err != nil {
		writeCeremonyError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessionToken": result.Session.Token,
		"expiresAt":    result.Session.ExpiresAt,
		"user": gin.H{
			"id":          result.Identity.ID.String(),
			"email":       result.Identity.Email,
			"displayName": result.Identity.DisplayName,
		},
	})
}

// Me returns the identity behind the presented session token
func (h *AuthHandlers) Me(c *gin.Context) {
	identityID, exists := c.Get(contextIdentityID)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Identity not found in context"})
		return
	}

	identity, err := h.identities.GetByID(c.Request.Context(), identityID.(uuid.UUID))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":          identity.ID.String(),
		"email":       identity.Email,
		"displayName": identity.DisplayName,
	})
}

// Health reports service and store liveness
func (h *AuthHandlers) Health(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	if err := h.db.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "down"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "up"})
}

// writeCeremonyError classifies orchestrator failures. Credential lookups,
// signature rejections and clone detection all surface the same message so
// responses never reveal which credentials exist.
func writeCeremonyError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrMissingInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
	case errors.Is(err, core.ErrIdentityNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
	case errors.Is(err, core.ErrChallengeNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired challenge"})
	case errors.Is(err, core.ErrDuplicateCredential):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Credential already registered"})
	case errors.Is(err, core.ErrCredentialNotFound),
		errors.Is(err, core.ErrVerificationFailed),
		errors.Is(err, core.ErrPossibleCloneDetected):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Authentication failed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}
