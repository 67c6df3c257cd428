package http

import (
	"github.com/gin-gonic/gin"

	"github.com/Karthikshettyhub/passwordless-auth/ports"
	"github.com/Karthikshettyhub/passwordless-auth/service"
)

// SetupRouter sets up the Gin router
func SetupRouter(
	registration *service.Registration,
	authentication *service.Authentication,
	sessions ports.SessionIssuer,
	identities ports.IdentityStore,
	db Pinger,
) *gin.Engine {
	router := gin.Default()

	// Create handlers
	handlers := NewAuthHandlers(registration, authentication, identities, db)

	router.GET("/health", handlers.Health)

	// Ceremony routes
	webauthn := router.Group("/api/webauthn")
	{
		webauthn.POST("/register/options", handlers.RegisterOptions)
		webauthn.POST("/register/verify", handlers.RegisterVerify)
		webauthn.POST("/authenticate/options", handlers.AuthenticateOptions)
		webauthn.POST("/authenticate/verify", handlers.AuthenticateVerify)
	}

	// Protected API routes
	api := router.Group("/api")
	api.Use(SessionMiddleware(sessions))
	{
		api.GET("/me", handlers.Me)
	}

	return router
}
