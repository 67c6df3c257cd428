package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Karthikshettyhub/passwordless-auth/ports"
)

const contextIdentityID = "identityID"

// SessionMiddleware creates middleware that validates session tokens
func SessionMiddleware(sessions ports.SessionIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")

		// Check if the Authorization header is present and in correct format
		if len(auth) < 8 || auth[:7] != "Bearer " {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header"})
			return
		}

		session, err := sessions.Validate(c.Request.Context(), auth[7:])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
			return
		}

		c.Set(contextIdentityID, session.IdentityID)

		c.Next()
	}
}
