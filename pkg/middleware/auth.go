package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// BearerAuthMiddleware validates a static bearer secret on inbound webhooks.
// Automations calling the webhook are expected to send
// "Authorization: Bearer <secret>".
func BearerAuthMiddleware(expectedSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "No authorization header"})
			c.Abort()
			return
		}

		parts := strings.Split(auth, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header"})
			c.Abort()
			return
		}

		if parts[1] != expectedSecret {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid webhook secret"})
			c.Abort()
			return
		}

		c.Next()
	}
}
