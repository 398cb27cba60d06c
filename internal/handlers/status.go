package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Status returns the static payload served on GET requests, used by the
// triggering automation as a reachability probe.
func Status(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"service":   serviceName,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}
