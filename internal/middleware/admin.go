package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/modulbox/leadform-backend/internal/common"
)

// RequireAdminKey checks the X-API-Key header against the configured admin key.
// An empty configured key disables the admin routes entirely.
func RequireAdminKey(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			common.ErrorResponse(c, http.StatusForbidden, "Admin API is disabled", common.ErrForbidden)
			c.Abort()
			return
		}

		key := c.GetHeader("X-API-Key")
		if key == "" {
			common.ErrorResponse(c, http.StatusUnauthorized, "API key required", common.ErrUnauthorized)
			c.Abort()
			return
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			common.ErrorResponse(c, http.StatusUnauthorized, "Invalid API key", common.ErrUnauthorized)
			c.Abort()
			return
		}
		c.Next()
	}
}
