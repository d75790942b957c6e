package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"skillgap-backend/internal/identity"
	"skillgap-backend/internal/shared/server/respond"
	"skillgap-backend/internal/shared/telemetry"
)

const (
	userIDKey    = "userId"
	userEmailKey = "userEmail"
	userNameKey  = "userName"
)

// Auth validates bearer tokens with the identity verifier and stores
// the resolved identity in context. Every failure is a 401; no
// downstream work happens for unauthenticated requests.
func Auth(verifier identity.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing or invalid authorization header", nil)
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if token == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing or invalid authorization header", nil)
			return
		}

		user, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			telemetry.Warn("auth.verify.failed", map[string]any{
				"request_id": RequestIDFromContext(c),
				"err":        err.Error(),
			})
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Invalid or expired authentication token", nil)
			return
		}

		c.Set(userIDKey, user.UID)
		if user.Email != "" {
			c.Set(userEmailKey, user.Email)
		}
		if user.Name != "" {
			c.Set(userNameKey, user.Name)
		}
		c.Next()
	}
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}

// UserEmailFromContext fetches the user email set by the auth middleware.
func UserEmailFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userEmailKey)
	if email, ok := val.(string); ok {
		return email
	}
	return ""
}

// UserNameFromContext fetches the user name set by the auth middleware.
func UserNameFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userNameKey)
	if name, ok := val.(string); ok {
		return name
	}
	return ""
}
