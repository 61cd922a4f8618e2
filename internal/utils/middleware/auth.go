package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/worldboard/server/internal/module/auth"
	"github.com/worldboard/server/internal/shared/response"
	"github.com/worldboard/server/internal/utils/requestctx"
)

const (
	// AuthorizationHeader is the header key for authorization.
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens.
	BearerPrefix = "Bearer "
	// UserIDKey is the context key for the caller's user id.
	UserIDKey = "user_id"
	// UsernameKey is the context key for the caller's username.
	UsernameKey = "username"
)

// TokenValidator validates bearer tokens.
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// Auth returns a middleware that requires a valid bearer token and stores
// the verified caller id on the request.
func Auth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			response.Unauthorized(c, "authorization header required")
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			return
		}

		c.Set(UserIDKey, claims.UserID())
		c.Set(UsernameKey, claims.Username)
		c.Request = c.Request.WithContext(requestctx.WithUserID(c.Request.Context(), claims.UserID()))

		c.Next()
	}
}

func extractBearerToken(c *gin.Context) string {
	header := c.GetHeader(AuthorizationHeader)
	if !strings.HasPrefix(header, BearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
}

// GetUserID returns the caller's user id, or "" if unauthenticated.
func GetUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

// IsAuthenticated returns true if the request carries a verified caller.
func IsAuthenticated(c *gin.Context) bool {
	return GetUserID(c) != ""
}
