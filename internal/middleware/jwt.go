package middleware

import (
	"net/http"
	"strings"

	"bingo-service/internal/dto"
	"bingo-service/pkg/jwt"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserID      = "user_id"
	ContextDisplayName = "display_name"
)

// JWTAuth authenticates the request with a bearer token, or a token query
// parameter for websocket upgrades. With an empty secret the service sits
// behind a gateway and trusts the X-User-ID header instead.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			userID := c.GetHeader("X-User-ID")
			if userID == "" {
				dto.JsonError(c, http.StatusUnauthorized, "X-User-ID header is required")
				c.Abort()
				return
			}
			c.Set(ContextUserID, userID)
			c.Set(ContextDisplayName, c.GetHeader("X-User-Name"))
			c.Next()
			return
		}

		token, ok := bearerToken(c)
		if !ok {
			dto.JsonError(c, http.StatusUnauthorized, "Authorization header is required")
			c.Abort()
			return
		}

		claims, err := jwt.ValidateToken(token, secret)
		if err != nil {
			dto.JsonError(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextDisplayName, claims.DisplayName)

		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		token := c.Query("token")
		return token, token != ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// DisplayName returns the caller's name, falling back to the user id.
func DisplayName(c *gin.Context) string {
	if name := c.GetString(ContextDisplayName); name != "" {
		return name
	}
	return c.GetString(ContextUserID)
}
