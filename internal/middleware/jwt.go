package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/attendance-api/pkg/errors"
	"github.com/noah-isme/attendance-api/pkg/response"
)

// ContextUserKey is the gin context key storing the authenticated user id.
const ContextUserKey = "currentUserID"

type tokenAuthenticator interface {
	Authenticate(token string) (int64, error)
}

// JWT protects routes by requiring a valid bearer access token.
func JWT(auth tokenAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing authorization header"))
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			return
		}

		userID, err := auth.Authenticate(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, err)
			return
		}

		c.Set(ContextUserKey, userID)
		c.Next()
	}
}

// UserID returns the id stored by JWT.
func UserID(c *gin.Context) (int64, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return 0, false
	}
	id, ok := value.(int64)
	return id, ok && id > 0
}
