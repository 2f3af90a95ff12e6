package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-api/internal/models"
	appErrors "github.com/noah-isme/attendance-api/pkg/errors"
	"github.com/noah-isme/attendance-api/pkg/response"
)

// ContextAdminKey holds the *models.User loaded by RequireAdmin.
const ContextAdminKey = "currentAdmin"

type adminChecker interface {
	RequireAdmin(ctx context.Context, userID int64) (*models.User, error)
}

// RequireAdmin lets the request through only when the authenticated user is
// an admin in storage. It must run after JWT.
func RequireAdmin(checker adminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, ""))
			return
		}

		user, err := checker.RequireAdmin(c.Request.Context(), userID)
		if err != nil {
			response.Error(c, err)
			return
		}

		c.Set(ContextAdminKey, user)
		c.Next()
	}
}
