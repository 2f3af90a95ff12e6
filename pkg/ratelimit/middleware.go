package ratelimit

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/attendance-api/pkg/errors"
	"github.com/noah-isme/attendance-api/pkg/response"
)

// Middleware limits requests per client IP under the given scope. Limiter
// failures let the request through.
func Middleware(limiter Limiter, scope string, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}

		allowed, err := limiter.Allow(c.Request.Context(), scope+":"+ip)
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.String("scope", scope), zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			response.Error(c, appErrors.ErrRateLimited)
			return
		}
		c.Next()
	}
}
