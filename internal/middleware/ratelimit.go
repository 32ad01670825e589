package middleware

import (
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/auditgate/auditgate/internal/config"
	"github.com/auditgate/auditgate/internal/pkg/apperrors"
)

// RateLimit applies a per-actor token bucket. Must run after Auth so the
// bucket key is the authenticated user, not the client address.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	var mu sync.Mutex
	limiters := make(map[uint]*rate.Limiter)

	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.Next()
			return
		}

		actor := ActorFrom(c)
		if actor == nil {
			c.Next()
			return
		}

		mu.Lock()
		limiter, ok := limiters[actor.ID]
		if !ok {
			limiter = rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)
			limiters[actor.ID] = limiter
		}
		mu.Unlock()

		if !limiter.Allow() {
			c.Error(apperrors.New(apperrors.ErrRateLimited, "rate limit exceeded", nil))
			c.Abort()
			return
		}

		c.Next()
	}
}
