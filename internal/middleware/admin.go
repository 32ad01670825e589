package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/auditgate/auditgate/internal/pkg/apperrors"
)

// StaffOnly rejects non-privileged actors. Must run after Auth.
func StaffOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFrom(c)
		if !actor.IsStaff() {
			c.Error(apperrors.NewForbidden("staff or admin role required"))
			c.Abort()
			return
		}
		c.Next()
	}
}
