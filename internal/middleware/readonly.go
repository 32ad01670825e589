package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/auditgate/auditgate/internal/pkg/apperrors"
)

// ReadOnly guards a route group whose resources are never written through
// the API. Registered explicitly on the write verbs of the audit routes;
// audit records are only created by the interceptor and the facade.
func ReadOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		default:
			c.Error(apperrors.New(apperrors.ErrMethodNotAllowed, "audit records are read-only", nil))
			c.Abort()
			return
		}
	}
}
