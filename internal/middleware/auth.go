package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/auditgate/auditgate/internal/audit"
	"github.com/auditgate/auditgate/internal/model"
	"github.com/auditgate/auditgate/internal/service"
)

const (
	HeaderAuthorization = "Authorization"
	ContextActorKey     = "actor"
)

// Auth resolves the bearer token to an actor and plants it both in the
// gin keys and the request context, where the audit core reads it.
func Auth(authSvc *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(HeaderAuthorization)
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			c.Abort()
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		user, err := authSvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(ContextActorKey, user)
		c.Request = c.Request.WithContext(audit.WithActor(c.Request.Context(), user))
		c.Next()
	}
}

// ActorFrom fetches the authenticated actor placed by Auth.
func ActorFrom(c *gin.Context) *model.User {
	if val, exists := c.Get(ContextActorKey); exists {
		if user, ok := val.(*model.User); ok {
			return user
		}
	}
	return nil
}
