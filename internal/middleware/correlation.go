package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/auditgate/auditgate/internal/audit"
)

const HeaderCorrelationID = "X-Correlation-ID"

// Correlation binds the audit context to the request lifecycle: it reads
// or generates the correlation id, echoes it on the response, and stashes
// the request metadata for the audit core. The derived context dies with
// the request, so nothing leaks into the next one.
func Correlation() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader(HeaderCorrelationID)
		if correlationID == "" {
			correlationID = uuid.New().String()
		}
		c.Header(HeaderCorrelationID, correlationID)

		ctx := audit.WithCorrelationID(c.Request.Context(), correlationID)
		ctx = audit.WithRequestMeta(ctx, &audit.RequestMeta{
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Method:    c.Request.Method,
			Path:      c.Request.URL.Path,
		})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
