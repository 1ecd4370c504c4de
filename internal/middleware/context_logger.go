package middleware

import (
	"go-leavedesk/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ContextLogger attaches a request-scoped logger carrying the request id and
// the authenticated user id, and propagates both into the standard context so
// services below the handler layer can pick them up. It expects RequestID and
// AuthMiddleware to have run first.
func ContextLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := logger
		if l == nil {
			l = zap.L()
		}

		rid := c.GetString("request_id")
		uid := c.GetString("user_id")

		reqLogger := l.With(
			zap.String("request_id", rid),
			zap.String("user_id", uid),
		)

		ctx := contextutil.WithUserID(c.Request.Context(), uid)
		ctx = contextutil.WithLogger(ctx, reqLogger)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
