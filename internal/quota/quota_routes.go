package quota

import (
	"go-leavedesk/internal/middleware"
	"go-leavedesk/internal/rbac"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
	logger *zap.Logger,
) {
	quotas := r.Group("/quotas")
	quotas.Use(middleware.AuthMiddleware())
	quotas.Use(middleware.ContextLogger(logger))
	{
		quotas.POST("", middleware.RateLimitByUser(0.5, 2), middleware.RBACAuthorize(rbacService, "quota", "manage"), handler.Grant)
		quotas.GET("/:employeeID/:year", middleware.RateLimitByUser(3, 10), middleware.RBACAuthorize(rbacService, "quota", "read"), handler.Get)
	}
}
