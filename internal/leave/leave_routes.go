package leave

import (
	"go-leavedesk/internal/middleware"
	"go-leavedesk/internal/rbac"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
	rdb *redis.Client,
	logger *zap.Logger,
) {
	leaves := r.Group("/leaves")
	leaves.Use(middleware.AuthMiddleware())
	leaves.Use(middleware.ContextLogger(logger))
	if rdb != nil {
		leaves.Use(middleware.Idempotency(rdb))
	}
	{
		leaves.GET("", middleware.RateLimitByUser(3, 10), middleware.RBACAuthorize(rbacService, "leave", "read"), handler.GetAll)
		leaves.GET("/:id", middleware.RateLimitByUser(3, 10), middleware.RBACAuthorize(rbacService, "leave", "read"), handler.GetById)
		leaves.POST("", middleware.RateLimitByUser(0.1, 1), middleware.RBACAuthorize(rbacService, "leave", "create"), handler.Apply)
		leaves.POST("/:id/cancel", middleware.RateLimitByUser(0.5, 2), middleware.RBACAuthorize(rbacService, "leave", "create"), handler.Cancel)
		leaves.POST("/:id/confirm", middleware.RateLimitByUser(0.5, 2), middleware.RBACAuthorize(rbacService, "leave", "approve"), handler.Confirm)
		leaves.POST("/:id/admin-cancel", middleware.RateLimitByUser(0.5, 2), middleware.RBACAuthorize(rbacService, "leave", "approve"), handler.AdminCancel)
		leaves.POST("/:id/reverse", middleware.RateLimitByUser(0.5, 2), middleware.RBACAuthorize(rbacService, "leave", "approve"), handler.Reverse)
	}
}
