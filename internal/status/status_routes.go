package status

import (
	"go-leavedesk/internal/middleware"
	"go-leavedesk/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
) {
	statuses := r.Group("/statuses")
	statuses.Use(middleware.AuthMiddleware())
	{
		statuses.GET("", middleware.RateLimitByUser(3, 10), middleware.RBACAuthorize(rbacService, "leave", "read"), handler.List)
	}
}
