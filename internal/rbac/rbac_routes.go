package rbac

import "github.com/gin-gonic/gin"

func RegisterRoutes(router *gin.Engine, handler *Handler) {
	admin := router.Group("/rbac")
	{
		admin.POST("/reload", handler.Reload)
		admin.POST("/check", handler.Check)
	}
}
