package app

import (
	"context"
	"database/sql"

	"go-leavedesk/internal/identity"
	"go-leavedesk/internal/leave"
	"go-leavedesk/internal/messaging/kafka"
	"go-leavedesk/internal/quota"
	"go-leavedesk/internal/rbac"
	"go-leavedesk/internal/rbac/infra"
	"go-leavedesk/internal/status"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
	vocabulary status.Vocabulary,
) error {
	// --- Repositories ---
	rbacRepo := rbac.NewRepository(gormDB)
	identityRepo := identity.NewRepository(gormDB)
	quotaRepo := quota.NewRepository(gormDB)
	leaveRepo := leave.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer()
	if err != nil {
		return err
	}
	rbacService := rbac.NewService(rbacRepo, enforcer)
	if err := rbacRepo.SeedPermissions(context.Background(), rbac.DefaultPermissions()); err != nil {
		return err
	}
	if err := rbacService.LoadPolicy(context.Background()); err != nil {
		return err
	}

	// --- Services ---
	quotaService := quota.NewService(quotaRepo, identityRepo)
	leaveService := leave.NewServiceWithOutbox(db, leaveRepo, quotaRepo, identityRepo, vocabulary, outboxRepo)

	// --- Handlers ---
	statusHandler := status.NewHandler(vocabulary)
	quotaHandler := quota.NewHandler(quotaService)
	leaveHandler := leave.NewHandlerWithRedis(leaveService, rdb)
	rbacHandler := rbac.NewHandler(rbacService)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		status.RegisterRoutes(api, statusHandler, rbacService)
		quota.RegisterRoutes(api, quotaHandler, rbacService, zap.L())
		leave.RegisterRoutes(api, leaveHandler, rbacService, rdb, zap.L())
	}

	rbac.RegisterRoutes(router, rbacHandler)

	return nil
}
