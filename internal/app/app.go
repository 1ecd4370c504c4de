package app

import (
	"context"
	"os"

	"go-leavedesk/internal/activity"
	"go-leavedesk/internal/identity"
	"go-leavedesk/internal/leave"
	"go-leavedesk/internal/quota"
	"go-leavedesk/internal/rbac"
	"go-leavedesk/internal/shared/connection"
	"go-leavedesk/internal/status"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const outboxTableDDL = `
CREATE TABLE IF NOT EXISTS outbox_events (
	id UUID PRIMARY KEY,
	request_id TEXT,
	aggregate_type VARCHAR(50) NOT NULL,
	aggregate_id UUID NOT NULL,
	event_type VARCHAR(50) NOT NULL,
	topic TEXT NOT NULL,
	payload JSONB NOT NULL,
	status VARCHAR(20) NOT NULL DEFAULT 'pending',
	retry_count INT NOT NULL DEFAULT 0,
	last_error TEXT,
	next_retry_at TIMESTAMPTZ,
	sent_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)
`

func migrate(gormDB *gorm.DB) error {
	if err := gormDB.AutoMigrate(
		&identity.User{},
		&status.LeaveStatus{},
		&rbac.RolePermission{},
		&quota.AnnualLeaveQuota{},
		&leave.Leave{},
		&activity.ActivityLog{},
	); err != nil {
		return err
	}
	return gormDB.Exec(outboxTableDDL).Error
}

func BuildApp(router *gin.Engine) error {
	gormDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return err
	}
	zap.L().Info("database connection established")

	if err := migrate(gormDB); err != nil {
		return err
	}

	db, err := gormDB.DB()
	if err != nil {
		return err
	}

	redisClient, err := connection.ConnectRedisWithRetry(os.Getenv("REDIS_ADDR"), 5)
	if err != nil {
		return err
	}
	zap.L().Info("redis connection established")

	// Reference data is validated before any route is served so a broken
	// seed fails the deploy, not the first request.
	statusRepo := status.NewRepository(gormDB)
	vocabulary := status.NewVocabulary(statusRepo)
	if err := vocabulary.Load(context.Background()); err != nil {
		return err
	}

	return registerModules(router, db, gormDB, redisClient, vocabulary)
}
