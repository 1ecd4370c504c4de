package activity

import (
	"context"

	"gorm.io/gorm"
)

//go:generate mockgen -source=activity_repo.go -destination=mock/activity_repo_mock.go -package=mock
type Repository interface {
	Create(ctx context.Context, log *ActivityLog) error
	FindByRecord(ctx context.Context, recordID string) ([]ActivityLog, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, log *ActivityLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *repository) FindByRecord(ctx context.Context, recordID string) ([]ActivityLog, error) {
	var logs []ActivityLog
	err := r.db.WithContext(ctx).
		Where("record_id = ?", recordID).
		Order("occurred_at ASC").
		Find(&logs).Error
	return logs, err
}
