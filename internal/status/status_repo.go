package status

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=status_repo.go -destination=mock/status_repo_mock.go -package=mock
type Repository interface {
	FindAll(ctx context.Context) ([]LeaveStatus, error)
	FindByName(ctx context.Context, name string) (*LeaveStatus, error)
	Seed(ctx context.Context, names []string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindAll(ctx context.Context) ([]LeaveStatus, error) {
	var statuses []LeaveStatus
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&statuses).Error
	return statuses, err
}

func (r *repository) FindByName(ctx context.Context, name string) (*LeaveStatus, error) {
	var s LeaveStatus
	err := r.db.WithContext(ctx).
		First(&s, "name = ?", name).Error
	return &s, err
}

func (r *repository) Seed(ctx context.Context, names []string) error {
	rows := make([]LeaveStatus, 0, len(names))
	for _, name := range names {
		rows = append(rows, LeaveStatus{Name: name})
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).
		Create(&rows).Error
}
