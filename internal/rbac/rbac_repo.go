package rbac

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RolePermission struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Role      string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_role_permissions_rule"`
	Resource  string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_role_permissions_rule"`
	Action    string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_role_permissions_rule"`
	CreatedAt time.Time
}

func (RolePermission) TableName() string {
	return "role_permissions"
}

//go:generate mockgen -source=rbac_repo.go -destination=mock/rbac_repo_mock.go -package=mock
type Repository interface {
	GetUserRole(ctx context.Context, userID string) (string, error)
	GetRolePermissions(ctx context.Context) ([]RolePermission, error)
	SeedPermissions(ctx context.Context, rules []RolePermission) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetUserRole(ctx context.Context, userID string) (string, error) {
	var role string
	err := r.db.WithContext(ctx).
		Table("users").
		Where("id = ?", userID).
		Where("deleted_at IS NULL").
		Pluck("role", &role).Error
	return role, err
}

func (r *repository) GetRolePermissions(ctx context.Context) ([]RolePermission, error) {
	var perms []RolePermission
	err := r.db.WithContext(ctx).
		Order("role ASC, resource ASC, action ASC").
		Find(&perms).Error
	return perms, err
}

func (r *repository) SeedPermissions(ctx context.Context, rules []RolePermission) error {
	if len(rules) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "role"}, {Name: "resource"}, {Name: "action"}},
			DoNothing: true,
		}).
		Create(&rules).Error
}
