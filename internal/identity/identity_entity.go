package identity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role tags carried in the JWT and mirrored on the users row. ADMIN, HR and
// MANAGER may decide any employee's leave; EMPLOYEE may only file and cancel
// their own pending requests.
const (
	RoleEmployee = "EMPLOYEE"
	RoleManager  = "MANAGER"
	RoleHR       = "HR"
	RoleAdmin    = "ADMIN"
)

func Elevated(role string) bool {
	switch role {
	case RoleAdmin, RoleHR, RoleManager:
		return true
	default:
		return false
	}
}

type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FullName  string         `gorm:"type:varchar(255);not null"`
	Email     string         `gorm:"type:text;not null;uniqueIndex"`
	Role      string         `gorm:"type:varchar(50);not null;default:'EMPLOYEE'"`
	IsActive  bool           `gorm:"default:true"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (User) TableName() string {
	return "users"
}
