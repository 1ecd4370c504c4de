package leave

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Leave is a single leave request. Days is the inclusive day count fixed at
// creation; all later ledger accounting uses this value, never a recount of
// the date range.
type Leave struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index:idx_leaves_employee_dates"`

	StartDate time.Time `gorm:"type:date;not null;index:idx_leaves_employee_dates"`
	EndDate   time.Time `gorm:"type:date;not null;index:idx_leaves_employee_dates"`
	Days      int       `gorm:"not null;default:1"`
	Reason    string    `gorm:"type:text"`

	Status       string     `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	ApprovedBy   *uuid.UUID `gorm:"type:uuid"`
	ManagerNotes *string    `gorm:"type:text"`

	CreatedAt  time.Time
	UpdatedAt  time.Time
	ApprovedAt *time.Time
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

func (Leave) TableName() string {
	return "leaves"
}
