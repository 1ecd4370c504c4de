package status

import (
	"time"

	"github.com/google/uuid"
)

const (
	Pending   = "PENDING"
	Approved  = "APPROVED"
	Cancelled = "CANCELLED"
)

// Required lists the vocabulary entries the lifecycle cannot run without.
func Required() []string {
	return []string{Pending, Approved, Cancelled}
}

type LeaveStatus struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"type:varchar(20);not null;uniqueIndex"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (LeaveStatus) TableName() string {
	return "leave_statuses"
}
