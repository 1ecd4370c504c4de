package quota

import (
	"time"

	"github.com/google/uuid"
)

const DefaultTotalDays = 12

// AnnualLeaveQuota is the per-employee, per-year ledger row. remaining is
// always derived from total - used, never stored.
type AnnualLeaveQuota struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_quotas_employee_year"`
	Year       int       `gorm:"not null;uniqueIndex:idx_quotas_employee_year"`
	TotalDays  int       `gorm:"not null;default:12"`
	UsedDays   int       `gorm:"not null;default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (AnnualLeaveQuota) TableName() string {
	return "annual_leave_quotas"
}

func (q AnnualLeaveQuota) RemainingDays() int {
	return q.TotalDays - q.UsedDays
}

// Snapshot is the ledger view returned alongside transition results.
type Snapshot struct {
	TotalDays     int `json:"total_days"`
	UsedDays      int `json:"used_days"`
	RemainingDays int `json:"remaining_days"`
}

func SnapshotOf(q AnnualLeaveQuota) Snapshot {
	return Snapshot{
		TotalDays:     q.TotalDays,
		UsedDays:      q.UsedDays,
		RemainingDays: q.RemainingDays(),
	}
}
