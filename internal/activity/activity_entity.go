package activity

import (
	"time"

	"github.com/google/uuid"
)

// ActivityLog is the durable audit trail fed by lifecycle events. EventID
// is unique so the consumer can replay a partition without duplicating rows.
type ActivityLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EventID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Module     string    `gorm:"type:varchar(50);not null;index"`
	EventType  string    `gorm:"type:varchar(50);not null"`
	RecordID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ActorID    uuid.UUID `gorm:"type:uuid;not null"`
	OccurredAt time.Time `gorm:"not null"`
	CreatedAt  time.Time
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}
