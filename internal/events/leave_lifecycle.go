package events

import "time"

const LeaveLifecycleTopic = "hr.leave.lifecycle.v1"

const (
	LeaveApplied   = "leave_applied"
	LeaveConfirmed = "leave_confirmed"
	LeaveCancelled = "leave_cancelled"
	LeaveReversed  = "leave_reversed"
)

type LeaveLifecycleEvent struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id,omitempty"`
	LeaveID    string    `json:"leave_id"`
	EmployeeID string    `json:"employee_id"`
	ActorID    string    `json:"actor_id"`
	Module     string    `json:"module"`
	OccurredAt time.Time `json:"occurred_at"`
}
