package leave

import "go-leavedesk/internal/quota"

type ApplyLeaveRequest struct {
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
	Reason    string `json:"reason"`
}

type DecisionRequest struct {
	Notes string `json:"notes"`
}

type LeaveResponse struct {
	ID           string  `json:"id"`
	EmployeeID   string  `json:"employee_id"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date"`
	Days         int     `json:"days"`
	Reason       string  `json:"reason"`
	Status       string  `json:"status"`
	ApprovedBy   *string `json:"approved_by,omitempty"`
	ApprovedAt   *string `json:"approved_at,omitempty"`
	ManagerNotes *string `json:"manager_notes,omitempty"`
}

// TransitionResponse is returned by operations that touch the ledger, so
// callers see the balance they just changed.
type TransitionResponse struct {
	Leave LeaveResponse  `json:"leave"`
	Quota quota.Snapshot `json:"quota"`
}
