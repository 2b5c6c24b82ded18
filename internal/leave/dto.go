package leave

import "github.com/google/uuid"

// CreateLeaveRequestDTO files leave for the caller, or for UserID when set.
type CreateLeaveRequestDTO struct {
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	LeaveType string     `json:"leave_type" validate:"required,oneof=annual sick unpaid other"`
	StartDate string     `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string     `json:"end_date" validate:"required,datetime=2006-01-02"`
	Reason    string     `json:"reason" validate:"max=1000"`
}

// UpdateLeaveRequestDTO carries the version the client last read.
type UpdateLeaveRequestDTO struct {
	LeaveType *string `json:"leave_type,omitempty" validate:"omitempty,oneof=annual sick unpaid other"`
	StartDate *string `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate   *string `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Reason    *string `json:"reason,omitempty" validate:"omitempty,max=1000"`
	Version   int64   `json:"version" validate:"required,gt=0"`
}

type DecisionDTO struct {
	Reason string `json:"reason" validate:"max=1000"`
}

type LeaveRequestsResponse struct {
	LeaveRequests []*LeaveRequest `json:"leave_requests"`
}
