package leave

import (
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/gogotime/internal"
	"github.com/frahmantamala/gogotime/internal/core/common/datetime"
	leaveDatamodel "github.com/frahmantamala/gogotime/internal/core/datamodel/leave"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

var (
	ErrLeaveRequestNotFound = internal.NewNotFoundError("leave request not found", internal.ErrCodeLeaveRequestNotFound)
	ErrUserNotFound         = internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
	ErrNotPending           = internal.NewInvalidStateError("leave request has already been decided", internal.ErrCodeInvalidTransition)
)

type LeaveRequest struct {
	ID             uuid.UUID  `json:"id"`
	CompanyID      uuid.UUID  `json:"company_id"`
	UserID         uuid.UUID  `json:"user_id"`
	LeaveType      string     `json:"leave_type"`
	StartDate      string     `json:"start_date"`
	EndDate        string     `json:"end_date"`
	Reason         string     `json:"reason"`
	Status         string     `json:"status"`
	DecisionReason *string    `json:"decision_reason,omitempty"`
	DecidedBy      *uuid.UUID `json:"decided_by,omitempty"`
	DecidedAt      *time.Time `json:"decided_at,omitempty"`
	Version        int64      `json:"version"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (l *LeaveRequest) IsPending() bool {
	return l.Status == StatusPending
}

func FromDataModel(l *leaveDatamodel.LeaveRequest) *LeaveRequest {
	return &LeaveRequest{
		ID:             l.ID,
		CompanyID:      l.CompanyID,
		UserID:         l.UserID,
		LeaveType:      l.LeaveType,
		StartDate:      datetime.FormatDate(l.StartDate),
		EndDate:        datetime.FormatDate(l.EndDate),
		Reason:         l.Reason,
		Status:         l.Status,
		DecisionReason: l.DecisionReason,
		DecidedBy:      l.DecidedBy,
		DecidedAt:      l.DecidedAt,
		Version:        l.Version,
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
	}
}
