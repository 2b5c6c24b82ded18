package leave

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LeaveRequest struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey"`
	CompanyID      uuid.UUID      `gorm:"column:company_id;type:uuid;not null;index"`
	UserID         uuid.UUID      `gorm:"column:user_id;type:uuid;not null;index"`
	LeaveType      string         `gorm:"column:leave_type;not null"`
	StartDate      time.Time      `gorm:"column:start_date;type:date;not null"`
	EndDate        time.Time      `gorm:"column:end_date;type:date;not null"`
	Reason         string         `gorm:"column:reason"`
	Status         string         `gorm:"column:status;not null"`
	DecisionReason *string        `gorm:"column:decision_reason"`
	DecidedBy      *uuid.UUID     `gorm:"column:decided_by;type:uuid"`
	DecidedAt      *time.Time     `gorm:"column:decided_at"`
	Version        int64          `gorm:"column:version;not null"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt      gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (LeaveRequest) TableName() string { return "leave_requests" }
