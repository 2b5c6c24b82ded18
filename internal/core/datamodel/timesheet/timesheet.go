package timesheet

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Timesheet struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey"`
	CompanyID   uuid.UUID      `gorm:"column:company_id;type:uuid;not null;uniqueIndex:idx_timesheets_owner_period,where:deleted_at IS NULL"`
	UserID      uuid.UUID      `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_timesheets_owner_period,where:deleted_at IS NULL"`
	PeriodStart time.Time      `gorm:"column:period_start;type:date;not null;uniqueIndex:idx_timesheets_owner_period,where:deleted_at IS NULL"`
	PeriodEnd   time.Time      `gorm:"column:period_end;type:date;not null"`
	Notes       string         `gorm:"column:notes"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Timesheet) TableName() string { return "timesheets" }

type TimesheetEntry struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey"`
	CompanyID       uuid.UUID      `gorm:"column:company_id;type:uuid;not null;index"`
	TimesheetID     uuid.UUID      `gorm:"column:timesheet_id;type:uuid;not null;index"`
	UserID          uuid.UUID      `gorm:"column:user_id;type:uuid;not null;index"`
	ActionCodeID    uuid.UUID      `gorm:"column:action_code_id;type:uuid;not null"`
	WorkDate        time.Time      `gorm:"column:work_date;type:date;not null"`
	Minutes         int            `gorm:"column:minutes;not null"`
	Description     string         `gorm:"column:description"`
	Status          string         `gorm:"column:status;not null;index"`
	SubmittedAt     *time.Time     `gorm:"column:submitted_at"`
	ApprovedBy      *uuid.UUID     `gorm:"column:approved_by;type:uuid"`
	ApprovedAt      *time.Time     `gorm:"column:approved_at"`
	RejectedBy      *uuid.UUID     `gorm:"column:rejected_by;type:uuid"`
	RejectedAt      *time.Time     `gorm:"column:rejected_at"`
	RejectionReason *string        `gorm:"column:rejection_reason"`
	InvoicedAt      *time.Time     `gorm:"column:invoiced_at"`
	Version         int64          `gorm:"column:version;not null"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt       gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (TimesheetEntry) TableName() string { return "timesheet_entries" }
