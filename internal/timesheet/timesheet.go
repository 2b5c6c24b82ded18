package timesheet

import (
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/gogotime/internal"
	"github.com/frahmantamala/gogotime/internal/core/common/datetime"
	timesheetDatamodel "github.com/frahmantamala/gogotime/internal/core/datamodel/timesheet"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusInvoiced  Status = "invoiced"
)

// transitions lists every allowed move. Nothing moves backwards and
// rejected and invoiced entries are final.
var transitions = map[Status][]Status{
	StatusDraft:     {StatusSubmitted},
	StatusSubmitted: {StatusApproved, StatusRejected},
	StatusApproved:  {StatusInvoiced},
}

func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

func (s Status) IsEditable() bool {
	return s == StatusDraft
}

func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusApproved, StatusRejected, StatusInvoiced:
		return true
	}
	return false
}

var (
	ErrTimesheetNotFound  = internal.NewNotFoundError("timesheet not found", internal.ErrCodeTimesheetNotFound)
	ErrEntryNotFound      = internal.NewNotFoundError("timesheet entry not found", internal.ErrCodeEntryNotFound)
	ErrUserNotFound       = internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
	ErrDuplicateTimesheet = internal.NewConflictError("a timesheet already starts on this date", internal.ErrCodeDuplicateTimesheet)
	ErrNotEditable        = internal.NewInvalidStateError("only draft entries can be changed", internal.ErrCodeNotEditable)
	ErrTimeLoggingBlocked = internal.NewValidationFieldError("action_code_id", "action code does not accept time entries", internal.ErrCodeTimeLoggingBlocked)
)

func invalidTransition(from, to Status) *internal.AppError {
	return internal.NewInvalidStateError("cannot move entry from "+string(from)+" to "+string(to), internal.ErrCodeInvalidTransition)
}

type Timesheet struct {
	ID           uuid.UUID `json:"id"`
	CompanyID    uuid.UUID `json:"company_id"`
	UserID       uuid.UUID `json:"user_id"`
	PeriodStart  string    `json:"period_start"`
	PeriodEnd    string    `json:"period_end"`
	Notes        string    `json:"notes"`
	TotalMinutes int       `json:"total_minutes"`
	Entries      []*Entry  `json:"entries,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Entry struct {
	ID              uuid.UUID  `json:"id"`
	CompanyID       uuid.UUID  `json:"company_id"`
	TimesheetID     uuid.UUID  `json:"timesheet_id"`
	UserID          uuid.UUID  `json:"user_id"`
	ActionCodeID    uuid.UUID  `json:"action_code_id"`
	WorkDate        string     `json:"work_date"`
	Minutes         int        `json:"minutes"`
	Description     string     `json:"description"`
	Status          Status     `json:"status"`
	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`
	ApprovedBy      *uuid.UUID `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectedBy      *uuid.UUID `json:"rejected_by,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	InvoicedAt      *time.Time `json:"invoiced_at,omitempty"`
	Version         int64      `json:"version"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func FromDataModel(t *timesheetDatamodel.Timesheet) *Timesheet {
	return &Timesheet{
		ID:          t.ID,
		CompanyID:   t.CompanyID,
		UserID:      t.UserID,
		PeriodStart: datetime.FormatDate(t.PeriodStart),
		PeriodEnd:   datetime.FormatDate(t.PeriodEnd),
		Notes:       t.Notes,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func EntryFromDataModel(e *timesheetDatamodel.TimesheetEntry) *Entry {
	return &Entry{
		ID:              e.ID,
		CompanyID:       e.CompanyID,
		TimesheetID:     e.TimesheetID,
		UserID:          e.UserID,
		ActionCodeID:    e.ActionCodeID,
		WorkDate:        datetime.FormatDate(e.WorkDate),
		Minutes:         e.Minutes,
		Description:     e.Description,
		Status:          Status(e.Status),
		SubmittedAt:     e.SubmittedAt,
		ApprovedBy:      e.ApprovedBy,
		ApprovedAt:      e.ApprovedAt,
		RejectedBy:      e.RejectedBy,
		RejectedAt:      e.RejectedAt,
		RejectionReason: e.RejectionReason,
		InvoicedAt:      e.InvoicedAt,
		Version:         e.Version,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

// withinPeriod reports whether day falls inside the timesheet period.
func withinPeriod(t *timesheetDatamodel.Timesheet, day time.Time) bool {
	return !day.Before(t.PeriodStart) && !day.After(t.PeriodEnd)
}
