package timesheet

import "github.com/google/uuid"

type CreateTimesheetDTO struct {
	UserID      *uuid.UUID `json:"user_id,omitempty"`
	PeriodStart string     `json:"period_start" validate:"required,datetime=2006-01-02"`
	PeriodEnd   string     `json:"period_end" validate:"required,datetime=2006-01-02"`
	Notes       string     `json:"notes" validate:"max=2000"`
}

// CreateEntryDTO logs time on a timesheet. The entry belongs to the
// timesheet's owner.
type CreateEntryDTO struct {
	TimesheetID  uuid.UUID `json:"timesheet_id" validate:"required"`
	ActionCodeID uuid.UUID `json:"action_code_id" validate:"required"`
	WorkDate     string    `json:"work_date" validate:"required,datetime=2006-01-02"`
	Minutes      int       `json:"minutes" validate:"required,gt=0,max=1440"`
	Description  string    `json:"description" validate:"max=2000"`
}

type UpdateEntryDTO struct {
	ActionCodeID *uuid.UUID `json:"action_code_id,omitempty"`
	WorkDate     *string    `json:"work_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Minutes      *int       `json:"minutes,omitempty" validate:"omitempty,gt=0,max=1440"`
	Description  *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	Version      int64      `json:"version" validate:"required,gt=0"`
}

// TransitionDTO optionally pins the version the client acted on.
type TransitionDTO struct {
	Version int64 `json:"version,omitempty" validate:"gte=0"`
}

type RejectDTO struct {
	Reason  string `json:"reason" validate:"required,max=1000"`
	Version int64  `json:"version,omitempty" validate:"gte=0"`
}

// EntryFilter narrows entry listings. AllUsers widens the listing to the
// whole company.
type EntryFilter struct {
	UserID      *uuid.UUID
	TimesheetID *uuid.UUID
	Status      Status
	AllUsers    bool
}

type TimesheetsResponse struct {
	Timesheets []*Timesheet `json:"timesheets"`
}

type EntriesResponse struct {
	Entries []*Entry `json:"entries"`
}
