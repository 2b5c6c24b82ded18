package events

import (
	"github.com/google/uuid"
)

const (
	EventTypeTimesheetEntrySubmitted = "timesheet_entry.submitted"
	EventTypeTimesheetEntryApproved  = "timesheet_entry.approved"
	EventTypeTimesheetEntryRejected  = "timesheet_entry.rejected"
	EventTypeTimesheetEntryInvoiced  = "timesheet_entry.invoiced"

	EventTypeLeaveRequestApproved = "leave_request.approved"
	EventTypeLeaveRequestRejected = "leave_request.rejected"

	EventTypeUserAnonymized = "user.anonymized"
)

type TimesheetEntryStatusChangedEvent struct {
	BaseEvent
	EntryID    uuid.UUID `json:"entry_id"`
	CompanyID  uuid.UUID `json:"company_id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	ActorID    uuid.UUID `json:"actor_id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
}

// NewTimesheetEntryStatusChangedEvent derives the event type from the target status.
func NewTimesheetEntryStatusChangedEvent(entryID, companyID, ownerID, actorID uuid.UUID, from, to string) *TimesheetEntryStatusChangedEvent {
	return &TimesheetEntryStatusChangedEvent{
		BaseEvent: NewBaseEvent("timesheet_entry."+to, entryID.String(), map[string]interface{}{
			"entry_id":    entryID.String(),
			"company_id":  companyID.String(),
			"owner_id":    ownerID.String(),
			"actor_id":    actorID.String(),
			"from_status": from,
			"to_status":   to,
		}),
		EntryID:    entryID,
		CompanyID:  companyID,
		OwnerID:    ownerID,
		ActorID:    actorID,
		FromStatus: from,
		ToStatus:   to,
	}
}

type LeaveRequestDecidedEvent struct {
	BaseEvent
	LeaveRequestID uuid.UUID `json:"leave_request_id"`
	CompanyID      uuid.UUID `json:"company_id"`
	OwnerID        uuid.UUID `json:"owner_id"`
	DecidedBy      uuid.UUID `json:"decided_by"`
	Status         string    `json:"status"`
}

func NewLeaveRequestDecidedEvent(id, companyID, ownerID, decidedBy uuid.UUID, status string) *LeaveRequestDecidedEvent {
	return &LeaveRequestDecidedEvent{
		BaseEvent: NewBaseEvent("leave_request."+status, id.String(), map[string]interface{}{
			"leave_request_id": id.String(),
			"company_id":       companyID.String(),
			"owner_id":         ownerID.String(),
			"decided_by":       decidedBy.String(),
			"status":           status,
		}),
		LeaveRequestID: id,
		CompanyID:      companyID,
		OwnerID:        ownerID,
		DecidedBy:      decidedBy,
		Status:         status,
	}
}

type UserAnonymizedEvent struct {
	BaseEvent
	UserID    uuid.UUID `json:"user_id"`
	CompanyID uuid.UUID `json:"company_id"`
	ActorID   uuid.UUID `json:"actor_id"`
}

func NewUserAnonymizedEvent(userID, companyID, actorID uuid.UUID) *UserAnonymizedEvent {
	return &UserAnonymizedEvent{
		BaseEvent: NewBaseEvent(EventTypeUserAnonymized, userID.String(), map[string]interface{}{
			"user_id":    userID.String(),
			"company_id": companyID.String(),
			"actor_id":   actorID.String(),
		}),
		UserID:    userID,
		CompanyID: companyID,
		ActorID:   actorID,
	}
}
