package timesheet

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/gogotime/internal"
	"github.com/frahmantamala/gogotime/internal/actioncode"
	"github.com/frahmantamala/gogotime/internal/auth"
	"github.com/frahmantamala/gogotime/internal/core/common/datetime"
	"github.com/frahmantamala/gogotime/internal/core/common/validation"
	timesheetDatamodel "github.com/frahmantamala/gogotime/internal/core/datamodel/timesheet"
	"github.com/frahmantamala/gogotime/internal/core/events"
	"github.com/frahmantamala/gogotime/internal/metrics"
)

type RepositoryAPI interface {
	CreateTimesheet(ctx context.Context, t *timesheetDatamodel.Timesheet) error
	FindTimesheet(ctx context.Context, companyID, id uuid.UUID) (*timesheetDatamodel.Timesheet, error)
	FindTimesheetsByUser(ctx context.Context, companyID, userID uuid.UUID) ([]*timesheetDatamodel.Timesheet, error)

	CreateEntry(ctx context.Context, e *timesheetDatamodel.TimesheetEntry) error
	FindEntry(ctx context.Context, companyID, id uuid.UUID) (*timesheetDatamodel.TimesheetEntry, error)
	FindEntries(ctx context.Context, companyID uuid.UUID, filter EntryFilter) ([]*timesheetDatamodel.TimesheetEntry, error)
	// UpdateEntryIfUnchanged writes e when the stored row still has
	// expectedStatus and expectedVersion, bumping the version. Otherwise it
	// returns internal.ErrVersionConflict.
	UpdateEntryIfUnchanged(ctx context.Context, e *timesheetDatamodel.TimesheetEntry, expectedStatus Status, expectedVersion int64) error
	// SoftDeleteDraftEntry removes an entry that is still a draft.
	SoftDeleteDraftEntry(ctx context.Context, companyID, id uuid.UUID) error
}

// ActionCodeResolver loads a company's action code.
type ActionCodeResolver interface {
	Resolve(ctx context.Context, companyID, id uuid.UUID) (*actioncode.ActionCode, error)
}

type UserDirectory interface {
	Exists(ctx context.Context, companyID, userID uuid.UUID) (bool, error)
}

type ServiceAPI interface {
	CreateTimesheet(ctx context.Context, p *auth.Principal, dto CreateTimesheetDTO) (*Timesheet, error)
	GetTimesheet(ctx context.Context, p *auth.Principal, id uuid.UUID) (*Timesheet, error)
	ListTimesheets(ctx context.Context, p *auth.Principal, userID *uuid.UUID) ([]*Timesheet, error)

	CreateEntry(ctx context.Context, p *auth.Principal, dto CreateEntryDTO) (*Entry, error)
	GetEntry(ctx context.Context, p *auth.Principal, id uuid.UUID) (*Entry, error)
	ListEntries(ctx context.Context, p *auth.Principal, filter EntryFilter) ([]*Entry, error)
	ApprovalQueue(ctx context.Context, p *auth.Principal) ([]*Entry, error)
	UpdateEntry(ctx context.Context, p *auth.Principal, id uuid.UUID, dto UpdateEntryDTO) (*Entry, error)
	DeleteEntry(ctx context.Context, p *auth.Principal, id uuid.UUID) error

	Submit(ctx context.Context, p *auth.Principal, id uuid.UUID, dto TransitionDTO) (*Entry, error)
	Approve(ctx context.Context, p *auth.Principal, id uuid.UUID, dto TransitionDTO) (*Entry, error)
	Reject(ctx context.Context, p *auth.Principal, id uuid.UUID, dto RejectDTO) (*Entry, error)
	Invoice(ctx context.Context, p *auth.Principal, id uuid.UUID, dto TransitionDTO) (*Entry, error)
}

type Service struct {
	repo      RepositoryAPI
	codes     ActionCodeResolver
	users     UserDirectory
	policy    auth.Policy
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo RepositoryAPI, codes ActionCodeResolver, users UserDirectory, policy auth.Policy, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		codes:     codes,
		users:     users,
		policy:    policy,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) CreateTimesheet(ctx context.Context, p *auth.Principal, dto CreateTimesheetDTO) (*Timesheet, error) {
	v := validation.NewValidator().Struct(dto)
	start, startErr := datetime.ParseDate(dto.PeriodStart)
	end, endErr := datetime.ParseDate(dto.PeriodEnd)
	if startErr == nil && endErr == nil {
		v.Check(!end.Before(start), "period_end", "period_end must not be before period_start", internal.ErrCodeInvalidDateRange)
	}
	if appErr := v.Validate(); appErr != nil {
		return nil, appErr
	}

	owner := p.ID
	if dto.UserID != nil {
		owner = *dto.UserID
	}
	if err := s.policy.Authorize(ctx, p, owner, auth.PermCreateOtherTimesheet); err != nil {
		return nil, err
	}
	if owner != p.ID {
		exists, err := s.users.Exists(ctx, p.CompanyID, owner)
		if err != nil {
			return nil, internal.NewInternalError("failed to look up user", err)
		}
		if !exists {
			return nil, ErrUserNotFound
		}
	}

	row := &timesheetDatamodel.Timesheet{
		ID:          uuid.New(),
		CompanyID:   p.CompanyID,
		UserID:      owner,
		PeriodStart: start,
		PeriodEnd:   end,
		Notes:       strings.TrimSpace(dto.Notes),
	}
	if err := s.repo.CreateTimesheet(ctx, row); err != nil {
		return nil, err
	}

	s.logger.Info("timesheet created", "timesheet_id", row.ID, "user_id", owner, "actor_id", p.ID)
	return FromDataModel(row), nil
}

// GetTimesheet returns the timesheet with its entries and their total.
func (s *Service) GetTimesheet(ctx context.Context, p *auth.Principal, id uuid.UUID) (*Timesheet, error) {
	row, err := s.repo.FindTimesheet(ctx, p.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(ctx, p, row.UserID, auth.PermViewOtherTimesheet); err != nil {
		return nil, err
	}

	entries, err := s.repo.FindEntries(ctx, p.CompanyID, EntryFilter{TimesheetID: &row.ID, AllUsers: true})
	if err != nil {
		return nil, err
	}
	out := FromDataModel(row)
	out.Entries = toEntries(entries)
	for _, e := range out.Entries {
		out.TotalMinutes += e.Minutes
	}
	return out, nil
}

func (s *Service) ListTimesheets(ctx context.Context, p *auth.Principal, userID *uuid.UUID) ([]*Timesheet, error) {
	owner := p.ID
	if userID != nil {
		owner = *userID
	}
	if err := s.policy.Authorize(ctx, p, owner, auth.PermViewOtherTimesheet); err != nil {
		return nil, err
	}
	rows, err := s.repo.FindTimesheetsByUser(ctx, p.CompanyID, owner)
	if err != nil {
		return nil, err
	}
	out := make([]*Timesheet, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out, nil
}

// CreateEntry logs a draft entry on a timesheet. The work date must fall in
// the timesheet period and the action code must accept time.
func (s *Service) CreateEntry(ctx context.Context, p *auth.Principal, dto CreateEntryDTO) (*Entry, error) {
	dto.Description = strings.TrimSpace(dto.Description)
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}
	day, _ := datetime.ParseDate(dto.WorkDate)

	sheet, err := s.repo.FindTimesheet(ctx, p.CompanyID, dto.TimesheetID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(ctx, p, sheet.UserID, auth.PermCreateOtherTimesheetEntry); err != nil {
		return nil, err
	}
	if !withinPeriod(sheet, day) {
		return nil, outsidePeriod(sheet)
	}
	if err := s.checkActionCode(ctx, p.CompanyID, dto.ActionCodeID); err != nil {
		return nil, err
	}

	row := &timesheetDatamodel.TimesheetEntry{
		ID:           uuid.New(),
		CompanyID:    p.CompanyID,
		TimesheetID:  sheet.ID,
		UserID:       sheet.UserID,
		ActionCodeID: dto.ActionCodeID,
		WorkDate:     day,
		Minutes:      dto.Minutes,
		Description:  dto.Description,
		Status:       string(StatusDraft),
		Version:      1,
	}
	if err := s.repo.CreateEntry(ctx, row); err != nil {
		s.logger.Error("failed to create timesheet entry", "error", err, "timesheet_id", sheet.ID)
		return nil, err
	}

	s.logger.Info("timesheet entry created", "entry_id", row.ID, "user_id", row.UserID, "actor_id", p.ID)
	return EntryFromDataModel(row), nil
}

func (s *Service) GetEntry(ctx context.Context, p *auth.Principal, id uuid.UUID) (*Entry, error) {
	row, err := s.repo.FindEntry(ctx, p.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(ctx, p, row.UserID, auth.PermViewOtherTimesheetEntry); err != nil {
		return nil, err
	}
	return EntryFromDataModel(row), nil
}

// ListEntries defaults to the caller's own entries. Asking for another user
// or the whole company needs view_other_timesheet_entry.
func (s *Service) ListEntries(ctx context.Context, p *auth.Principal, filter EntryFilter) ([]*Entry, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, internal.NewValidationFieldError("status", "status must be one of: draft submitted approved rejected invoiced", internal.ErrCodeValidationFailed)
	}
	switch {
	case filter.AllUsers:
		filter.UserID = nil
		if err := s.policy.Require(ctx, p, auth.PermViewOtherTimesheetEntry); err != nil {
			return nil, err
		}
	case filter.UserID == nil:
		filter.UserID = &p.ID
	default:
		if err := s.policy.Authorize(ctx, p, *filter.UserID, auth.PermViewOtherTimesheetEntry); err != nil {
			return nil, err
		}
	}

	rows, err := s.repo.FindEntries(ctx, p.CompanyID, filter)
	if err != nil {
		return nil, err
	}
	return toEntries(rows), nil
}

// ApprovalQueue lists the company's submitted entries.
func (s *Service) ApprovalQueue(ctx context.Context, p *auth.Principal) ([]*Entry, error) {
	if err := s.policy.Require(ctx, p, auth.PermApproveTimesheetEntry); err != nil {
		return nil, err
	}
	rows, err := s.repo.FindEntries(ctx, p.CompanyID, EntryFilter{Status: StatusSubmitted, AllUsers: true})
	if err != nil {
		return nil, err
	}
	return toEntries(rows), nil
}

func (s *Service) UpdateEntry(ctx context.Context, p *auth.Principal, id uuid.UUID, dto UpdateEntryDTO) (*Entry, error) {
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}

	row, err := s.repo.FindEntry(ctx, p.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(ctx, p, row.UserID, auth.PermUpdateOtherTimesheetEntry); err != nil {
		return nil, err
	}
	if !Status(row.Status).IsEditable() {
		return nil, ErrNotEditable
	}

	if dto.WorkDate != nil {
		day, _ := datetime.ParseDate(*dto.WorkDate)
		sheet, err := s.repo.FindTimesheet(ctx, p.CompanyID, row.TimesheetID)
		if err != nil {
			return nil, err
		}
		if !withinPeriod(sheet, day) {
			return nil, outsidePeriod(sheet)
		}
		row.WorkDate = day
	}
	if dto.ActionCodeID != nil && *dto.ActionCodeID != row.ActionCodeID {
		if err := s.checkActionCode(ctx, p.CompanyID, *dto.ActionCodeID); err != nil {
			return nil, err
		}
		row.ActionCodeID = *dto.ActionCodeID
	}
	if dto.Minutes != nil {
		row.Minutes = *dto.Minutes
	}
	if dto.Description != nil {
		row.Description = strings.TrimSpace(*dto.Description)
	}

	if err := s.repo.UpdateEntryIfUnchanged(ctx, row, StatusDraft, dto.Version); err != nil {
		return nil, err
	}

	updated, err := s.repo.FindEntry(ctx, p.CompanyID, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("timesheet entry updated", "entry_id", id, "actor_id", p.ID)
	return EntryFromDataModel(updated), nil
}

func (s *Service) DeleteEntry(ctx context.Context, p *auth.Principal, id uuid.UUID) error {
	row, err := s.repo.FindEntry(ctx, p.CompanyID, id)
	if err != nil {
		return err
	}
	if err := s.policy.Authorize(ctx, p, row.UserID, auth.PermDeleteOtherTimesheetEntry); err != nil {
		return err
	}
	if !Status(row.Status).IsEditable() {
		return ErrNotEditable
	}
	if err := s.repo.SoftDeleteDraftEntry(ctx, p.CompanyID, id); err != nil {
		return err
	}
	s.logger.Info("timesheet entry deleted", "entry_id", id, "actor_id", p.ID)
	return nil
}

// Submit hands a draft over for approval. Owners submit their own entries.
func (s *Service) Submit(ctx context.Context, p *auth.Principal, id uuid.UUID, dto TransitionDTO) (*Entry, error) {
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}
	row, err := s.repo.FindEntry(ctx, p.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(ctx, p, row.UserID, auth.PermSubmitOtherTimesheetEntry); err != nil {
		return nil, err
	}
	return s.transition(ctx, p, row, StatusSubmitted, dto.Version, "")
}

func (s *Service) Approve(ctx context.Context, p *auth.Principal, id uuid.UUID, dto TransitionDTO) (*Entry, error) {
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}
	row, err := s.repo.FindEntry(ctx, p.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Require(ctx, p, auth.PermApproveTimesheetEntry); err != nil {
		return nil, err
	}
	return s.transition(ctx, p, row, StatusApproved, dto.Version, "")
}

func (s *Service) Reject(ctx context.Context, p *auth.Principal, id uuid.UUID, dto RejectDTO) (*Entry, error) {
	dto.Reason = strings.TrimSpace(dto.Reason)
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}
	row, err := s.repo.FindEntry(ctx, p.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Require(ctx, p, auth.PermRejectTimesheetEntry); err != nil {
		return nil, err
	}
	return s.transition(ctx, p, row, StatusRejected, dto.Version, dto.Reason)
}

func (s *Service) Invoice(ctx context.Context, p *auth.Principal, id uuid.UUID, dto TransitionDTO) (*Entry, error) {
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}
	row, err := s.repo.FindEntry(ctx, p.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Require(ctx, p, auth.PermInvoiceTimesheetEntry); err != nil {
		return nil, err
	}
	return s.transition(ctx, p, row, StatusInvoiced, dto.Version, "")
}

// transition moves row to target. The write only lands if nobody changed the
// entry since it was read; the loser of a race gets a version conflict.
func (s *Service) transition(ctx context.Context, p *auth.Principal, row *timesheetDatamodel.TimesheetEntry, target Status, expectedVersion int64, reason string) (*Entry, error) {
	from := Status(row.Status)
	if !from.CanTransitionTo(target) {
		return nil, invalidTransition(from, target)
	}
	if expectedVersion > 0 && expectedVersion != row.Version {
		return nil, internal.ErrVersionConflict
	}

	now := s.now()
	actor := p.ID
	row.Status = string(target)
	switch target {
	case StatusSubmitted:
		row.SubmittedAt = &now
	case StatusApproved:
		row.ApprovedBy = &actor
		row.ApprovedAt = &now
	case StatusRejected:
		row.RejectedBy = &actor
		row.RejectedAt = &now
		row.RejectionReason = &reason
	case StatusInvoiced:
		row.InvoicedAt = &now
	}

	if err := s.repo.UpdateEntryIfUnchanged(ctx, row, from, row.Version); err != nil {
		if internal.ErrorTypeOf(err) == internal.ErrorTypeConflict {
			s.logger.Warn("timesheet entry changed concurrently", "entry_id", row.ID, "from", from, "to", target)
		}
		return nil, err
	}

	metrics.TimesheetTransitionsTotal.WithLabelValues(string(from), string(target)).Inc()
	if s.publisher != nil {
		event := events.NewTimesheetEntryStatusChangedEvent(row.ID, row.CompanyID, row.UserID, actor, string(from), string(target))
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish entry transition", "error", err, "entry_id", row.ID)
		}
	}

	updated, err := s.repo.FindEntry(ctx, p.CompanyID, row.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("timesheet entry transitioned", "entry_id", row.ID, "from", from, "to", target, "actor_id", p.ID)
	return EntryFromDataModel(updated), nil
}

func (s *Service) checkActionCode(ctx context.Context, companyID, id uuid.UUID) error {
	code, err := s.codes.Resolve(ctx, companyID, id)
	if err != nil {
		return err
	}
	if !code.AcceptsTime() {
		return ErrTimeLoggingBlocked
	}
	return nil
}

func outsidePeriod(t *timesheetDatamodel.Timesheet) *internal.AppError {
	return internal.NewValidationFieldError("work_date",
		"work_date must be between "+datetime.FormatDate(t.PeriodStart)+" and "+datetime.FormatDate(t.PeriodEnd),
		internal.ErrCodeInvalidDateRange)
}

func toEntries(rows []*timesheetDatamodel.TimesheetEntry) []*Entry {
	out := make([]*Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, EntryFromDataModel(row))
	}
	return out
}
