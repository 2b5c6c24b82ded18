package leave

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/gogotime/internal"
	"github.com/frahmantamala/gogotime/internal/auth"
	"github.com/frahmantamala/gogotime/internal/core/common/datetime"
	"github.com/frahmantamala/gogotime/internal/core/common/validation"
	leaveDatamodel "github.com/frahmantamala/gogotime/internal/core/datamodel/leave"
	"github.com/frahmantamala/gogotime/internal/core/events"
	"github.com/frahmantamala/gogotime/internal/metrics"
)

type RepositoryAPI interface {
	Create(ctx context.Context, l *leaveDatamodel.LeaveRequest) error
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*leaveDatamodel.LeaveRequest, error)
	FindByUser(ctx context.Context, companyID, userID uuid.UUID) ([]*leaveDatamodel.LeaveRequest, error)
	FindAllInCompany(ctx context.Context, companyID uuid.UUID, status string) ([]*leaveDatamodel.LeaveRequest, error)
	// UpdateIfUnchanged writes l when the stored row is still pending at
	// expectedVersion and bumps the version. Otherwise it returns
	// internal.ErrVersionConflict.
	UpdateIfUnchanged(ctx context.Context, l *leaveDatamodel.LeaveRequest, expectedVersion int64) error
	SoftDelete(ctx context.Context, companyID, id uuid.UUID) error
}

// UserDirectory answers whether a user is a live member of a company.
type UserDirectory interface {
	Exists(ctx context.Context, companyID, userID uuid.UUID) (bool, error)
}

type ServiceAPI interface {
	Create(ctx context.Context, p *auth.Principal, dto CreateLeaveRequestDTO) (*LeaveRequest, error)
	Get(ctx context.Context, p *auth.Principal, id uuid.UUID) (*LeaveRequest, error)
	ListMine(ctx context.Context, p *auth.Principal) ([]*LeaveRequest, error)
	ListCompany(ctx context.Context, p *auth.Principal, status string) ([]*LeaveRequest, error)
	Update(ctx context.Context, p *auth.Principal, id uuid.UUID, dto UpdateLeaveRequestDTO) (*LeaveRequest, error)
	Delete(ctx context.Context, p *auth.Principal, id uuid.UUID) error
	Approve(ctx context.Context, p *auth.Principal, id uuid.UUID, dto DecisionDTO) (*LeaveRequest, error)
	Reject(ctx context.Context, p *auth.Principal, id uuid.UUID, dto DecisionDTO) (*LeaveRequest, error)
}

type Service struct {
	repo      RepositoryAPI
	users     UserDirectory
	policy    auth.Policy
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, users UserDirectory, policy auth.Policy, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		users:     users,
		policy:    policy,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *Service) Create(ctx context.Context, p *auth.Principal, dto CreateLeaveRequestDTO) (*LeaveRequest, error) {
	start, end, appErr := validateCreate(dto)
	if appErr != nil {
		return nil, appErr
	}

	owner := p.ID
	if dto.UserID != nil {
		owner = *dto.UserID
	}
	if err := s.policy.Authorize(ctx, p, owner, auth.PermCreateOtherLeaveRequest); err != nil {
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

	row := &leaveDatamodel.LeaveRequest{
		ID:        uuid.New(),
		CompanyID: p.CompanyID,
		UserID:    owner,
		LeaveType: dto.LeaveType,
		StartDate: start,
		EndDate:   end,
		Reason:    strings.TrimSpace(dto.Reason),
		Status:    StatusPending,
		Version:   1,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create leave request", "error", err, "user_id", owner)
		return nil, err
	}

	s.logger.Info("leave request created", "leave_request_id", row.ID, "user_id", owner, "actor_id", p.ID)
	return FromDataModel(row), nil
}

func validateCreate(dto CreateLeaveRequestDTO) (time.Time, time.Time, *internal.AppError) {
	v := validation.NewValidator().Struct(dto)
	start, startErr := datetime.ParseDate(dto.StartDate)
	end, endErr := datetime.ParseDate(dto.EndDate)
	if startErr == nil && endErr == nil {
		v.Check(!end.Before(start), "end_date", "end_date must not be before start_date", internal.ErrCodeInvalidDateRange)
	}
	if dto.UserID != nil {
		v.Check(*dto.UserID != uuid.Nil, "user_id", "user_id must be a valid UUID", internal.ErrCodeValidationFailed)
	}
	return start, end, v.Validate()
}

func (s *Service) Get(ctx context.Context, p *auth.Principal, id uuid.UUID) (*LeaveRequest, error) {
	row, err := s.repo.FindByID(ctx, p.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(ctx, p, row.UserID, auth.PermViewOtherLeaveRequest); err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

func (s *Service) ListMine(ctx context.Context, p *auth.Principal) ([]*LeaveRequest, error) {
	rows, err := s.repo.FindByUser(ctx, p.CompanyID, p.ID)
	if err != nil {
		return nil, err
	}
	return toResponses(rows), nil
}

func (s *Service) ListCompany(ctx context.Context, p *auth.Principal, status string) ([]*LeaveRequest, error) {
	if status != "" && status != StatusPending && status != StatusApproved && status != StatusRejected {
		return nil, internal.NewValidationFieldError("status", "status must be one of: pending approved rejected", internal.ErrCodeValidationFailed)
	}
	if err := s.policy.Require(ctx, p, auth.PermViewOtherLeaveRequest); err != nil {
		return nil, err
	}
	rows, err := s.repo.FindAllInCompany(ctx, p.CompanyID, status)
	if err != nil {
		return nil, err
	}
	return toResponses(rows), nil
}

// Update edits a pending request. The version in dto must match the stored one.
func (s *Service) Update(ctx context.Context, p *auth.Principal, id uuid.UUID, dto UpdateLeaveRequestDTO) (*LeaveRequest, error) {
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}

	row, err := s.repo.FindByID(ctx, p.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(ctx, p, row.UserID, auth.PermUpdateOtherLeaveRequest); err != nil {
		return nil, err
	}
	if row.Status != StatusPending {
		return nil, ErrNotPending
	}

	if dto.LeaveType != nil {
		row.LeaveType = *dto.LeaveType
	}
	if dto.StartDate != nil {
		row.StartDate, _ = datetime.ParseDate(*dto.StartDate)
	}
	if dto.EndDate != nil {
		row.EndDate, _ = datetime.ParseDate(*dto.EndDate)
	}
	if dto.Reason != nil {
		row.Reason = strings.TrimSpace(*dto.Reason)
	}
	if row.EndDate.Before(row.StartDate) {
		return nil, internal.NewValidationFieldError("end_date", "end_date must not be before start_date", internal.ErrCodeInvalidDateRange)
	}

	if err := s.repo.UpdateIfUnchanged(ctx, row, dto.Version); err != nil {
		return nil, err
	}

	updated, err := s.repo.FindByID(ctx, p.CompanyID, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("leave request updated", "leave_request_id", id, "actor_id", p.ID)
	return FromDataModel(updated), nil
}

func (s *Service) Delete(ctx context.Context, p *auth.Principal, id uuid.UUID) error {
	row, err := s.repo.FindByID(ctx, p.CompanyID, id)
	if err != nil {
		return err
	}
	if err := s.policy.Authorize(ctx, p, row.UserID, auth.PermDeleteOtherLeaveRequest); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, p.CompanyID, id); err != nil {
		return err
	}
	s.logger.Info("leave request deleted", "leave_request_id", id, "actor_id", p.ID)
	return nil
}

func (s *Service) Approve(ctx context.Context, p *auth.Principal, id uuid.UUID, dto DecisionDTO) (*LeaveRequest, error) {
	return s.decide(ctx, p, id, dto, StatusApproved)
}

// Reject requires a reason.
func (s *Service) Reject(ctx context.Context, p *auth.Principal, id uuid.UUID, dto DecisionDTO) (*LeaveRequest, error) {
	return s.decide(ctx, p, id, dto, StatusRejected)
}

func (s *Service) decide(ctx context.Context, p *auth.Principal, id uuid.UUID, dto DecisionDTO, status string) (*LeaveRequest, error) {
	dto.Reason = strings.TrimSpace(dto.Reason)
	v := validation.NewValidator().Struct(dto)
	if status == StatusRejected {
		v.Check(dto.Reason != "", "reason", "reason is required", internal.ErrCodeValidationFailed)
	}
	if appErr := v.Validate(); appErr != nil {
		return nil, appErr
	}

	row, err := s.repo.FindByID(ctx, p.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Require(ctx, p, auth.PermApproveLeaveRequest); err != nil {
		return nil, err
	}
	if row.Status != StatusPending {
		return nil, ErrNotPending.WithMessage("leave request is already " + row.Status)
	}

	now := time.Now().UTC()
	actor := p.ID
	row.Status = status
	row.DecidedBy = &actor
	row.DecidedAt = &now
	if dto.Reason != "" {
		reason := dto.Reason
		row.DecisionReason = &reason
	}

	if err := s.repo.UpdateIfUnchanged(ctx, row, row.Version); err != nil {
		return nil, err
	}

	metrics.LeaveDecisionsTotal.WithLabelValues(status).Inc()
	if s.publisher != nil {
		event := events.NewLeaveRequestDecidedEvent(row.ID, row.CompanyID, row.UserID, actor, status)
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish leave decision", "error", err, "leave_request_id", row.ID)
		}
	}

	updated, err := s.repo.FindByID(ctx, p.CompanyID, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("leave request decided", "leave_request_id", id, "status", status, "actor_id", p.ID)
	return FromDataModel(updated), nil
}

func toResponses(rows []*leaveDatamodel.LeaveRequest) []*LeaveRequest {
	out := make([]*LeaveRequest, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out
}
