package user

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/gogotime/internal"
	"github.com/frahmantamala/gogotime/internal/auth"
	userDatamodel "github.com/frahmantamala/gogotime/internal/core/datamodel/user"
	"github.com/frahmantamala/gogotime/internal/core/events"
	"github.com/frahmantamala/gogotime/internal/session"
)

type Repository interface {
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*userDatamodel.User, error)
	FindAllInCompany(ctx context.Context, companyID uuid.UUID) ([]*userDatamodel.User, error)
	Exists(ctx context.Context, companyID, id uuid.UUID) (bool, error)
	PermissionNames(ctx context.Context, companyID uuid.UUID, roleID *uuid.UUID) ([]string, error)
	RoleExists(ctx context.Context, companyID, roleID uuid.UUID) (bool, error)
	AssignRole(ctx context.Context, companyID, id uuid.UUID, roleID *uuid.UUID) error
	// Anonymize scrubs the user unless it was already anonymized, in which
	// case it reports false.
	Anonymize(ctx context.Context, companyID, id uuid.UUID, at time.Time) (bool, error)
}

// SessionRevoker ends every session of a user.
type SessionRevoker interface {
	RevokeAllForUser(ctx context.Context, companyID, userID uuid.UUID, reason string) (int, error)
}

type ServiceAPI interface {
	GetMe(ctx context.Context, p *auth.Principal) (*User, error)
	Get(ctx context.Context, p *auth.Principal, id uuid.UUID) (*User, error)
	List(ctx context.Context, p *auth.Principal) ([]*User, error)
	AssignRole(ctx context.Context, p *auth.Principal, id uuid.UUID, dto AssignRoleDTO) (*User, error)
	Anonymize(ctx context.Context, p *auth.Principal, id uuid.UUID) (*AnonymizeResponse, error)
}

type Service struct {
	repo      Repository
	sessions  SessionRevoker
	policy    auth.Policy
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo Repository, sessions SessionRevoker, policy auth.Policy, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		sessions:  sessions,
		policy:    policy,
		publisher: publisher,
		logger:    logger,
	}
}

// Exists lets other services check a user belongs to a company.
func (s *Service) Exists(ctx context.Context, companyID, id uuid.UUID) (bool, error) {
	return s.repo.Exists(ctx, companyID, id)
}

func (s *Service) GetMe(ctx context.Context, p *auth.Principal) (*User, error) {
	u, err := s.repo.FindByID(ctx, p.CompanyID, p.ID)
	if err != nil {
		return nil, err
	}
	return s.withPermissions(ctx, u)
}

func (s *Service) Get(ctx context.Context, p *auth.Principal, id uuid.UUID) (*User, error) {
	u, err := s.repo.FindByID(ctx, p.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(ctx, p, u.ID, auth.PermViewOtherUser); err != nil {
		return nil, err
	}
	return s.withPermissions(ctx, u)
}

func (s *Service) List(ctx context.Context, p *auth.Principal) ([]*User, error) {
	if err := s.policy.Require(ctx, p, auth.PermViewOtherUser); err != nil {
		return nil, err
	}
	rows, err := s.repo.FindAllInCompany(ctx, p.CompanyID)
	if err != nil {
		return nil, err
	}
	out := make([]*User, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out, nil
}

func (s *Service) AssignRole(ctx context.Context, p *auth.Principal, id uuid.UUID, dto AssignRoleDTO) (*User, error) {
	u, err := s.repo.FindByID(ctx, p.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Require(ctx, p, auth.PermAssignRole); err != nil {
		return nil, err
	}
	if u.AnonymizedAt != nil {
		return nil, ErrAlreadyAnonymized
	}
	if dto.RoleID != nil {
		ok, err := s.repo.RoleExists(ctx, p.CompanyID, *dto.RoleID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrRoleNotFound
		}
	}

	if err := s.repo.AssignRole(ctx, p.CompanyID, id, dto.RoleID); err != nil {
		return nil, err
	}
	s.logger.Info("role assigned", "user_id", id, "role_id", dto.RoleID, "actor_id", p.ID)

	updated, err := s.repo.FindByID(ctx, p.CompanyID, id)
	if err != nil {
		return nil, err
	}
	return s.withPermissions(ctx, updated)
}

// Anonymize irreversibly scrubs a user's personal data and ends all of
// their sessions.
func (s *Service) Anonymize(ctx context.Context, p *auth.Principal, id uuid.UUID) (*AnonymizeResponse, error) {
	u, err := s.repo.FindByID(ctx, p.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Require(ctx, p, auth.PermAnonymizeUser); err != nil {
		return nil, err
	}
	if u.AnonymizedAt != nil {
		return nil, s.alreadyAnonymized(ctx, p.CompanyID, id)
	}

	done, err := s.repo.Anonymize(ctx, p.CompanyID, id, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if !done {
		return nil, s.alreadyAnonymized(ctx, p.CompanyID, id)
	}

	revoked, err := s.sessions.RevokeAllForUser(ctx, p.CompanyID, id, session.ReasonAnonymize)
	if err != nil {
		s.logger.Error("failed to revoke sessions of anonymized user", "error", err, "user_id", id)
		return nil, err
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, events.NewUserAnonymizedEvent(id, p.CompanyID, p.ID)); err != nil {
			s.logger.Warn("failed to publish anonymization", "error", err, "user_id", id)
		}
	}

	updated, err := s.repo.FindByID(ctx, p.CompanyID, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user anonymized", "user_id", id, "actor_id", p.ID, "revoked_sessions", revoked)
	return &AnonymizeResponse{User: FromDataModel(updated), RevokedSessions: revoked}, nil
}

// alreadyAnonymized ends sessions a previous, partially failed call may
// have left open before reporting the conflict.
func (s *Service) alreadyAnonymized(ctx context.Context, companyID, id uuid.UUID) error {
	n, err := s.sessions.RevokeAllForUser(ctx, companyID, id, session.ReasonAnonymize)
	if err != nil {
		s.logger.Error("failed to revoke sessions of anonymized user", "error", err, "user_id", id)
		return err
	}
	if n > 0 {
		s.logger.Warn("revoked sessions left open by an earlier anonymization", "user_id", id, "count", n)
	}
	return ErrAlreadyAnonymized
}

func (s *Service) withPermissions(ctx context.Context, u *userDatamodel.User) (*User, error) {
	perms, err := s.repo.PermissionNames(ctx, u.CompanyID, u.RoleID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load permissions", err)
	}
	return FromDataModelWithPermissions(u, perms), nil
}
