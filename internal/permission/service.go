package permission

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/frahmantamala/gogotime/internal/auth"
	"github.com/frahmantamala/gogotime/internal/core/common/validation"
	"github.com/frahmantamala/gogotime/internal/core/datamodel/rbac"
)

// PermissionRepository is scoped by company on every call. FindByID returns
// ErrPermissionNotFound for missing or foreign rows; FindByName returns
// nil, nil when no row matches.
type PermissionRepository interface {
	Create(ctx context.Context, p *rbac.Permission) error
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*rbac.Permission, error)
	FindByName(ctx context.Context, companyID uuid.UUID, name string) (*rbac.Permission, error)
	FindAllInCompany(ctx context.Context, companyID uuid.UUID) ([]*rbac.Permission, error)
	Update(ctx context.Context, p *rbac.Permission) error
	SoftDelete(ctx context.Context, companyID, id uuid.UUID) error
}

type ServiceAPI interface {
	Create(ctx context.Context, p *auth.Principal, dto CreatePermissionDTO) (*Permission, error)
	List(ctx context.Context, p *auth.Principal) ([]*Permission, error)
	Get(ctx context.Context, p *auth.Principal, id uuid.UUID) (*Permission, error)
	Update(ctx context.Context, p *auth.Principal, id uuid.UUID, dto UpdatePermissionDTO) (*Permission, error)
	Delete(ctx context.Context, p *auth.Principal, id uuid.UUID) error
}

type Service struct {
	repo   PermissionRepository
	policy auth.Policy
	logger *slog.Logger
}

func NewService(repo PermissionRepository, policy auth.Policy, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		policy: policy,
		logger: logger,
	}
}

func (s *Service) Create(ctx context.Context, p *auth.Principal, dto CreatePermissionDTO) (*Permission, error) {
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}
	if err := s.policy.Require(ctx, p, auth.PermCreatePermission); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByName(ctx, p.CompanyID, dto.Name)
	if err != nil {
		s.logger.Error("failed to look up permission by name", "error", err, "name", dto.Name)
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicatePermission
	}

	row := &rbac.Permission{
		ID:          uuid.New(),
		CompanyID:   p.CompanyID,
		Name:        dto.Name,
		Description: dto.Description,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, err
	}

	s.logger.Info("permission created", "permission_id", row.ID, "name", row.Name, "company_id", row.CompanyID, "actor_id", p.ID)
	return PermissionFromDataModel(row), nil
}

func (s *Service) List(ctx context.Context, p *auth.Principal) ([]*Permission, error) {
	rows, err := s.repo.FindAllInCompany(ctx, p.CompanyID)
	if err != nil {
		s.logger.Error("failed to list permissions", "error", err, "company_id", p.CompanyID)
		return nil, err
	}
	out := make([]*Permission, 0, len(rows))
	for _, row := range rows {
		out = append(out, PermissionFromDataModel(row))
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, p *auth.Principal, id uuid.UUID) (*Permission, error) {
	row, err := s.repo.FindByID(ctx, p.CompanyID, id)
	if err != nil {
		return nil, err
	}
	return PermissionFromDataModel(row), nil
}

// Update renames or redescribes a permission. Renaming changes which checks
// existing grants satisfy.
func (s *Service) Update(ctx context.Context, p *auth.Principal, id uuid.UUID, dto UpdatePermissionDTO) (*Permission, error) {
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}

	row, err := s.repo.FindByID(ctx, p.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Require(ctx, p, auth.PermUpdatePermission); err != nil {
		return nil, err
	}

	if dto.Name != nil && *dto.Name != row.Name {
		existing, err := s.repo.FindByName(ctx, p.CompanyID, *dto.Name)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != row.ID {
			return nil, ErrDuplicatePermission
		}
		row.Name = *dto.Name
	}
	if dto.Description != nil {
		row.Description = *dto.Description
	}

	if err := s.repo.Update(ctx, row); err != nil {
		return nil, err
	}

	updated, err := s.repo.FindByID(ctx, p.CompanyID, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("permission updated", "permission_id", id, "actor_id", p.ID)
	return PermissionFromDataModel(updated), nil
}

func (s *Service) Delete(ctx context.Context, p *auth.Principal, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, p.CompanyID, id); err != nil {
		return err
	}
	if err := s.policy.Require(ctx, p, auth.PermDeletePermission); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, p.CompanyID, id); err != nil {
		return err
	}
	s.logger.Info("permission deleted", "permission_id", id, "actor_id", p.ID)
	return nil
}
