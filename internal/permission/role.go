package permission

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/frahmantamala/gogotime/internal/auth"
	"github.com/frahmantamala/gogotime/internal/core/common/validation"
	"github.com/frahmantamala/gogotime/internal/core/datamodel/rbac"
)

type RoleRepository interface {
	Create(ctx context.Context, r *rbac.Role) error
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*rbac.Role, error)
	FindByName(ctx context.Context, companyID uuid.UUID, name string) (*rbac.Role, error)
	FindAllInCompany(ctx context.Context, companyID uuid.UUID) ([]*rbac.Role, error)
	// SoftDelete removes the role together with its grants.
	SoftDelete(ctx context.Context, companyID, id uuid.UUID) error
}

type GrantRepository interface {
	Create(ctx context.Context, g *rbac.RolePermission) error
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*rbac.RolePermission, error)
	FindByPair(ctx context.Context, companyID, roleID, permissionID uuid.UUID) (*rbac.RolePermission, error)
	FindByRole(ctx context.Context, companyID, roleID uuid.UUID) ([]*Grant, error)
	SoftDelete(ctx context.Context, companyID, id uuid.UUID) error
}

type RoleServiceAPI interface {
	Create(ctx context.Context, p *auth.Principal, dto CreateRoleDTO) (*Role, error)
	List(ctx context.Context, p *auth.Principal) ([]*Role, error)
	Get(ctx context.Context, p *auth.Principal, id uuid.UUID) (*Role, error)
	Delete(ctx context.Context, p *auth.Principal, id uuid.UUID) error
}

type RoleService struct {
	roles  RoleRepository
	policy auth.Policy
	logger *slog.Logger
}

func NewRoleService(roles RoleRepository, policy auth.Policy, logger *slog.Logger) *RoleService {
	return &RoleService{roles: roles, policy: policy, logger: logger}
}

func (s *RoleService) Create(ctx context.Context, p *auth.Principal, dto CreateRoleDTO) (*Role, error) {
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}
	if err := s.policy.Require(ctx, p, auth.PermCreateRole); err != nil {
		return nil, err
	}

	existing, err := s.roles.FindByName(ctx, p.CompanyID, dto.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateRole
	}

	row := &rbac.Role{
		ID:          uuid.New(),
		CompanyID:   p.CompanyID,
		Name:        dto.Name,
		Description: dto.Description,
	}
	if err := s.roles.Create(ctx, row); err != nil {
		return nil, err
	}
	s.logger.Info("role created", "role_id", row.ID, "name", row.Name, "actor_id", p.ID)
	return RoleFromDataModel(row), nil
}

func (s *RoleService) List(ctx context.Context, p *auth.Principal) ([]*Role, error) {
	rows, err := s.roles.FindAllInCompany(ctx, p.CompanyID)
	if err != nil {
		return nil, err
	}
	out := make([]*Role, 0, len(rows))
	for _, row := range rows {
		out = append(out, RoleFromDataModel(row))
	}
	return out, nil
}

func (s *RoleService) Get(ctx context.Context, p *auth.Principal, id uuid.UUID) (*Role, error) {
	row, err := s.roles.FindByID(ctx, p.CompanyID, id)
	if err != nil {
		return nil, err
	}
	return RoleFromDataModel(row), nil
}

func (s *RoleService) Delete(ctx context.Context, p *auth.Principal, id uuid.UUID) error {
	if _, err := s.roles.FindByID(ctx, p.CompanyID, id); err != nil {
		return err
	}
	if err := s.policy.Require(ctx, p, auth.PermDeleteRole); err != nil {
		return err
	}
	if err := s.roles.SoftDelete(ctx, p.CompanyID, id); err != nil {
		return err
	}
	s.logger.Info("role deleted", "role_id", id, "actor_id", p.ID)
	return nil
}

type GrantServiceAPI interface {
	Grant(ctx context.Context, p *auth.Principal, dto GrantDTO) (*Grant, error)
	Revoke(ctx context.Context, p *auth.Principal, id uuid.UUID) error
	ListForRole(ctx context.Context, p *auth.Principal, roleID uuid.UUID) ([]*Grant, error)
}

// GrantService manages RolePermission rows.
type GrantService struct {
	grants      GrantRepository
	roles       RoleRepository
	permissions PermissionRepository
	policy      auth.Policy
	logger      *slog.Logger
}

func NewGrantService(grants GrantRepository, roles RoleRepository, permissions PermissionRepository, policy auth.Policy, logger *slog.Logger) *GrantService {
	return &GrantService{
		grants:      grants,
		roles:       roles,
		permissions: permissions,
		policy:      policy,
		logger:      logger,
	}
}

// Grant links a role to a permission. Both must live in the caller's company.
func (s *GrantService) Grant(ctx context.Context, p *auth.Principal, dto GrantDTO) (*Grant, error) {
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}

	if _, err := s.roles.FindByID(ctx, p.CompanyID, dto.RoleID); err != nil {
		return nil, err
	}
	perm, err := s.permissions.FindByID(ctx, p.CompanyID, dto.PermissionID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Require(ctx, p, auth.PermCreateRolePermission); err != nil {
		return nil, err
	}

	existing, err := s.grants.FindByPair(ctx, p.CompanyID, dto.RoleID, dto.PermissionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateGrant
	}

	actor := p.ID
	row := &rbac.RolePermission{
		ID:           uuid.New(),
		CompanyID:    p.CompanyID,
		RoleID:       dto.RoleID,
		PermissionID: dto.PermissionID,
		GrantedBy:    &actor,
	}
	if err := s.grants.Create(ctx, row); err != nil {
		return nil, err
	}

	s.logger.Info("permission granted", "role_id", row.RoleID, "permission", perm.Name, "actor_id", p.ID)
	g := GrantFromDataModel(row)
	g.Permission = perm.Name
	return g, nil
}

func (s *GrantService) Revoke(ctx context.Context, p *auth.Principal, id uuid.UUID) error {
	if _, err := s.grants.FindByID(ctx, p.CompanyID, id); err != nil {
		return err
	}
	if err := s.policy.Require(ctx, p, auth.PermDeleteRolePermission); err != nil {
		return err
	}
	if err := s.grants.SoftDelete(ctx, p.CompanyID, id); err != nil {
		return err
	}
	s.logger.Info("permission revoked", "role_permission_id", id, "actor_id", p.ID)
	return nil
}

func (s *GrantService) ListForRole(ctx context.Context, p *auth.Principal, roleID uuid.UUID) ([]*Grant, error) {
	if _, err := s.roles.FindByID(ctx, p.CompanyID, roleID); err != nil {
		return nil, err
	}
	return s.grants.FindByRole(ctx, p.CompanyID, roleID)
}
