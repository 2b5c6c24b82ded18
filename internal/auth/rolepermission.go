package auth

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// GrantRepository answers the two lookups behind CheckPermission. Both are
// scoped to the company and ignore soft deleted rows.
type GrantRepository interface {
	RoleOf(ctx context.Context, companyID, userID uuid.UUID) (*uuid.UUID, error)
	RoleHasPermission(ctx context.Context, companyID, roleID uuid.UUID, permission string) (bool, error)
}

// PermissionChecker is the authorization oracle.
type PermissionChecker interface {
	CheckPermission(ctx context.Context, p *Principal, permission string) (bool, error)
}

type RolePermissionService struct {
	repo   GrantRepository
	logger *slog.Logger
}

func NewRolePermissionService(repo GrantRepository, logger *slog.Logger) *RolePermissionService {
	return &RolePermissionService{repo: repo, logger: logger}
}

// CheckPermission reports whether the principal's current role in its own
// company is granted the named permission. A user without a role, or with
// a role or grant that was soft deleted, gets false. Storage failures are
// returned so callers deny.
func (s *RolePermissionService) CheckPermission(ctx context.Context, p *Principal, permission string) (bool, error) {
	if p == nil || permission == "" {
		return false, nil
	}

	roleID, err := s.repo.RoleOf(ctx, p.CompanyID, p.ID)
	if err != nil {
		s.logger.Error("failed to resolve role", "user_id", p.ID, "company_id", p.CompanyID, "error", err)
		return false, err
	}
	if roleID == nil {
		return false, nil
	}

	ok, err := s.repo.RoleHasPermission(ctx, p.CompanyID, *roleID, permission)
	if err != nil {
		s.logger.Error("failed to check role permission",
			"user_id", p.ID,
			"role_id", *roleID,
			"permission", permission,
			"error", err)
		return false, err
	}
	return ok, nil
}
