package permission

import (
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/gogotime/internal"
	"github.com/frahmantamala/gogotime/internal/core/datamodel/rbac"
)

var (
	ErrPermissionNotFound = internal.NewNotFoundError("permission not found", internal.ErrCodePermissionNotFound)
	ErrRoleNotFound       = internal.NewNotFoundError("role not found", internal.ErrCodeRoleNotFound)
	ErrGrantNotFound      = internal.NewNotFoundError("role permission not found", internal.ErrCodeGrantNotFound)

	ErrDuplicatePermission = internal.NewConflictError("permission with this name already exists", internal.ErrCodeDuplicatePermission)
	ErrDuplicateRole       = internal.NewConflictError("role with this name already exists", internal.ErrCodeDuplicateRole)
	ErrDuplicateGrant      = internal.NewConflictError("role already has this permission", internal.ErrCodeDuplicateGrant)
)

type Permission struct {
	ID          uuid.UUID `json:"id"`
	CompanyID   uuid.UUID `json:"company_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Role struct {
	ID          uuid.UUID `json:"id"`
	CompanyID   uuid.UUID `json:"company_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Grant is a RolePermission row: the only thing that makes a permission
// check pass.
type Grant struct {
	ID           uuid.UUID  `json:"id"`
	CompanyID    uuid.UUID  `json:"company_id"`
	RoleID       uuid.UUID  `json:"role_id"`
	PermissionID uuid.UUID  `json:"permission_id"`
	Permission   string     `json:"permission,omitempty"`
	GrantedBy    *uuid.UUID `json:"granted_by,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func PermissionFromDataModel(p *rbac.Permission) *Permission {
	return &Permission{
		ID:          p.ID,
		CompanyID:   p.CompanyID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func RoleFromDataModel(r *rbac.Role) *Role {
	return &Role{
		ID:          r.ID,
		CompanyID:   r.CompanyID,
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func GrantFromDataModel(g *rbac.RolePermission) *Grant {
	return &Grant{
		ID:           g.ID,
		CompanyID:    g.CompanyID,
		RoleID:       g.RoleID,
		PermissionID: g.PermissionID,
		GrantedBy:    g.GrantedBy,
		CreatedAt:    g.CreatedAt,
	}
}
