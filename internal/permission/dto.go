package permission

import "github.com/google/uuid"

type CreatePermissionDTO struct {
	Name        string `json:"name" validate:"required,max=100,identifier"`
	Description string `json:"description" validate:"max=500"`
}

// UpdatePermissionDTO only touches the fields that are present.
type UpdatePermissionDTO struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=100,identifier"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

type CreateRoleDTO struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

type GrantDTO struct {
	RoleID       uuid.UUID `json:"role_id" validate:"required"`
	PermissionID uuid.UUID `json:"permission_id" validate:"required"`
}

type PermissionsResponse struct {
	Permissions []*Permission `json:"permissions"`
}

type RolesResponse struct {
	Roles []*Role `json:"roles"`
}

type GrantsResponse struct {
	Grants []*Grant `json:"role_permissions"`
}
