package user

import (
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/gogotime/internal"
	userDatamodel "github.com/frahmantamala/gogotime/internal/core/datamodel/user"
)

const AnonymizedName = "Anonymized User"

var (
	ErrUserNotFound      = internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
	ErrRoleNotFound      = internal.NewNotFoundError("role not found", internal.ErrCodeRoleNotFound)
	ErrAlreadyAnonymized = internal.NewConflictError("user is already anonymized", internal.ErrCodeAlreadyAnonymized)
)

type User struct {
	ID           uuid.UUID  `json:"id"`
	CompanyID    uuid.UUID  `json:"company_id"`
	RoleID       *uuid.UUID `json:"role_id,omitempty"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	IsActive     bool       `json:"is_active"`
	AnonymizedAt *time.Time `json:"anonymized_at,omitempty"`
	Permissions  []string   `json:"permissions,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (u *User) HasPermission(permission string) bool {
	for _, p := range u.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

func (u *User) IsAnonymized() bool {
	return u.AnonymizedAt != nil
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:           u.ID,
		CompanyID:    u.CompanyID,
		RoleID:       u.RoleID,
		Email:        u.Email,
		Name:         u.Name,
		IsActive:     u.IsActive,
		AnonymizedAt: u.AnonymizedAt,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func FromDataModelWithPermissions(u *userDatamodel.User, permissions []string) *User {
	domainUser := FromDataModel(u)
	domainUser.Permissions = permissions
	return domainUser
}

// AnonymizedEmail is unique per user and can never receive mail.
func AnonymizedEmail(id uuid.UUID) string {
	return "anonymized+" + id.String() + "@invalid"
}
