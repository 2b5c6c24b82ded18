package user

import "github.com/google/uuid"

// AssignRoleDTO sets or clears a user's role. A null role_id leaves the
// user with owner-only rights.
type AssignRoleDTO struct {
	RoleID *uuid.UUID `json:"role_id"`
}

type UsersResponse struct {
	Users []*User `json:"users"`
}

type AnonymizeResponse struct {
	User            *User `json:"user"`
	RevokedSessions int   `json:"revoked_sessions"`
}
