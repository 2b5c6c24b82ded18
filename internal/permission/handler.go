package permission

import (
	"net/http"

	"github.com/frahmantamala/gogotime/internal"
	"github.com/frahmantamala/gogotime/internal/auth"
	"github.com/frahmantamala/gogotime/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
	Permissions ServiceAPI
	Roles       RoleServiceAPI
	Grants      GrantServiceAPI
}

func NewHandler(base *transport.BaseHandler, permissions ServiceAPI, roles RoleServiceAPI, grants GrantServiceAPI) *Handler {
	return &Handler{
		BaseHandler: base,
		Permissions: permissions,
		Roles:       roles,
		Grants:      grants,
	}
}

func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (*auth.Principal, bool) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.HandleError(w, internal.ErrInvalidToken)
	}
	return p, ok
}

func (h *Handler) CreatePermission(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var dto CreatePermissionDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	perm, err := h.Permissions.Create(r.Context(), p, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, perm)
}

func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	perms, err := h.Permissions.List(r.Context(), p)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, PermissionsResponse{Permissions: perms})
}

func (h *Handler) GetPermission(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	perm, err := h.Permissions.Get(r.Context(), p, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, perm)
}

func (h *Handler) UpdatePermission(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	var dto UpdatePermissionDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	perm, err := h.Permissions.Update(r.Context(), p, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, perm)
}

func (h *Handler) DeletePermission(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Permissions.Delete(r.Context(), p, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var dto CreateRoleDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	role, err := h.Roles.Create(r.Context(), p, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, role)
}

func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	roles, err := h.Roles.List(r.Context(), p)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, RolesResponse{Roles: roles})
}

func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	role, err := h.Roles.Get(r.Context(), p, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, role)
}

func (h *Handler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Roles.Delete(r.Context(), p, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListRolePermissions(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	roleID, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	grants, err := h.Grants.ListForRole(r.Context(), p, roleID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, GrantsResponse{Grants: grants})
}

func (h *Handler) CreateRolePermission(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var dto GrantDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	grant, err := h.Grants.Grant(r.Context(), p, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, grant)
}

func (h *Handler) DeleteRolePermission(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Grants.Revoke(r.Context(), p, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
