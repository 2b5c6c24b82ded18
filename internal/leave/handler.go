package leave

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/frahmantamala/gogotime/internal"
	"github.com/frahmantamala/gogotime/internal/auth"
	"github.com/frahmantamala/gogotime/internal/transport"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(base *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: base,
		Service:     svc,
	}
}

func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (*auth.Principal, bool) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.HandleError(w, internal.ErrInvalidToken)
	}
	return p, ok
}

func (h *Handler) CreateLeaveRequest(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var dto CreateLeaveRequestDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	lr, err := h.Service.Create(r.Context(), p, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, lr)
}

// ListLeaveRequests returns the caller's requests, or the company's with
// ?scope=company.
func (h *Handler) ListLeaveRequests(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var (
		list []*LeaveRequest
		err  error
	)
	if r.URL.Query().Get("scope") == "company" {
		list, err = h.Service.ListCompany(r.Context(), p, r.URL.Query().Get("status"))
	} else {
		list, err = h.Service.ListMine(r.Context(), p)
	}
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, LeaveRequestsResponse{LeaveRequests: list})
}

func (h *Handler) GetLeaveRequest(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	lr, err := h.Service.Get(r.Context(), p, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, lr)
}

func (h *Handler) UpdateLeaveRequest(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	var dto UpdateLeaveRequestDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	lr, err := h.Service.Update(r.Context(), p, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, lr)
}

func (h *Handler) DeleteLeaveRequest(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.Delete(r.Context(), p, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ApproveLeaveRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.Approve)
}

func (h *Handler) RejectLeaveRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.Reject)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, p *auth.Principal, id uuid.UUID, dto DecisionDTO) (*LeaveRequest, error)) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	var dto DecisionDTO
	if r.ContentLength != 0 && !h.DecodeJSON(w, r, &dto) {
		return
	}
	lr, err := fn(r.Context(), p, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, lr)
}
