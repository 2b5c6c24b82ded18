package timesheet

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

func (h *Handler) CreateTimesheet(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var dto CreateTimesheetDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	t, err := h.Service.CreateTimesheet(r.Context(), p, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, t)
}

// ListTimesheets returns the caller's timesheets, or another user's with ?user_id=.
func (h *Handler) ListTimesheets(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	userID, ok := h.QueryUUID(w, r, "user_id")
	if !ok {
		return
	}
	list, err := h.Service.ListTimesheets(r.Context(), p, userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, TimesheetsResponse{Timesheets: list})
}

func (h *Handler) GetTimesheet(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	t, err := h.Service.GetTimesheet(r.Context(), p, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var dto CreateEntryDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	e, err := h.Service.CreateEntry(r.Context(), p, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, e)
}

// ListEntries supports ?user_id=, ?timesheet_id=, ?status= and ?scope=company.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	userID, ok := h.QueryUUID(w, r, "user_id")
	if !ok {
		return
	}
	timesheetID, ok := h.QueryUUID(w, r, "timesheet_id")
	if !ok {
		return
	}
	q := r.URL.Query()
	filter := EntryFilter{
		UserID:      userID,
		TimesheetID: timesheetID,
		Status:      Status(q.Get("status")),
		AllUsers:    q.Get("scope") == "company",
	}
	list, err := h.Service.ListEntries(r.Context(), p, filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, EntriesResponse{Entries: list})
}

func (h *Handler) ApprovalQueue(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	list, err := h.Service.ApprovalQueue(r.Context(), p)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, EntriesResponse{Entries: list})
}

func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	e, err := h.Service.GetEntry(r.Context(), p, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	var dto UpdateEntryDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	e, err := h.Service.UpdateEntry(r.Context(), p, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.DeleteEntry(r.Context(), p, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SubmitEntry(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.Submit)
}

func (h *Handler) ApproveEntry(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.Approve)
}

func (h *Handler) InvoiceEntry(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.Invoice)
}

func (h *Handler) RejectEntry(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	var dto RejectDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	e, err := h.Service.Reject(r.Context(), p, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, p *auth.Principal, id uuid.UUID, dto TransitionDTO) (*Entry, error)) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	var dto TransitionDTO
	if r.ContentLength != 0 && !h.DecodeJSON(w, r, &dto) {
		return
	}
	e, err := fn(r.Context(), p, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, e)
}
