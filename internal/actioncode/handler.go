package actioncode

import (
	"net/http"

	"github.com/frahmantamala/gogotime/internal"
	"github.com/frahmantamala/gogotime/internal/auth"
	"github.com/frahmantamala/gogotime/internal/core/common/validation"
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

func (h *Handler) CreateActionCode(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var dto CreateActionCodeDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	code, err := h.Service.Create(r.Context(), p, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, code)
}

func (h *Handler) ListActionCodes(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	categoryID, ok := h.QueryUUID(w, r, "category_id")
	if !ok {
		return
	}
	codes, err := h.Service.List(r.Context(), p, categoryID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ActionCodesResponse{ActionCodes: codes})
}

func (h *Handler) GetActionCode(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	code, err := h.Service.Get(r.Context(), p, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, code)
}

func (h *Handler) UpdateActionCode(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	var dto UpdateActionCodeDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	code, err := h.Service.Update(r.Context(), p, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, code)
}

func (h *Handler) SetTimeLogging(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	var dto TimeLoggingDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	if appErr := validation.Struct(dto); appErr != nil {
		h.HandleError(w, appErr)
		return
	}
	code, err := h.Service.SetTimeLogging(r.Context(), p, id, *dto.Allow)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, code)
}

func (h *Handler) DeleteActionCode(w http.ResponseWriter, r *http.Request) {
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

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var dto CreateCategoryDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}
	cat, err := h.Service.CreateCategory(r.Context(), p, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, cat)
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	cats, err := h.Service.ListCategories(r.Context(), p)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, CategoriesResponse{Categories: cats})
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.DeleteCategory(r.Context(), p, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
