package auth

import (
	"net/http"

	"github.com/frahmantamala/gogotime/internal"
	"github.com/frahmantamala/gogotime/internal/transport"
	"github.com/frahmantamala/gogotime/pkg/logger"
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

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	tokens, err := h.Service.Authenticate(r.Context(), dto, ClientMeta{
		IPAddress: transport.ClientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	tokens, err := h.Service.RefreshTokens(r.Context(), dto.RefreshToken)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.HandleError(w, internal.ErrInvalidToken)
		return
	}

	if err := h.Service.Logout(r.Context(), p); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AuthMiddleware resolves the bearer token into a Principal and stores it on
// the request context together with a request scoped logger.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.HandleError(w, internal.NewUnauthorizedError("missing authorization token", internal.ErrCodeInvalidToken))
			return
		}

		p, err := h.Service.ResolvePrincipal(r.Context(), token)
		if err != nil {
			h.Logger.Debug("auth middleware: token rejected", "error", err)
			h.HandleServiceError(w, err)
			return
		}

		ctx := WithPrincipal(r.Context(), p)
		ctx = internal.ContextWithActor(ctx, p.ID.String(), p.CompanyID.String())
		ctx = logger.With(ctx, "user_id", p.ID.String(), "company_id", p.CompanyID.String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
