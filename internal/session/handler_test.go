package session_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/go-chi/chi"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/gogotime/internal"
	"github.com/frahmantamala/gogotime/internal/auth"
	"github.com/frahmantamala/gogotime/internal/session"
	"github.com/frahmantamala/gogotime/internal/transport"
)

type stubService struct {
	session.ServiceAPI
	revoked   uuid.UUID
	revokeErr error
	listed    *auth.Principal
}

func (s *stubService) ListMine(_ context.Context, p *auth.Principal) ([]*session.Session, error) {
	s.listed = p
	return []*session.Session{{ID: p.SessionID, UserID: p.ID, Current: true}}, nil
}

func (s *stubService) Revoke(_ context.Context, _ *auth.Principal, id uuid.UUID) error {
	s.revoked = id
	return s.revokeErr
}

var _ = Describe("Handler", func() {
	var (
		svc    *stubService
		router *chi.Mux
		caller *auth.Principal
	)

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		svc = &stubService{}
		caller = &auth.Principal{ID: uuid.New(), CompanyID: uuid.New(), SessionID: uuid.New()}
		h := session.NewHandler(&transport.BaseHandler{Logger: logger}, svc)

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if caller != nil {
					r = r.WithContext(auth.WithPrincipal(r.Context(), caller))
				}
				next.ServeHTTP(w, r)
			})
		})
		router.Get("/sessions", h.ListSessions)
		router.Delete("/sessions/{id}", h.RevokeSession)
	})

	It("lists the caller's sessions", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sessions", nil))
		Expect(w.Code).To(Equal(http.StatusOK))

		var body session.SessionsResponse
		Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
		Expect(body.Sessions).To(HaveLen(1))
		Expect(body.Sessions[0].Current).To(BeTrue())
		Expect(svc.listed).To(Equal(caller))
	})

	It("revokes with 204", func() {
		id := uuid.New()
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/sessions/"+id.String(), nil))
		Expect(w.Code).To(Equal(http.StatusNoContent))
		Expect(svc.revoked).To(Equal(id))
	})

	It("maps a forbidden revoke to 403", func() {
		svc.revokeErr = internal.ErrForbidden
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/sessions/"+uuid.NewString(), nil))
		Expect(w.Code).To(Equal(http.StatusForbidden))
	})

	It("answers 401 without a principal", func() {
		caller = nil
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sessions", nil))
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})
})
