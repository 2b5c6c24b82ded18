package user_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	"github.com/go-chi/chi"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/gogotime/internal/auth"
	"github.com/frahmantamala/gogotime/internal/transport"
	"github.com/frahmantamala/gogotime/internal/user"
)

type stubService struct {
	user.ServiceAPI
	anonymizeErr error
	assigned     *uuid.UUID
}

func (s *stubService) GetMe(_ context.Context, p *auth.Principal) (*user.User, error) {
	return &user.User{ID: p.ID, Email: p.Email, Permissions: []string{auth.PermApproveTimesheetEntry}}, nil
}

func (s *stubService) AssignRole(_ context.Context, _ *auth.Principal, id uuid.UUID, dto user.AssignRoleDTO) (*user.User, error) {
	s.assigned = dto.RoleID
	return &user.User{ID: id, RoleID: dto.RoleID}, nil
}

func (s *stubService) Anonymize(_ context.Context, _ *auth.Principal, id uuid.UUID) (*user.AnonymizeResponse, error) {
	if s.anonymizeErr != nil {
		return nil, s.anonymizeErr
	}
	return &user.AnonymizeResponse{User: &user.User{ID: id, Email: user.AnonymizedEmail(id)}, RevokedSessions: 2}, nil
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
		caller = &auth.Principal{ID: uuid.New(), CompanyID: uuid.New(), Email: "me@a.test"}
		h := user.NewHandler(&transport.BaseHandler{Logger: logger}, svc)

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), caller)))
			})
		})
		router.Get("/users/me", h.GetCurrentUser)
		router.Put("/users/{id}/role", h.AssignRole)
		router.Delete("/anonymization/{userId}", h.Anonymize)
	})

	It("returns the current user with permission names", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/me", nil))
		Expect(w.Code).To(Equal(http.StatusOK))

		var got user.User
		Expect(json.Unmarshal(w.Body.Bytes(), &got)).To(Succeed())
		Expect(got.ID).To(Equal(caller.ID))
		Expect(got.HasPermission(auth.PermApproveTimesheetEntry)).To(BeTrue())
	})

	It("clears a role with a null role_id", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/users/"+uuid.NewString()+"/role", strings.NewReader(`{"role_id":null}`)))
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(svc.assigned).To(BeNil())
	})

	It("anonymizes by path id", func() {
		id := uuid.New()
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/anonymization/"+id.String(), nil))
		Expect(w.Code).To(Equal(http.StatusOK))

		var got user.AnonymizeResponse
		Expect(json.Unmarshal(w.Body.Bytes(), &got)).To(Succeed())
		Expect(got.User.Email).To(Equal("anonymized+" + id.String() + "@invalid"))
		Expect(got.RevokedSessions).To(Equal(2))
	})

	It("answers 409 on a second anonymization", func() {
		svc.anonymizeErr = user.ErrAlreadyAnonymized
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/anonymization/"+uuid.NewString(), nil))
		Expect(w.Code).To(Equal(http.StatusConflict))
	})

	It("rejects a malformed user id", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/anonymization/42", nil))
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})
})
