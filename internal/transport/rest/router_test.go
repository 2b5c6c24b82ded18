package rest_test

import (
	"context"
	"encoding/json"
	"errors"
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
	"github.com/frahmantamala/gogotime/internal/timesheet"
	"github.com/frahmantamala/gogotime/internal/transport"
	"github.com/frahmantamala/gogotime/internal/transport/middleware"
	"github.com/frahmantamala/gogotime/internal/transport/rest"
)

const validToken = "valid-token"

type stubAuthService struct {
	principal *auth.Principal
}

func (s *stubAuthService) Authenticate(context.Context, auth.LoginDTO, auth.ClientMeta) (auth.AuthTokens, error) {
	return auth.AuthTokens{}, internal.ErrInvalidCredentials
}

func (s *stubAuthService) RefreshTokens(context.Context, string) (auth.AuthTokens, error) {
	return auth.AuthTokens{}, internal.ErrInvalidToken
}

func (s *stubAuthService) Logout(context.Context, *auth.Principal) error {
	return nil
}

func (s *stubAuthService) ResolvePrincipal(_ context.Context, token string) (*auth.Principal, error) {
	if token != validToken {
		return nil, internal.ErrInvalidToken
	}
	return s.principal, nil
}

type denyAll struct{}

func (denyAll) Require(context.Context, *auth.Principal, string) error {
	return internal.ErrForbidden
}

func (denyAll) Authorize(context.Context, *auth.Principal, uuid.UUID, string) error {
	return internal.ErrForbidden
}

func (denyAll) Can(context.Context, *auth.Principal, string) (bool, error) {
	return false, nil
}

var _ = Describe("RegisterAllRoutes", func() {
	var (
		router *chi.Mux
		dbErr  error
	)

	BeforeEach(func() {
		dbErr = nil
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		base := transport.NewBaseHandler(logger)
		authSvc := &stubAuthService{principal: &auth.Principal{ID: uuid.New(), CompanyID: uuid.New(), SessionID: uuid.New()}}

		router = chi.NewRouter()
		rest.RegisterAllRoutes(router, rest.Handlers{
			Health: rest.NewHealthHandler(map[string]rest.PingFunc{
				"database": func(context.Context) error { return dbErr },
			}),
			Auth:      auth.NewHandler(base, authSvc),
			Timesheet: timesheet.NewHandler(base, nil),
		}, denyAll{}, rest.Options{
			AllowedOrigins: []string{"https://app.example.com"},
			MetricsPath:    "/metrics",
			Version:        "test",
		}, logger)
	})

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	It("answers ping without a token", func() {
		rec := serve(httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("OK"))
	})

	It("reports 503 when a dependency check fails", func() {
		dbErr = errors.New("connection refused")
		rec := serve(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
		Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))

		var body rest.HealthResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body.Components["database"].Status).To(Equal(rest.HealthUnhealthy))
	})

	It("rejects protected routes without a bearer token", func() {
		rec := serve(httptest.NewRequest(http.MethodGet, "/api/v1/timesheet-entries/approval-queue", nil))
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
	})

	It("gates the approval queue on the approve permission", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/timesheet-entries/approval-queue", nil)
		req.Header.Set("Authorization", "Bearer "+validToken)
		rec := serve(req)
		Expect(rec.Code).To(Equal(http.StatusForbidden))
	})

	It("leaves out routes for handlers that were not provided", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/leave-requests", nil)
		req.Header.Set("Authorization", "Bearer "+validToken)
		Expect(serve(req).Code).To(Equal(http.StatusNotFound))
	})

	It("propagates a trace id", func() {
		rec := serve(httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
		Expect(rec.Header().Values(middleware.TraceIDHeader)).NotTo(BeEmpty())
	})

	It("answers CORS preflight for allowed origins", func() {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/timesheets", nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := serve(req)
		Expect(rec.Header().Get("Access-Control-Allow-Origin")).To(Equal("https://app.example.com"))
	})

	It("serves prometheus metrics", func() {
		serve(httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
		rec := serve(httptest.NewRequest(http.MethodGet, "/metrics", nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("http_requests_total"))
	})

	It("publishes an OpenAPI document of the mounted routes", func() {
		rec := serve(httptest.NewRequest(http.MethodGet, "/openapi.json", nil))
		Expect(rec.Code).To(Equal(http.StatusOK))

		var doc struct {
			Paths map[string]map[string]struct {
				Security []map[string][]string `json:"security"`
			} `json:"paths"`
		}
		Expect(json.Unmarshal(rec.Body.Bytes(), &doc)).To(Succeed())
		Expect(doc.Paths).To(HaveKey("/api/v1/timesheet-entries/{id}/submit"))
		Expect(doc.Paths).To(HaveKey("/api/v1/auth/login"))
		Expect(doc.Paths["/api/v1/auth/login"]["post"].Security).To(BeEmpty())
		Expect(doc.Paths["/api/v1/timesheets"]["get"].Security).NotTo(BeEmpty())
		Expect(doc.Paths).NotTo(HaveKey("/metrics"))
	})
})
