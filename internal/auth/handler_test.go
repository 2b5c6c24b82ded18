package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/gogotime/internal/transport"
)

var _ = ginkgo.Describe("Auth Handler", func() {
	var (
		handler  *Handler
		service  *Service
		sessions *mockSessionTracker
	)

	ginkgo.BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		sessions = newMockSessionTracker()
		tokenGen := NewJWTTokenGenerator("handler-access-secret-0123456789abcd", "handler-refresh-secret-0123456789abc", time.Minute, time.Hour)
		service = NewService(newMockCredentialRepository(uuid.New()), tokenGen, sessions, logger)
		handler = NewHandler(transport.NewBaseHandler(logger), service)
	})

	login := func() AuthTokens {
		body, _ := json.Marshal(LoginDTO{Email: "user@example.com", Password: "correct_password"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		handler.Login(rec, req)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))

		var tokens AuthTokens
		gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &tokens)).To(gomega.Succeed())
		return tokens
	}

	ginkgo.It("returns 401 for bad credentials", func() {
		body, _ := json.Marshal(LoginDTO{Email: "user@example.com", Password: "wrong"})
		rec := httptest.NewRecorder()
		handler.Login(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body)))
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
	})

	ginkgo.It("returns 400 for an unreadable body", func() {
		rec := httptest.NewRecorder()
		handler.Login(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString("{")))
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
	})

	ginkgo.Describe("AuthMiddleware", func() {
		var protected http.Handler
		var seen *Principal

		ginkgo.BeforeEach(func() {
			seen = nil
			protected = handler.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = PrincipalFromContext(r.Context())
				w.WriteHeader(http.StatusNoContent)
			}))
		})

		ginkgo.It("rejects requests without a bearer token", func() {
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil))
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(seen).To(gomega.BeNil())
		})

		ginkgo.It("stores the principal for valid tokens", func() {
			tokens := login()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
			req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusNoContent))
			gomega.Expect(seen).ToNot(gomega.BeNil())
			gomega.Expect(seen.Email).To(gomega.Equal("user@example.com"))
		})

		ginkgo.It("rejects tokens whose session was ended", func() {
			tokens := login()
			p, err := service.ResolvePrincipal(context.Background(), tokens.AccessToken)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(sessions.End(context.Background(), p.SessionID)).To(gomega.Succeed())

			req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
			req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
		})
	})
})
