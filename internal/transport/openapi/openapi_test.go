package openapi_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/gogotime/internal/transport/openapi"
)

var _ = Describe("OpenAPI", func() {
	var (
		router *chi.Mux
		opts   openapi.Options
	)

	noop := func(w http.ResponseWriter, r *http.Request) {}

	BeforeEach(func() {
		router = chi.NewRouter()
		router.Handle("/swagger/*", http.HandlerFunc(noop))
		router.Route("/api/v1", func(r chi.Router) {
			r.Get("/ping", noop)
			r.Post("/auth/login", noop)
			r.Route("/timesheet-entries", func(er chi.Router) {
				er.Post("/", noop)
				er.Get("/{id}", noop)
				er.Post("/{id}/approve", noop)
			})
			r.Get("/internal/debug", noop)
		})
		opts = openapi.Options{
			Title:     "GoGoTime API",
			Version:   "1.0.0",
			Public:    []string{"GET /api/v1/ping", "POST /api/v1/auth/login"},
			Summaries: map[string]string{"POST /api/v1/timesheet-entries/{id}/approve": "Approve an entry"},
			Skip:      []string{"/api/v1/internal"},
		}
	})

	Describe("Build", func() {
		It("should describe every mounted route and pass validation", func() {
			doc, err := openapi.Build(context.Background(), router, opts)
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.Validate(context.Background())).To(Succeed())

			Expect(doc.Paths.Value("/api/v1/timesheet-entries")).NotTo(BeNil())
			Expect(doc.Paths.Value("/swagger/*")).To(BeNil())
			Expect(doc.Paths.Value("/api/v1/internal/debug")).To(BeNil())

			approve := doc.Paths.Value("/api/v1/timesheet-entries/{id}/approve").Post
			Expect(approve).NotTo(BeNil())
			Expect(approve.Summary).To(Equal("Approve an entry"))
			Expect(approve.Parameters).To(HaveLen(1))
			Expect(approve.Parameters[0].Value.Name).To(Equal("id"))
			Expect(approve.Security).NotTo(BeNil())
		})

		It("should leave public routes without security", func() {
			doc, err := openapi.Build(context.Background(), router, opts)
			Expect(err).NotTo(HaveOccurred())

			login := doc.Paths.Value("/api/v1/auth/login").Post
			Expect(login).NotTo(BeNil())
			Expect(login.Security).To(BeNil())
		})
	})

	Describe("Handler", func() {
		It("should serve the document as JSON", func() {
			logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
			h := openapi.NewHandler(router, opts, logger)

			for i := 0; i < 2; i++ {
				rec := httptest.NewRecorder()
				h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))
				Expect(rec.Code).To(Equal(http.StatusOK))

				var body map[string]interface{}
				Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
				Expect(body["openapi"]).To(Equal("3.0.3"))
				Expect(body["paths"]).To(HaveKey("/api/v1/ping"))
			}
		})
	})
})
