package permission_test

import (
	"bytes"
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

	"github.com/frahmantamala/gogotime/internal/auth"
	"github.com/frahmantamala/gogotime/internal/core/datamodel/rbac"
	"github.com/frahmantamala/gogotime/internal/permission"
	"github.com/frahmantamala/gogotime/internal/transport"
)

var _ = Describe("Permission Handler", func() {
	var (
		repo   *mockPermissionRepository
		policy *fakePolicy
		router *chi.Mux
		admin  *auth.Principal
		actor  *auth.Principal
	)

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		repo = newMockPermissionRepository()
		policy = newFakePolicy()
		svc := permission.NewService(repo, policy, logger)
		handler := permission.NewHandler(&transport.BaseHandler{Logger: logger}, svc, nil, nil)

		admin = &auth.Principal{ID: uuid.New(), CompanyID: uuid.New()}
		policy.grant(admin.ID, auth.PermCreatePermission, auth.PermDeletePermission)
		actor = admin

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if actor != nil {
					r = r.WithContext(auth.WithPrincipal(r.Context(), actor))
				}
				next.ServeHTTP(w, r)
			})
		})
		router.Post("/permissions", handler.CreatePermission)
		router.Get("/permissions", handler.ListPermissions)
		router.Get("/permissions/{id}", handler.GetPermission)
		router.Delete("/permissions/{id}", handler.DeletePermission)
	})

	do := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("should create a permission and return 201", func() {
		w := do(http.MethodPost, "/permissions", map[string]string{"name": "approve_leave_request"})

		Expect(w.Code).To(Equal(http.StatusCreated))
		var resp permission.Permission
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Name).To(Equal("approve_leave_request"))
		Expect(resp.CompanyID).To(Equal(admin.CompanyID))
	})

	It("should return 422 with field details for an invalid body", func() {
		w := do(http.MethodPost, "/permissions", map[string]string{"name": ""})

		Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
		var resp map[string]map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp["error"]["type"]).To(Equal("VALIDATION_ERROR"))
		Expect(resp["error"]["details"]).NotTo(BeNil())
	})

	It("should return 400 for unknown fields", func() {
		w := do(http.MethodPost, "/permissions", map[string]string{"name": "x", "bogus": "y"})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("should return 403 without the capability", func() {
		actor = &auth.Principal{ID: uuid.New(), CompanyID: admin.CompanyID}

		w := do(http.MethodPost, "/permissions", map[string]string{"name": "approve_leave_request"})
		Expect(w.Code).To(Equal(http.StatusForbidden))
	})

	It("should return 401 without a principal", func() {
		actor = nil

		w := do(http.MethodGet, "/permissions", nil)
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	It("should return 404 for another company's permission", func() {
		foreign := &rbac.Permission{ID: uuid.New(), CompanyID: uuid.New(), Name: "view_other_user"}
		Expect(repo.Create(context.Background(), foreign)).To(Succeed())

		w := do(http.MethodGet, "/permissions/"+foreign.ID.String(), nil)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("should return 400 for a malformed id", func() {
		w := do(http.MethodGet, "/permissions/not-a-uuid", nil)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("should delete and return 204", func() {
		w := do(http.MethodPost, "/permissions", map[string]string{"name": "approve_leave_request"})
		var created permission.Permission
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())

		w = do(http.MethodDelete, "/permissions/"+created.ID.String(), nil)
		Expect(w.Code).To(Equal(http.StatusNoContent))

		w = do(http.MethodGet, "/permissions", nil)
		var list permission.PermissionsResponse
		Expect(json.NewDecoder(w.Body).Decode(&list)).To(Succeed())
		Expect(list.Permissions).To(BeEmpty())
	})
})
