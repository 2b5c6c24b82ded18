package actioncode_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/go-chi/chi"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/frahmantamala/gogotime/internal/actioncode"
	actionCodePostgres "github.com/frahmantamala/gogotime/internal/actioncode/postgres"
	"github.com/frahmantamala/gogotime/internal/auth"
	actionCodeDatamodel "github.com/frahmantamala/gogotime/internal/core/datamodel/actioncode"
	"github.com/frahmantamala/gogotime/internal/transport"
)

var _ = Describe("Action Code Handler Integration", func() {
	var (
		db      *gorm.DB
		router  *chi.Mux
		manager *auth.Principal
		member  *auth.Principal
		actor   *auth.Principal
	)

	BeforeEach(func() {
		var err error
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(&actionCodeDatamodel.Category{}, &actionCodeDatamodel.ActionCode{})).To(Succeed())

		company := uuid.New()
		manager = &auth.Principal{ID: uuid.New(), CompanyID: company}
		member = &auth.Principal{ID: uuid.New(), CompanyID: company}
		actor = manager

		service := actioncode.NewService(
			actionCodePostgres.NewActionCodeRepository(db),
			actionCodePostgres.NewCategoryRepository(db),
			staticPolicy{managers: map[uuid.UUID]bool{manager.ID: true}},
			slogger,
		)
		handler := actioncode.NewHandler(&transport.BaseHandler{Logger: slogger}, service)

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), actor)))
			})
		})
		router.Post("/action-code-categories", handler.CreateCategory)
		router.Get("/action-code-categories", handler.ListCategories)
		router.Delete("/action-code-categories/{id}", handler.DeleteCategory)
		router.Post("/action-codes", handler.CreateActionCode)
		router.Get("/action-codes", handler.ListActionCodes)
		router.Get("/action-codes/{id}", handler.GetActionCode)
		router.Put("/action-codes/{id}/time-logging", handler.SetTimeLogging)
	})

	do := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(method, path, &buf))
		return w
	}

	createCategory := func(name string) actioncode.Category {
		w := do(http.MethodPost, "/action-code-categories", map[string]string{"name": name})
		Expect(w.Code).To(Equal(http.StatusCreated))
		var cat actioncode.Category
		Expect(json.NewDecoder(w.Body).Decode(&cat)).To(Succeed())
		return cat
	}

	It("should create a code that accepts time by default", func() {
		cat := createCategory("Development")

		w := do(http.MethodPost, "/action-codes", map[string]interface{}{
			"code": "dev-01", "name": "Feature work", "category_id": cat.ID,
		})
		Expect(w.Code).To(Equal(http.StatusCreated))

		var code actioncode.ActionCode
		Expect(json.NewDecoder(w.Body).Decode(&code)).To(Succeed())
		Expect(code.Code).To(Equal("DEV-01"))
		Expect(code.AllowTimeLogging).To(BeTrue())
		Expect(*code.CategoryID).To(Equal(cat.ID))
	})

	It("should refuse a duplicate category name", func() {
		createCategory("Support")

		w := do(http.MethodPost, "/action-code-categories", map[string]string{"name": "Support"})
		Expect(w.Code).To(Equal(http.StatusConflict))
	})

	It("should forbid members without manage_action_codes but let them list", func() {
		createCategory("Support")
		actor = member

		w := do(http.MethodPost, "/action-code-categories", map[string]string{"name": "Other"})
		Expect(w.Code).To(Equal(http.StatusForbidden))

		w = do(http.MethodGet, "/action-code-categories", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		var resp actioncode.CategoriesResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Categories).To(HaveLen(1))
	})

	It("should close a code for time logging", func() {
		w := do(http.MethodPost, "/action-codes", map[string]interface{}{"code": "ADM", "name": "Admin"})
		var code actioncode.ActionCode
		Expect(json.NewDecoder(w.Body).Decode(&code)).To(Succeed())

		w = do(http.MethodPut, "/action-codes/"+code.ID.String()+"/time-logging", map[string]bool{"allow": false})
		Expect(w.Code).To(Equal(http.StatusOK))

		w = do(http.MethodGet, "/action-codes/"+code.ID.String(), nil)
		var reloaded actioncode.ActionCode
		Expect(json.NewDecoder(w.Body).Decode(&reloaded)).To(Succeed())
		Expect(reloaded.AllowTimeLogging).To(BeFalse())
	})

	It("should require the allow flag", func() {
		w := do(http.MethodPost, "/action-codes", map[string]interface{}{"code": "ADM", "name": "Admin"})
		var code actioncode.ActionCode
		Expect(json.NewDecoder(w.Body).Decode(&code)).To(Succeed())

		w = do(http.MethodPut, "/action-codes/"+code.ID.String()+"/time-logging", map[string]interface{}{})
		Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))
	})

	It("should detach codes when their category is deleted", func() {
		cat := createCategory("Temporary")
		w := do(http.MethodPost, "/action-codes", map[string]interface{}{"code": "TMP", "name": "Temp", "category_id": cat.ID})
		Expect(w.Code).To(Equal(http.StatusCreated))

		w = do(http.MethodDelete, "/action-code-categories/"+cat.ID.String(), nil)
		Expect(w.Code).To(Equal(http.StatusNoContent))

		w = do(http.MethodGet, "/action-codes", nil)
		var resp actioncode.ActionCodesResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.ActionCodes).To(HaveLen(1))
		Expect(resp.ActionCodes[0].CategoryID).To(BeNil())
	})

	It("should filter codes by category", func() {
		dev := createCategory("Development")
		do(http.MethodPost, "/action-codes", map[string]interface{}{"code": "DEV", "name": "Dev", "category_id": dev.ID})
		do(http.MethodPost, "/action-codes", map[string]interface{}{"code": "OPS", "name": "Ops"})

		w := do(http.MethodGet, "/action-codes?category_id="+dev.ID.String(), nil)
		var resp actioncode.ActionCodesResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.ActionCodes).To(HaveLen(1))
		Expect(resp.ActionCodes[0].Code).To(Equal("DEV"))
	})
})
