package timesheet_test

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

	"github.com/frahmantamala/gogotime/internal/auth"
	"github.com/frahmantamala/gogotime/internal/timesheet"
	"github.com/frahmantamala/gogotime/internal/transport"
)

var _ = Describe("Handler", func() {
	var (
		router   *chi.Mux
		company  uuid.UUID
		owner    *auth.Principal
		approver *auth.Principal
		caller   *auth.Principal
		codeID   uuid.UUID
	)

	do := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		if body != nil {
			var buf bytes.Buffer
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
			req = httptest.NewRequest(method, path, &buf)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	decode := func(w *httptest.ResponseRecorder, v interface{}) {
		Expect(json.Unmarshal(w.Body.Bytes(), v)).To(Succeed())
	}

	BeforeEach(func() {
		company = uuid.New()
		owner = &auth.Principal{ID: uuid.New(), CompanyID: company}
		approver = &auth.Principal{ID: uuid.New(), CompanyID: company}
		caller = owner
		codeID = uuid.New()

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		codes := fakeCodes{codeID: {ID: codeID, CompanyID: company, Code: "DEV", AllowTimeLogging: true}}
		policy := grantPolicy{grants: map[uuid.UUID][]string{
			approver.ID: {auth.PermApproveTimesheetEntry, auth.PermRejectTimesheetEntry},
		}}
		svc := timesheet.NewService(newMemRepo(), codes, fakeUsers{owner.ID: company}, policy, nil, logger)
		h := timesheet.NewHandler(&transport.BaseHandler{Logger: logger}, svc)

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), caller)))
			})
		})
		router.Post("/timesheets", h.CreateTimesheet)
		router.Get("/timesheets", h.ListTimesheets)
		router.Get("/timesheets/{id}", h.GetTimesheet)
		router.Post("/timesheet-entries", h.CreateEntry)
		router.Get("/timesheet-entries", h.ListEntries)
		router.Get("/timesheet-entries/approval-queue", h.ApprovalQueue)
		router.Get("/timesheet-entries/{id}", h.GetEntry)
		router.Put("/timesheet-entries/{id}", h.UpdateEntry)
		router.Delete("/timesheet-entries/{id}", h.DeleteEntry)
		router.Post("/timesheet-entries/{id}/submit", h.SubmitEntry)
		router.Post("/timesheet-entries/{id}/approve", h.ApproveEntry)
		router.Post("/timesheet-entries/{id}/reject", h.RejectEntry)
		router.Post("/timesheet-entries/{id}/invoice", h.InvoiceEntry)
	})

	createSheetAndEntry := func() (timesheet.Timesheet, timesheet.Entry) {
		w := do(http.MethodPost, "/timesheets", map[string]string{"period_start": "2025-05-05", "period_end": "2025-05-11"})
		Expect(w.Code).To(Equal(http.StatusCreated))
		var sheet timesheet.Timesheet
		decode(w, &sheet)

		w = do(http.MethodPost, "/timesheet-entries", map[string]interface{}{
			"timesheet_id":   sheet.ID,
			"action_code_id": codeID,
			"work_date":      "2025-05-06",
			"minutes":        120,
			"description":    "code review",
		})
		Expect(w.Code).To(Equal(http.StatusCreated))
		var entry timesheet.Entry
		decode(w, &entry)
		return sheet, entry
	}

	It("creates a draft entry and shows it on the timesheet", func() {
		sheet, entry := createSheetAndEntry()
		Expect(entry.Status).To(Equal(timesheet.StatusDraft))

		w := do(http.MethodGet, "/timesheets/"+sheet.ID.String(), nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		var got timesheet.Timesheet
		decode(w, &got)
		Expect(got.TotalMinutes).To(Equal(120))
		Expect(got.Entries).To(HaveLen(1))
	})

	It("walks an entry through submit and approve without a body", func() {
		_, entry := createSheetAndEntry()

		w := do(http.MethodPost, "/timesheet-entries/"+entry.ID.String()+"/submit", nil)
		Expect(w.Code).To(Equal(http.StatusOK))

		caller = approver
		w = do(http.MethodGet, "/timesheet-entries/approval-queue", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		var queue timesheet.EntriesResponse
		decode(w, &queue)
		Expect(queue.Entries).To(HaveLen(1))

		w = do(http.MethodPost, "/timesheet-entries/"+entry.ID.String()+"/approve", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		var approved timesheet.Entry
		decode(w, &approved)
		Expect(approved.Status).To(Equal(timesheet.StatusApproved))
	})

	It("answers 409 for a move the workflow does not allow", func() {
		_, entry := createSheetAndEntry()
		caller = approver
		w := do(http.MethodPost, "/timesheet-entries/"+entry.ID.String()+"/approve", nil)
		Expect(w.Code).To(Equal(http.StatusConflict))

		var body map[string]map[string]interface{}
		decode(w, &body)
		Expect(body["error"]["code"]).To(Equal("INVALID_TRANSITION"))
	})

	It("answers 409 for a stale version on update", func() {
		_, entry := createSheetAndEntry()
		w := do(http.MethodPut, "/timesheet-entries/"+entry.ID.String(), map[string]interface{}{"minutes": 30, "version": entry.Version})
		Expect(w.Code).To(Equal(http.StatusOK))

		w = do(http.MethodPut, "/timesheet-entries/"+entry.ID.String(), map[string]interface{}{"minutes": 15, "version": entry.Version})
		Expect(w.Code).To(Equal(http.StatusConflict))
	})

	It("requires a reason to reject", func() {
		_, entry := createSheetAndEntry()
		Expect(do(http.MethodPost, "/timesheet-entries/"+entry.ID.String()+"/submit", nil).Code).To(Equal(http.StatusOK))

		caller = approver
		w := do(http.MethodPost, "/timesheet-entries/"+entry.ID.String()+"/reject", map[string]string{})
		Expect(w.Code).To(Equal(http.StatusUnprocessableEntity))

		w = do(http.MethodPost, "/timesheet-entries/"+entry.ID.String()+"/reject", map[string]string{"reason": "wrong project"})
		Expect(w.Code).To(Equal(http.StatusOK))
	})

	It("deletes drafts with 204", func() {
		_, entry := createSheetAndEntry()
		Expect(do(http.MethodDelete, "/timesheet-entries/"+entry.ID.String(), nil).Code).To(Equal(http.StatusNoContent))
		Expect(do(http.MethodGet, "/timesheet-entries/"+entry.ID.String(), nil).Code).To(Equal(http.StatusNotFound))
	})

	It("rejects malformed ids and filters", func() {
		Expect(do(http.MethodGet, "/timesheet-entries/nope", nil).Code).To(Equal(http.StatusBadRequest))
		Expect(do(http.MethodGet, "/timesheet-entries?user_id=nope", nil).Code).To(Equal(http.StatusBadRequest))
	})

	It("forbids company-wide listing without view_other_timesheet_entry", func() {
		Expect(do(http.MethodGet, "/timesheet-entries?scope=company", nil).Code).To(Equal(http.StatusForbidden))
	})

	It("refuses unknown fields", func() {
		w := do(http.MethodPost, "/timesheets", map[string]string{"period_start": "2025-05-05", "period_end": "2025-05-11", "color": "red"})
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})
})
