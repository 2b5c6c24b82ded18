package leave_test

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

	"github.com/frahmantamala/gogotime/internal"
	"github.com/frahmantamala/gogotime/internal/auth"
	"github.com/frahmantamala/gogotime/internal/leave"
	"github.com/frahmantamala/gogotime/internal/transport"
)

type stubService struct {
	leave.ServiceAPI
	lastScope  string
	lastStatus string
	decided    string
	decideErr  error
}

func (s *stubService) ListMine(_ context.Context, _ *auth.Principal) ([]*leave.LeaveRequest, error) {
	s.lastScope = "mine"
	return []*leave.LeaveRequest{}, nil
}

func (s *stubService) ListCompany(_ context.Context, _ *auth.Principal, status string) ([]*leave.LeaveRequest, error) {
	s.lastScope = "company"
	s.lastStatus = status
	return []*leave.LeaveRequest{}, nil
}

func (s *stubService) Approve(_ context.Context, _ *auth.Principal, id uuid.UUID, _ leave.DecisionDTO) (*leave.LeaveRequest, error) {
	s.decided = "approve"
	if s.decideErr != nil {
		return nil, s.decideErr
	}
	return &leave.LeaveRequest{ID: id, Status: leave.StatusApproved}, nil
}

func (s *stubService) Reject(_ context.Context, _ *auth.Principal, id uuid.UUID, dto leave.DecisionDTO) (*leave.LeaveRequest, error) {
	s.decided = "reject:" + dto.Reason
	return &leave.LeaveRequest{ID: id, Status: leave.StatusRejected}, nil
}

var _ = Describe("Leave Handler", func() {
	var (
		svc    *stubService
		router *chi.Mux
	)

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		svc = &stubService{}
		h := leave.NewHandler(&transport.BaseHandler{Logger: logger}, svc)
		p := &auth.Principal{ID: uuid.New(), CompanyID: uuid.New()}

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
			})
		})
		router.Get("/leave-requests", h.ListLeaveRequests)
		router.Post("/leave-requests/{id}/approve", h.ApproveLeaveRequest)
		router.Post("/leave-requests/{id}/reject", h.RejectLeaveRequest)
	})

	It("lists the caller's requests by default", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leave-requests", nil))

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(svc.lastScope).To(Equal("mine"))
	})

	It("lists the company's requests with scope=company", func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leave-requests?scope=company&status=pending", nil))

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(svc.lastScope).To(Equal("company"))
		Expect(svc.lastStatus).To(Equal("pending"))
	})

	It("approves without a body", func() {
		id := uuid.New()
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/leave-requests/"+id.String()+"/approve", nil))

		Expect(w.Code).To(Equal(http.StatusOK))
		var resp leave.LeaveRequest
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.ID).To(Equal(id))
	})

	It("passes the rejection reason through", func() {
		body, _ := json.Marshal(leave.DecisionDTO{Reason: "overlaps release"})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/leave-requests/"+uuid.NewString()+"/reject", bytes.NewReader(body)))

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(svc.decided).To(Equal("reject:overlaps release"))
	})

	It("maps an invalid transition to 409", func() {
		svc.decideErr = leave.ErrNotPending
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/leave-requests/"+uuid.NewString()+"/approve", nil))

		Expect(w.Code).To(Equal(http.StatusConflict))
		var resp map[string]map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp["error"]["type"]).To(Equal(string(internal.ErrorTypeInvalidState)))
	})
})
