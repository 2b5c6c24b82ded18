package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/frahmantamala/gogotime/internal/actioncode"
	"github.com/frahmantamala/gogotime/internal/auth"
	"github.com/frahmantamala/gogotime/internal/leave"
	"github.com/frahmantamala/gogotime/internal/permission"
	"github.com/frahmantamala/gogotime/internal/session"
	"github.com/frahmantamala/gogotime/internal/timesheet"
	"github.com/frahmantamala/gogotime/internal/transport"
	"github.com/frahmantamala/gogotime/internal/transport/middleware"
	"github.com/frahmantamala/gogotime/internal/transport/openapi"
	"github.com/frahmantamala/gogotime/internal/transport/swagger"
	"github.com/frahmantamala/gogotime/internal/user"
)

const openAPIPath = "/openapi.json"

// Handlers groups everything the router mounts. A nil handler leaves its
// routes out.
type Handlers struct {
	Health     *HealthHandler
	Auth       *auth.Handler
	User       *user.Handler
	Permission *permission.Handler
	Leave      *leave.Handler
	Timesheet  *timesheet.Handler
	ActionCode *actioncode.Handler
	Session    *session.Handler
}

type Options struct {
	AllowedOrigins []string
	MetricsPath    string
	Version        string
}

// RegisterAllRoutes mounts the API under /api/v1 plus metrics and docs.
func RegisterAllRoutes(router *chi.Mux, h Handlers, policy auth.Policy, opts Options, logger *slog.Logger) {
	base := transport.NewBaseHandler(logger)

	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.Metrics)

	if opts.MetricsPath != "" {
		router.Handle(opts.MetricsPath, promhttp.Handler())
	}

	// Mount API under /api/v1
	router.Route("/api/v1", func(r chi.Router) {
		if h.Health != nil {
			r.Get("/health", h.Health.Health)
			r.Get("/ping", h.Health.Ping)
		}

		if h.Auth == nil {
			return
		}
		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
			sr.With(h.Auth.AuthMiddleware, middleware.UserContext).Post("/logout", h.Auth.Logout)
		})

		// Protected routes that require authentication
		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)
			pr.Use(middleware.UserContext)

			if h.User != nil {
				pr.Get("/users/me", h.User.GetCurrentUser)
				pr.Get("/users", h.User.ListUsers)
				pr.Get("/users/{id}", h.User.GetUser)
				pr.Put("/users/{id}/role", h.User.AssignRole)
				pr.Delete("/anonymization/{userId}", h.User.Anonymize)
			}

			if h.Permission != nil {
				pr.Route("/permissions", func(sr chi.Router) {
					sr.Post("/", h.Permission.CreatePermission)
					sr.Get("/", h.Permission.ListPermissions)
					sr.Get("/{id}", h.Permission.GetPermission)
					sr.Put("/{id}", h.Permission.UpdatePermission)
					sr.Delete("/{id}", h.Permission.DeletePermission)
				})
				pr.Route("/roles", func(sr chi.Router) {
					sr.Post("/", h.Permission.CreateRole)
					sr.Get("/", h.Permission.ListRoles)
					sr.Get("/{id}", h.Permission.GetRole)
					sr.Delete("/{id}", h.Permission.DeleteRole)
					sr.Get("/{id}/permissions", h.Permission.ListRolePermissions)
				})
				pr.Post("/role-permissions", h.Permission.CreateRolePermission)
				pr.Delete("/role-permissions/{id}", h.Permission.DeleteRolePermission)
			}

			if h.Leave != nil {
				pr.Route("/leave-requests", func(sr chi.Router) {
					sr.Post("/", h.Leave.CreateLeaveRequest)
					sr.Get("/", h.Leave.ListLeaveRequests)
					sr.Get("/{id}", h.Leave.GetLeaveRequest)
					sr.Put("/{id}", h.Leave.UpdateLeaveRequest)
					sr.Delete("/{id}", h.Leave.DeleteLeaveRequest)
					sr.Post("/{id}/approve", h.Leave.ApproveLeaveRequest)
					sr.Post("/{id}/reject", h.Leave.RejectLeaveRequest)
				})
			}

			if h.Timesheet != nil {
				pr.Route("/timesheets", func(sr chi.Router) {
					sr.Post("/", h.Timesheet.CreateTimesheet)
					sr.Get("/", h.Timesheet.ListTimesheets)
					sr.Get("/{id}", h.Timesheet.GetTimesheet)
				})
				pr.Route("/timesheet-entries", func(sr chi.Router) {
					sr.Post("/", h.Timesheet.CreateEntry)
					sr.Get("/", h.Timesheet.ListEntries)
					sr.With(middleware.RequirePermission(policy, base, auth.PermApproveTimesheetEntry)).
						Get("/approval-queue", h.Timesheet.ApprovalQueue)
					sr.Get("/{id}", h.Timesheet.GetEntry)
					sr.Put("/{id}", h.Timesheet.UpdateEntry)
					sr.Delete("/{id}", h.Timesheet.DeleteEntry)
					sr.Post("/{id}/submit", h.Timesheet.SubmitEntry)
					sr.Post("/{id}/approve", h.Timesheet.ApproveEntry)
					sr.Post("/{id}/reject", h.Timesheet.RejectEntry)
					sr.Post("/{id}/invoice", h.Timesheet.InvoiceEntry)
				})
			}

			if h.ActionCode != nil {
				pr.Route("/action-code-categories", func(sr chi.Router) {
					sr.Post("/", h.ActionCode.CreateCategory)
					sr.Get("/", h.ActionCode.ListCategories)
					sr.Delete("/{id}", h.ActionCode.DeleteCategory)
				})
				pr.Route("/action-codes", func(sr chi.Router) {
					sr.Post("/", h.ActionCode.CreateActionCode)
					sr.Get("/", h.ActionCode.ListActionCodes)
					sr.Get("/{id}", h.ActionCode.GetActionCode)
					sr.Put("/{id}", h.ActionCode.UpdateActionCode)
					sr.Put("/{id}/time-logging", h.ActionCode.SetTimeLogging)
					sr.Delete("/{id}", h.ActionCode.DeleteActionCode)
				})
			}

			if h.Session != nil {
				pr.Get("/sessions", h.Session.ListSessions)
				pr.Delete("/sessions/{id}", h.Session.RevokeSession)
			}
		})
	})

	skip := []string{openAPIPath, "/swagger"}
	if opts.MetricsPath != "" {
		skip = append(skip, opts.MetricsPath)
	}
	docs := openapi.NewHandler(router, openapi.Options{
		Title:   "GoGoTime API",
		Version: opts.Version,
		Public: []string{
			"GET /api/v1/health",
			"GET /api/v1/ping",
			"POST /api/v1/auth/login",
			"POST /api/v1/auth/refresh",
		},
		Summaries: map[string]string{
			"DELETE /api/v1/anonymization/{userId}":               "Irreversibly anonymize a user",
			"POST /api/v1/timesheet-entries/{id}/submit":          "Submit a draft entry for approval",
			"GET /api/v1/timesheet-entries/approval-queue":        "List submitted entries awaiting approval",
			"PUT /api/v1/action-codes/{id}/time-logging":          "Allow or block time logging on an action code",
			"GET /api/v1/roles/{id}/permissions":                  "List permissions granted to a role",
		},
		Skip: skip,
	}, logger)
	router.Method(http.MethodGet, openAPIPath, docs)
	router.Handle("/swagger/*", swagger.Handler(openAPIPath))
}
