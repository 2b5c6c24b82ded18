// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gogotime"

// AuthorizationDecisionsTotal counts authorization outcomes.
// Labels:
//   - permission: capability key checked, or "owner" for the ownership path
//   - result: "allow", "deny" or "error"
var AuthorizationDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authorization_decisions_total",
		Help:      "Total number of authorization decisions by permission and result.",
	},
	[]string{"permission", "result"},
)

// TimesheetTransitionsTotal counts committed entry status changes.
var TimesheetTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "timesheet_entry_transitions_total",
		Help:      "Total number of timesheet entry status transitions.",
	},
	[]string{"from", "to"},
)

var LeaveDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "leave_request_decisions_total",
		Help:      "Total number of leave request approvals and rejections.",
	},
	[]string{"status"},
)

// SessionsRevokedTotal counts revoked sessions.
// Label:
//   - reason: "logout", "revoke", "anonymize" or "refresh_reuse"
var SessionsRevokedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_revoked_total",
		Help:      "Total number of revoked sessions by reason.",
	},
	[]string{"reason"},
)

var HTTPRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by method, route and status code.",
	},
	[]string{"method", "route", "status"},
)

var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)
