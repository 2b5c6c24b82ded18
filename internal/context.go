package internal

import (
	"context"
	"time"
)

type ctxKey string

const (
	ContextUserKey    ctxKey = "userID"
	ContextCompanyKey ctxKey = "companyID"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if userID, ok := ctx.Value(ContextUserKey).(string); ok {
		return userID
	}
	return ""
}

func CompanyIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if companyID, ok := ctx.Value(ContextCompanyKey).(string); ok {
		return companyID
	}
	return ""
}

// ContextWithActor stores the authenticated user and company as plain strings
// for log enrichment. Authorization reads the principal from the auth package.
func ContextWithActor(ctx context.Context, userID, companyID string) context.Context {
	ctx = context.WithValue(ctx, ContextUserKey, userID)
	return context.WithValue(ctx, ContextCompanyKey, companyID)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
