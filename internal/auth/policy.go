package auth

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/frahmantamala/gogotime/internal"
	"github.com/frahmantamala/gogotime/internal/metrics"
)

// Policy is what domain services use to authorize an operation.
type Policy interface {
	// Require fails unless the principal holds permission.
	Require(ctx context.Context, p *Principal, permission string) error
	// Authorize passes owners outright and otherwise requires the override permission.
	Authorize(ctx context.Context, p *Principal, ownerID uuid.UUID, overridePermission string) error
	Can(ctx context.Context, p *Principal, permission string) (bool, error)
}

type Authorizer struct {
	checker PermissionChecker
	logger  *slog.Logger
}

func NewAuthorizer(checker PermissionChecker, logger *slog.Logger) *Authorizer {
	return &Authorizer{checker: checker, logger: logger}
}

func (a *Authorizer) Can(ctx context.Context, p *Principal, permission string) (bool, error) {
	if p == nil {
		return false, nil
	}
	ok, err := a.checker.CheckPermission(ctx, p, permission)
	switch {
	case err != nil:
		metrics.AuthorizationDecisionsTotal.WithLabelValues(permission, "error").Inc()
	case ok:
		metrics.AuthorizationDecisionsTotal.WithLabelValues(permission, "allow").Inc()
	default:
		metrics.AuthorizationDecisionsTotal.WithLabelValues(permission, "deny").Inc()
	}
	return ok, err
}

func (a *Authorizer) Require(ctx context.Context, p *Principal, permission string) error {
	if p == nil {
		return internal.ErrInvalidToken
	}
	ok, err := a.Can(ctx, p, permission)
	if err != nil {
		return internal.NewInternalError("authorization check failed", err)
	}
	if !ok {
		a.logger.Warn("access denied: insufficient permissions",
			"user_id", p.ID,
			"company_id", p.CompanyID,
			"required_permission", permission)
		return internal.ErrForbidden.WithMessage("missing permission: " + permission)
	}
	return nil
}

func (a *Authorizer) Authorize(ctx context.Context, p *Principal, ownerID uuid.UUID, overridePermission string) error {
	if p == nil {
		return internal.ErrInvalidToken
	}
	if p.Owns(ownerID) {
		metrics.AuthorizationDecisionsTotal.WithLabelValues("owner", "allow").Inc()
		return nil
	}
	return a.Require(ctx, p, overridePermission)
}
