package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/gogotime/internal"
	"github.com/frahmantamala/gogotime/internal/auth"
	sessionDatamodel "github.com/frahmantamala/gogotime/internal/core/datamodel/session"
	"github.com/frahmantamala/gogotime/internal/metrics"
)

type RepositoryAPI interface {
	Create(ctx context.Context, s *sessionDatamodel.ActiveSession) error
	FindByID(ctx context.Context, id uuid.UUID) (*sessionDatamodel.ActiveSession, error)
	FindInCompany(ctx context.Context, companyID, id uuid.UUID) (*sessionDatamodel.ActiveSession, error)
	FindActiveByUser(ctx context.Context, companyID, userID uuid.UUID, now time.Time) ([]*sessionDatamodel.ActiveSession, error)
	// RotateToken swaps the refresh token hash when oldHash is still current.
	// It reports false when nothing matched.
	RotateToken(ctx context.Context, id uuid.UUID, oldHash, newHash string, expiresAt time.Time) (bool, error)
	// Revoke reports false when the session was already revoked.
	Revoke(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	RevokeAllForUser(ctx context.Context, companyID, userID uuid.UUID, at time.Time) ([]*sessionDatamodel.ActiveSession, error)
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

// Cache is a fast path in front of the session table. A nil Cache sends
// every check to the database.
type Cache interface {
	MarkRevoked(ctx context.Context, id uuid.UUID, ttl time.Duration) error
	IsRevoked(ctx context.Context, id uuid.UUID) (bool, error)
	// ShouldTouch reports true at most once per interval for a session.
	ShouldTouch(ctx context.Context, id uuid.UUID, interval time.Duration) (bool, error)
}

type ServiceAPI interface {
	auth.SessionTracker
	ListMine(ctx context.Context, p *auth.Principal) ([]*Session, error)
	Revoke(ctx context.Context, p *auth.Principal, id uuid.UUID) error
	RevokeAllForUser(ctx context.Context, companyID, userID uuid.UUID, reason string) (int, error)
	PurgeExpired(ctx context.Context, retention time.Duration) (int64, error)
}

type Service struct {
	repo          RepositoryAPI
	cache         Cache
	policy        auth.Policy
	touchInterval time.Duration
	logger        *slog.Logger
	now           func() time.Time
}

func NewService(repo RepositoryAPI, cache Cache, policy auth.Policy, touchInterval time.Duration, logger *slog.Logger) *Service {
	if touchInterval <= 0 {
		touchInterval = time.Minute
	}
	return &Service{
		repo:          repo,
		cache:         cache,
		policy:        policy,
		touchInterval: touchInterval,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Start(ctx context.Context, start auth.SessionStart) error {
	now := s.now()
	row := &sessionDatamodel.ActiveSession{
		ID:         start.ID,
		CompanyID:  start.CompanyID,
		UserID:     start.UserID,
		TokenHash:  start.RefreshTokenHash,
		IPAddress:  start.IPAddress,
		UserAgent:  start.UserAgent,
		LastSeenAt: now,
		ExpiresAt:  start.ExpiresAt.UTC(),
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return internal.NewInternalError("failed to start session", err)
	}
	return nil
}

// Check accepts a session that exists, is not revoked and has not expired.
// last_seen_at is refreshed at most once per touch interval.
func (s *Service) Check(ctx context.Context, id uuid.UUID) error {
	if s.cache != nil {
		revoked, err := s.cache.IsRevoked(ctx, id)
		if err != nil {
			s.logger.Warn("session cache unavailable", "error", err)
		} else if revoked {
			return internal.ErrSessionRevoked
		}
	}

	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if internal.ErrorTypeOf(err) == internal.ErrorTypeNotFound {
			return internal.ErrSessionRevoked
		}
		return internal.NewInternalError("failed to load session", err)
	}
	now := s.now()
	if !usable(row, now) {
		return internal.ErrSessionRevoked
	}

	if s.dueForTouch(ctx, row, now) {
		if err := s.repo.Touch(ctx, id, now); err != nil {
			s.logger.Warn("failed to touch session", "error", err, "session_id", id)
		}
	}
	return nil
}

func (s *Service) dueForTouch(ctx context.Context, row *sessionDatamodel.ActiveSession, now time.Time) bool {
	if s.cache != nil {
		ok, err := s.cache.ShouldTouch(ctx, row.ID, s.touchInterval)
		if err == nil {
			return ok
		}
		s.logger.Warn("session cache unavailable", "error", err)
	}
	return now.Sub(row.LastSeenAt) >= s.touchInterval
}

// Rotate replaces the refresh token of a session. Presenting a refresh token
// that was already rotated away revokes the whole session.
func (s *Service) Rotate(ctx context.Context, id uuid.UUID, oldHash, newHash string, expiresAt time.Time) error {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if internal.ErrorTypeOf(err) == internal.ErrorTypeNotFound {
			return internal.ErrSessionRevoked
		}
		return internal.NewInternalError("failed to load session", err)
	}
	if !usable(row, s.now()) {
		return internal.ErrSessionRevoked
	}

	rotated, err := s.repo.RotateToken(ctx, id, oldHash, newHash, expiresAt)
	if err != nil {
		return internal.NewInternalError("failed to rotate session", err)
	}
	if !rotated {
		s.logger.Warn("refresh token reused, revoking session", "session_id", id, "user_id", row.UserID)
		if err := s.revoke(ctx, row, ReasonRefreshReuse); err != nil {
			return err
		}
		return internal.ErrSessionRevoked
	}
	return nil
}

func (s *Service) End(ctx context.Context, id uuid.UUID) error {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if internal.ErrorTypeOf(err) == internal.ErrorTypeNotFound {
			return nil
		}
		return internal.NewInternalError("failed to load session", err)
	}
	return s.revoke(ctx, row, ReasonLogout)
}

// ListMine returns the caller's live sessions, flagging the one in use.
func (s *Service) ListMine(ctx context.Context, p *auth.Principal) ([]*Session, error) {
	rows, err := s.repo.FindActiveByUser(ctx, p.CompanyID, p.ID, s.now())
	if err != nil {
		return nil, err
	}
	out := make([]*Session, 0, len(rows))
	for _, row := range rows {
		sess := FromDataModel(row)
		sess.Current = row.ID == p.SessionID
		out = append(out, sess)
	}
	return out, nil
}

func (s *Service) Revoke(ctx context.Context, p *auth.Principal, id uuid.UUID) error {
	row, err := s.repo.FindInCompany(ctx, p.CompanyID, id)
	if err != nil {
		return err
	}
	if err := s.policy.Authorize(ctx, p, row.UserID, auth.PermRevokeOtherSession); err != nil {
		return err
	}
	if err := s.revoke(ctx, row, ReasonRevoke); err != nil {
		return err
	}
	s.logger.Info("session revoked", "session_id", id, "user_id", row.UserID, "actor_id", p.ID)
	return nil
}

// RevokeAllForUser ends every open session of a user and returns how many
// were closed.
func (s *Service) RevokeAllForUser(ctx context.Context, companyID, userID uuid.UUID, reason string) (int, error) {
	now := s.now()
	rows, err := s.repo.RevokeAllForUser(ctx, companyID, userID, now)
	if err != nil {
		return 0, internal.NewInternalError("failed to revoke sessions", err)
	}
	for _, row := range rows {
		s.markRevoked(ctx, row, now)
	}
	metrics.SessionsRevokedTotal.WithLabelValues(reason).Add(float64(len(rows)))
	s.logger.Info("sessions revoked", "user_id", userID, "count", len(rows), "reason", reason)
	return len(rows), nil
}

// PurgeExpired deletes sessions that expired or were revoked more than
// retention ago.
func (s *Service) PurgeExpired(ctx context.Context, retention time.Duration) (int64, error) {
	n, err := s.repo.PurgeExpired(ctx, s.now().Add(-retention))
	if err != nil {
		return 0, internal.NewInternalError("failed to purge sessions", err)
	}
	if n > 0 {
		s.logger.Info("expired sessions purged", "count", n)
	}
	return n, nil
}

// RunPurger calls PurgeExpired every interval until ctx is done.
func (s *Service) RunPurger(ctx context.Context, interval, retention time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := s.PurgeExpired(ctx, retention); err != nil {
			s.logger.Error("session purge failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Service) revoke(ctx context.Context, row *sessionDatamodel.ActiveSession, reason string) error {
	now := s.now()
	revoked, err := s.repo.Revoke(ctx, row.ID, now)
	if err != nil {
		return internal.NewInternalError("failed to revoke session", err)
	}
	if !revoked {
		return nil
	}
	s.markRevoked(ctx, row, now)
	metrics.SessionsRevokedTotal.WithLabelValues(reason).Inc()
	return nil
}

func (s *Service) markRevoked(ctx context.Context, row *sessionDatamodel.ActiveSession, now time.Time) {
	if s.cache == nil {
		return
	}
	ttl := row.ExpiresAt.Sub(now)
	if ttl <= 0 {
		return
	}
	if err := s.cache.MarkRevoked(ctx, row.ID, ttl); err != nil {
		s.logger.Warn("failed to cache revoked session", "error", err, "session_id", row.ID)
	}
}
