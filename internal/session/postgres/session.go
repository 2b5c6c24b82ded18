package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	sessionDatamodel "github.com/frahmantamala/gogotime/internal/core/datamodel/session"
	"github.com/frahmantamala/gogotime/internal/core/dberr"
	"github.com/frahmantamala/gogotime/internal/session"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) session.RepositoryAPI {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, s *sessionDatamodel.ActiveSession) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *SessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*sessionDatamodel.ActiveSession, error) {
	return r.first(ctx, r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *SessionRepository) FindInCompany(ctx context.Context, companyID, id uuid.UUID) (*sessionDatamodel.ActiveSession, error) {
	return r.first(ctx, r.db.WithContext(ctx).Where("id = ? AND company_id = ?", id, companyID))
}

func (r *SessionRepository) first(_ context.Context, q *gorm.DB) (*sessionDatamodel.ActiveSession, error) {
	var s sessionDatamodel.ActiveSession
	if err := q.First(&s).Error; err != nil {
		if dberr.IsNotFound(err) {
			return nil, session.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &s, nil
}

func (r *SessionRepository) FindActiveByUser(ctx context.Context, companyID, userID uuid.UUID, now time.Time) ([]*sessionDatamodel.ActiveSession, error) {
	var rows []*sessionDatamodel.ActiveSession
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND user_id = ? AND revoked_at IS NULL AND expires_at > ?", companyID, userID, now).
		Order("last_seen_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return rows, nil
}

func (r *SessionRepository) RotateToken(ctx context.Context, id uuid.UUID, oldHash, newHash string, expiresAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&sessionDatamodel.ActiveSession{}).
		Where("id = ? AND token_hash = ? AND revoked_at IS NULL", id, oldHash).
		Updates(map[string]interface{}{
			"token_hash":   newHash,
			"expires_at":   expiresAt,
			"last_seen_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to rotate session: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *SessionRepository) Revoke(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&sessionDatamodel.ActiveSession{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", at)
	if res.Error != nil {
		return false, fmt.Errorf("failed to revoke session: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *SessionRepository) RevokeAllForUser(ctx context.Context, companyID, userID uuid.UUID, at time.Time) ([]*sessionDatamodel.ActiveSession, error) {
	var rows []*sessionDatamodel.ActiveSession
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("company_id = ? AND user_id = ? AND revoked_at IS NULL", companyID, userID).Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		ids := make([]uuid.UUID, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.ID)
		}
		return tx.Model(&sessionDatamodel.ActiveSession{}).
			Where("id IN ? AND revoked_at IS NULL", ids).
			Update("revoked_at", at).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to revoke user sessions: %w", err)
	}
	return rows, nil
}

func (r *SessionRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&sessionDatamodel.ActiveSession{}).
		Where("id = ?", id).
		Update("last_seen_at", at).Error
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

func (r *SessionRepository) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ? OR revoked_at < ?", before, before).
		Delete(&sessionDatamodel.ActiveSession{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", res.Error)
	}
	return res.RowsAffected, nil
}
