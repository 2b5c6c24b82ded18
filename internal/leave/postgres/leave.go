package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/frahmantamala/gogotime/internal"
	leaveDatamodel "github.com/frahmantamala/gogotime/internal/core/datamodel/leave"
	"github.com/frahmantamala/gogotime/internal/core/dberr"
	"github.com/frahmantamala/gogotime/internal/leave"
)

type LeaveRequestRepository struct {
	db *gorm.DB
}

func NewLeaveRequestRepository(db *gorm.DB) leave.RepositoryAPI {
	return &LeaveRequestRepository{db: db}
}

func (r *LeaveRequestRepository) Create(ctx context.Context, l *leaveDatamodel.LeaveRequest) error {
	if err := r.db.WithContext(ctx).Create(l).Error; err != nil {
		return fmt.Errorf("failed to create leave request: %w", err)
	}
	return nil
}

func (r *LeaveRequestRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*leaveDatamodel.LeaveRequest, error) {
	var l leaveDatamodel.LeaveRequest
	err := r.db.WithContext(ctx).Where("id = ? AND company_id = ?", id, companyID).First(&l).Error
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, leave.ErrLeaveRequestNotFound
		}
		return nil, fmt.Errorf("failed to load leave request: %w", err)
	}
	return &l, nil
}

func (r *LeaveRequestRepository) FindByUser(ctx context.Context, companyID, userID uuid.UUID) ([]*leaveDatamodel.LeaveRequest, error) {
	var rows []*leaveDatamodel.LeaveRequest
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND user_id = ?", companyID, userID).
		Order("start_date DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list leave requests: %w", err)
	}
	return rows, nil
}

func (r *LeaveRequestRepository) FindAllInCompany(ctx context.Context, companyID uuid.UUID, status string) ([]*leaveDatamodel.LeaveRequest, error) {
	var rows []*leaveDatamodel.LeaveRequest
	q := r.db.WithContext(ctx).Where("company_id = ?", companyID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Order("start_date DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list leave requests: %w", err)
	}
	return rows, nil
}

func (r *LeaveRequestRepository) UpdateIfUnchanged(ctx context.Context, l *leaveDatamodel.LeaveRequest, expectedVersion int64) error {
	res := r.db.WithContext(ctx).
		Model(&leaveDatamodel.LeaveRequest{}).
		Where("id = ? AND company_id = ? AND status = ? AND version = ?", l.ID, l.CompanyID, leave.StatusPending, expectedVersion).
		Updates(map[string]interface{}{
			"leave_type":      l.LeaveType,
			"start_date":      l.StartDate,
			"end_date":        l.EndDate,
			"reason":          l.Reason,
			"status":          l.Status,
			"decision_reason": l.DecisionReason,
			"decided_by":      l.DecidedBy,
			"decided_at":      l.DecidedAt,
			"version":         gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update leave request: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.ErrVersionConflict
	}
	return nil
}

func (r *LeaveRequestRepository) SoftDelete(ctx context.Context, companyID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ? AND company_id = ?", id, companyID).Delete(&leaveDatamodel.LeaveRequest{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete leave request: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return leave.ErrLeaveRequestNotFound
	}
	return nil
}
