package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/frahmantamala/gogotime/internal"
	timesheetDatamodel "github.com/frahmantamala/gogotime/internal/core/datamodel/timesheet"
	"github.com/frahmantamala/gogotime/internal/core/dberr"
	"github.com/frahmantamala/gogotime/internal/timesheet"
)

type TimesheetRepository struct {
	db *gorm.DB
}

func NewTimesheetRepository(db *gorm.DB) timesheet.RepositoryAPI {
	return &TimesheetRepository{db: db}
}

func (r *TimesheetRepository) CreateTimesheet(ctx context.Context, t *timesheetDatamodel.Timesheet) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		if dberr.IsUniqueViolation(err) {
			return timesheet.ErrDuplicateTimesheet.WithCause(err)
		}
		return fmt.Errorf("failed to create timesheet: %w", err)
	}
	return nil
}

func (r *TimesheetRepository) FindTimesheet(ctx context.Context, companyID, id uuid.UUID) (*timesheetDatamodel.Timesheet, error) {
	var t timesheetDatamodel.Timesheet
	err := r.db.WithContext(ctx).Where("id = ? AND company_id = ?", id, companyID).First(&t).Error
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, timesheet.ErrTimesheetNotFound
		}
		return nil, fmt.Errorf("failed to load timesheet: %w", err)
	}
	return &t, nil
}

func (r *TimesheetRepository) FindTimesheetsByUser(ctx context.Context, companyID, userID uuid.UUID) ([]*timesheetDatamodel.Timesheet, error) {
	var rows []*timesheetDatamodel.Timesheet
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND user_id = ?", companyID, userID).
		Order("period_start DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list timesheets: %w", err)
	}
	return rows, nil
}

func (r *TimesheetRepository) CreateEntry(ctx context.Context, e *timesheetDatamodel.TimesheetEntry) error {
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("failed to create timesheet entry: %w", err)
	}
	return nil
}

func (r *TimesheetRepository) FindEntry(ctx context.Context, companyID, id uuid.UUID) (*timesheetDatamodel.TimesheetEntry, error) {
	var e timesheetDatamodel.TimesheetEntry
	err := r.db.WithContext(ctx).Where("id = ? AND company_id = ?", id, companyID).First(&e).Error
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, timesheet.ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to load timesheet entry: %w", err)
	}
	return &e, nil
}

func (r *TimesheetRepository) FindEntries(ctx context.Context, companyID uuid.UUID, filter timesheet.EntryFilter) ([]*timesheetDatamodel.TimesheetEntry, error) {
	var rows []*timesheetDatamodel.TimesheetEntry
	q := r.db.WithContext(ctx).Where("company_id = ?", companyID)
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if filter.TimesheetID != nil {
		q = q.Where("timesheet_id = ?", *filter.TimesheetID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if err := q.Order("work_date ASC, created_at ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list timesheet entries: %w", err)
	}
	return rows, nil
}

func (r *TimesheetRepository) UpdateEntryIfUnchanged(ctx context.Context, e *timesheetDatamodel.TimesheetEntry, expectedStatus timesheet.Status, expectedVersion int64) error {
	res := r.db.WithContext(ctx).
		Model(&timesheetDatamodel.TimesheetEntry{}).
		Where("id = ? AND company_id = ? AND status = ? AND version = ?", e.ID, e.CompanyID, string(expectedStatus), expectedVersion).
		Updates(map[string]interface{}{
			"action_code_id":   e.ActionCodeID,
			"work_date":        e.WorkDate,
			"minutes":          e.Minutes,
			"description":      e.Description,
			"status":           e.Status,
			"submitted_at":     e.SubmittedAt,
			"approved_by":      e.ApprovedBy,
			"approved_at":      e.ApprovedAt,
			"rejected_by":      e.RejectedBy,
			"rejected_at":      e.RejectedAt,
			"rejection_reason": e.RejectionReason,
			"invoiced_at":      e.InvoicedAt,
			"version":          gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update timesheet entry: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.ErrVersionConflict
	}
	return nil
}

func (r *TimesheetRepository) SoftDeleteDraftEntry(ctx context.Context, companyID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND company_id = ? AND status = ?", id, companyID, string(timesheet.StatusDraft)).
		Delete(&timesheetDatamodel.TimesheetEntry{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete timesheet entry: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.ErrVersionConflict
	}
	return nil
}
