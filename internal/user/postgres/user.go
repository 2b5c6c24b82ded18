package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/frahmantamala/gogotime/internal/core/datamodel/rbac"
	userDatamodel "github.com/frahmantamala/gogotime/internal/core/datamodel/user"
	"github.com/frahmantamala/gogotime/internal/core/dberr"
	"github.com/frahmantamala/gogotime/internal/user"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.Repository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).Where("id = ? AND company_id = ?", id, companyID).First(&u).Error
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) FindAllInCompany(ctx context.Context, companyID uuid.UUID) ([]*userDatamodel.User, error) {
	var rows []*userDatamodel.User
	if err := r.db.WithContext(ctx).Where("company_id = ?", companyID).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return rows, nil
}

func (r *UserRepository) Exists(ctx context.Context, companyID, id uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("id = ? AND company_id = ? AND anonymized_at IS NULL", id, companyID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to look up user: %w", err)
	}
	return n > 0, nil
}

func (r *UserRepository) PermissionNames(ctx context.Context, companyID uuid.UUID, roleID *uuid.UUID) ([]string, error) {
	names := []string{}
	if roleID == nil {
		return names, nil
	}
	err := r.db.WithContext(ctx).
		Model(&rbac.Permission{}).
		Joins("JOIN role_permissions rp ON rp.permission_id = permissions.id AND rp.company_id = permissions.company_id AND rp.deleted_at IS NULL").
		Where("rp.role_id = ? AND permissions.company_id = ?", *roleID, companyID).
		Order("permissions.name ASC").
		Pluck("permissions.name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load permission names: %w", err)
	}
	return names, nil
}

func (r *UserRepository) RoleExists(ctx context.Context, companyID, roleID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&rbac.Role{}).
		Where("id = ? AND company_id = ?", roleID, companyID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to look up role: %w", err)
	}
	return n > 0, nil
}

func (r *UserRepository) AssignRole(ctx context.Context, companyID, id uuid.UUID, roleID *uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("id = ? AND company_id = ?", id, companyID).
		Update("role_id", roleID)
	if res.Error != nil {
		return fmt.Errorf("failed to assign role: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Anonymize(ctx context.Context, companyID, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("id = ? AND company_id = ? AND anonymized_at IS NULL", id, companyID).
		Updates(map[string]interface{}{
			"email":         user.AnonymizedEmail(id),
			"name":          user.AnonymizedName,
			"password_hash": "",
			"is_active":     false,
			"role_id":       nil,
			"anonymized_at": at,
		})
	if res.Error != nil {
		if dberr.IsUniqueViolation(res.Error) {
			return false, user.ErrAlreadyAnonymized.WithCause(res.Error)
		}
		return false, fmt.Errorf("failed to anonymize user: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
