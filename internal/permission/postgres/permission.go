package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/frahmantamala/gogotime/internal/core/datamodel/rbac"
	"github.com/frahmantamala/gogotime/internal/core/dberr"
	"github.com/frahmantamala/gogotime/internal/permission"
)

type PermissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) permission.PermissionRepository {
	return &PermissionRepository{db: db}
}

func (r *PermissionRepository) Create(ctx context.Context, p *rbac.Permission) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		if dberr.IsUniqueViolation(err) {
			return permission.ErrDuplicatePermission.WithCause(err)
		}
		return fmt.Errorf("failed to create permission: %w", err)
	}
	return nil
}

func (r *PermissionRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*rbac.Permission, error) {
	var p rbac.Permission
	err := r.db.WithContext(ctx).Where("id = ? AND company_id = ?", id, companyID).First(&p).Error
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, permission.ErrPermissionNotFound
		}
		return nil, fmt.Errorf("failed to load permission: %w", err)
	}
	return &p, nil
}

func (r *PermissionRepository) FindByName(ctx context.Context, companyID uuid.UUID, name string) (*rbac.Permission, error) {
	var p rbac.Permission
	err := r.db.WithContext(ctx).Where("company_id = ? AND name = ?", companyID, name).First(&p).Error
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load permission: %w", err)
	}
	return &p, nil
}

func (r *PermissionRepository) FindAllInCompany(ctx context.Context, companyID uuid.UUID) ([]*rbac.Permission, error) {
	var perms []*rbac.Permission
	err := r.db.WithContext(ctx).Where("company_id = ?", companyID).Order("name ASC").Find(&perms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	return perms, nil
}

func (r *PermissionRepository) Update(ctx context.Context, p *rbac.Permission) error {
	res := r.db.WithContext(ctx).
		Model(&rbac.Permission{}).
		Where("id = ? AND company_id = ?", p.ID, p.CompanyID).
		Updates(map[string]interface{}{
			"name":        p.Name,
			"description": p.Description,
		})
	if res.Error != nil {
		if dberr.IsUniqueViolation(res.Error) {
			return permission.ErrDuplicatePermission.WithCause(res.Error)
		}
		return fmt.Errorf("failed to update permission: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return permission.ErrPermissionNotFound
	}
	return nil
}

// SoftDelete also retires every grant of the permission.
func (r *PermissionRepository) SoftDelete(ctx context.Context, companyID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND company_id = ?", id, companyID).Delete(&rbac.Permission{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete permission: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return permission.ErrPermissionNotFound
		}
		err := tx.Where("permission_id = ? AND company_id = ?", id, companyID).Delete(&rbac.RolePermission{}).Error
		if err != nil {
			return fmt.Errorf("failed to delete grants of permission: %w", err)
		}
		return nil
	})
}

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) permission.RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) Create(ctx context.Context, role *rbac.Role) error {
	if err := r.db.WithContext(ctx).Create(role).Error; err != nil {
		if dberr.IsUniqueViolation(err) {
			return permission.ErrDuplicateRole.WithCause(err)
		}
		return fmt.Errorf("failed to create role: %w", err)
	}
	return nil
}

func (r *RoleRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*rbac.Role, error) {
	var role rbac.Role
	err := r.db.WithContext(ctx).Where("id = ? AND company_id = ?", id, companyID).First(&role).Error
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, permission.ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to load role: %w", err)
	}
	return &role, nil
}

func (r *RoleRepository) FindByName(ctx context.Context, companyID uuid.UUID, name string) (*rbac.Role, error) {
	var role rbac.Role
	err := r.db.WithContext(ctx).Where("company_id = ? AND name = ?", companyID, name).First(&role).Error
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load role: %w", err)
	}
	return &role, nil
}

func (r *RoleRepository) FindAllInCompany(ctx context.Context, companyID uuid.UUID) ([]*rbac.Role, error) {
	var roles []*rbac.Role
	err := r.db.WithContext(ctx).Where("company_id = ?", companyID).Order("name ASC").Find(&roles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, nil
}

func (r *RoleRepository) SoftDelete(ctx context.Context, companyID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND company_id = ?", id, companyID).Delete(&rbac.Role{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete role: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return permission.ErrRoleNotFound
		}
		err := tx.Where("role_id = ? AND company_id = ?", id, companyID).Delete(&rbac.RolePermission{}).Error
		if err != nil {
			return fmt.Errorf("failed to delete grants of role: %w", err)
		}
		return nil
	})
}

type GrantRepository struct {
	db *gorm.DB
}

func NewGrantRepository(db *gorm.DB) permission.GrantRepository {
	return &GrantRepository{db: db}
}

func (r *GrantRepository) Create(ctx context.Context, g *rbac.RolePermission) error {
	if err := r.db.WithContext(ctx).Create(g).Error; err != nil {
		if dberr.IsUniqueViolation(err) {
			return permission.ErrDuplicateGrant.WithCause(err)
		}
		return fmt.Errorf("failed to create role permission: %w", err)
	}
	return nil
}

func (r *GrantRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*rbac.RolePermission, error) {
	var g rbac.RolePermission
	err := r.db.WithContext(ctx).Where("id = ? AND company_id = ?", id, companyID).First(&g).Error
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, permission.ErrGrantNotFound
		}
		return nil, fmt.Errorf("failed to load role permission: %w", err)
	}
	return &g, nil
}

func (r *GrantRepository) FindByPair(ctx context.Context, companyID, roleID, permissionID uuid.UUID) (*rbac.RolePermission, error) {
	var g rbac.RolePermission
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND role_id = ? AND permission_id = ?", companyID, roleID, permissionID).
		First(&g).Error
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load role permission: %w", err)
	}
	return &g, nil
}

func (r *GrantRepository) FindByRole(ctx context.Context, companyID, roleID uuid.UUID) ([]*permission.Grant, error) {
	var grants []*permission.Grant
	err := r.db.WithContext(ctx).
		Table("role_permissions rp").
		Select("rp.id, rp.company_id, rp.role_id, rp.permission_id, rp.granted_by, rp.created_at, p.name AS permission").
		Joins("JOIN permissions p ON p.id = rp.permission_id AND p.deleted_at IS NULL").
		Where("rp.company_id = ? AND rp.role_id = ? AND rp.deleted_at IS NULL", companyID, roleID).
		Order("p.name ASC").
		Scan(&grants).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list role permissions: %w", err)
	}
	return grants, nil
}

func (r *GrantRepository) SoftDelete(ctx context.Context, companyID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ? AND company_id = ?", id, companyID).Delete(&rbac.RolePermission{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete role permission: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return permission.ErrGrantNotFound
	}
	return nil
}
