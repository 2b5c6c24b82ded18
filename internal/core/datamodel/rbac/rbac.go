package rbac

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role, Permission and RolePermission names are unique per company among
// rows that are not soft deleted.

type Role struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey"`
	CompanyID   uuid.UUID      `gorm:"column:company_id;type:uuid;not null;uniqueIndex:idx_roles_company_name,where:deleted_at IS NULL"`
	Name        string         `gorm:"column:name;not null;uniqueIndex:idx_roles_company_name,where:deleted_at IS NULL"`
	Description string         `gorm:"column:description"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Role) TableName() string { return "roles" }

type Permission struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey"`
	CompanyID   uuid.UUID      `gorm:"column:company_id;type:uuid;not null;uniqueIndex:idx_permissions_company_name,where:deleted_at IS NULL"`
	Name        string         `gorm:"column:name;not null;uniqueIndex:idx_permissions_company_name,where:deleted_at IS NULL"`
	Description string         `gorm:"column:description"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Permission) TableName() string { return "permissions" }

type RolePermission struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey"`
	CompanyID    uuid.UUID      `gorm:"column:company_id;type:uuid;not null;index"`
	RoleID       uuid.UUID      `gorm:"column:role_id;type:uuid;not null;uniqueIndex:idx_role_permissions_pair,where:deleted_at IS NULL"`
	PermissionID uuid.UUID      `gorm:"column:permission_id;type:uuid;not null;uniqueIndex:idx_role_permissions_pair,where:deleted_at IS NULL"`
	GrantedBy    *uuid.UUID     `gorm:"column:granted_by;type:uuid"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (RolePermission) TableName() string { return "role_permissions" }
