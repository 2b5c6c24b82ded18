package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey"`
	CompanyID    uuid.UUID      `gorm:"column:company_id;type:uuid;not null;index"`
	RoleID       *uuid.UUID     `gorm:"column:role_id;type:uuid"`
	Email        string         `gorm:"column:email;uniqueIndex;not null"`
	Name         string         `gorm:"column:name;not null"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	IsActive     bool           `gorm:"column:is_active;not null"`
	AnonymizedAt *time.Time     `gorm:"column:anonymized_at"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (User) TableName() string { return "users" }
