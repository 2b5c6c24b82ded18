package actioncode

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Category struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey"`
	CompanyID   uuid.UUID      `gorm:"column:company_id;type:uuid;not null;uniqueIndex:idx_action_code_categories_company_name,where:deleted_at IS NULL"`
	Name        string         `gorm:"column:name;not null;uniqueIndex:idx_action_code_categories_company_name,where:deleted_at IS NULL"`
	Description string         `gorm:"column:description"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Category) TableName() string { return "action_code_categories" }

type ActionCode struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey"`
	CompanyID        uuid.UUID      `gorm:"column:company_id;type:uuid;not null;uniqueIndex:idx_action_codes_company_code,where:deleted_at IS NULL"`
	CategoryID       *uuid.UUID     `gorm:"column:category_id;type:uuid"`
	Code             string         `gorm:"column:code;not null;uniqueIndex:idx_action_codes_company_code,where:deleted_at IS NULL"`
	Name             string         `gorm:"column:name;not null"`
	Description      string         `gorm:"column:description"`
	AllowTimeLogging bool           `gorm:"column:allow_time_logging;not null"`
	CreatedAt        time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time      `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt        gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (ActionCode) TableName() string { return "action_codes" }
