package actioncode

import (
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/gogotime/internal"
	actionCodeDatamodel "github.com/frahmantamala/gogotime/internal/core/datamodel/actioncode"
)

var (
	ErrActionCodeNotFound = internal.NewNotFoundError("action code not found", internal.ErrCodeActionCodeNotFound)
	ErrCategoryNotFound   = internal.NewNotFoundError("action code category not found", internal.ErrCodeCategoryNotFound)
	ErrDuplicateCode      = internal.NewConflictError("action code already exists", internal.ErrCodeDuplicateActionCode)
	ErrDuplicateCategory  = internal.NewConflictError("action code category already exists", internal.ErrCodeDuplicateCategory)
)

type ActionCode struct {
	ID               uuid.UUID  `json:"id"`
	CompanyID        uuid.UUID  `json:"company_id"`
	CategoryID       *uuid.UUID `json:"category_id,omitempty"`
	Code             string     `json:"code"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	AllowTimeLogging bool       `json:"allow_time_logging"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (a *ActionCode) AcceptsTime() bool {
	return a.AllowTimeLogging
}

type Category struct {
	ID          uuid.UUID `json:"id"`
	CompanyID   uuid.UUID `json:"company_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewActionCode(companyID uuid.UUID, dto CreateActionCodeDTO) *actionCodeDatamodel.ActionCode {
	allow := true
	if dto.AllowTimeLogging != nil {
		allow = *dto.AllowTimeLogging
	}
	return &actionCodeDatamodel.ActionCode{
		ID:               uuid.New(),
		CompanyID:        companyID,
		CategoryID:       dto.CategoryID,
		Code:             dto.Code,
		Name:             dto.Name,
		Description:      dto.Description,
		AllowTimeLogging: allow,
	}
}

func FromDataModel(a *actionCodeDatamodel.ActionCode) *ActionCode {
	return &ActionCode{
		ID:               a.ID,
		CompanyID:        a.CompanyID,
		CategoryID:       a.CategoryID,
		Code:             a.Code,
		Name:             a.Name,
		Description:      a.Description,
		AllowTimeLogging: a.AllowTimeLogging,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func CategoryFromDataModel(c *actionCodeDatamodel.Category) *Category {
	return &Category{
		ID:          c.ID,
		CompanyID:   c.CompanyID,
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
