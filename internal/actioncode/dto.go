package actioncode

import "github.com/google/uuid"

type CreateCategoryDTO struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
}

type CreateActionCodeDTO struct {
	CategoryID       *uuid.UUID `json:"category_id,omitempty"`
	Code             string     `json:"code" validate:"required,max=50,excludesall= "`
	Name             string     `json:"name" validate:"required,max=255"`
	Description      string     `json:"description" validate:"max=1000"`
	AllowTimeLogging *bool      `json:"allow_time_logging,omitempty"`
}

type UpdateActionCodeDTO struct {
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	Name        *string    `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=1000"`
}

type TimeLoggingDTO struct {
	Allow *bool `json:"allow" validate:"required"`
}

type ActionCodesResponse struct {
	ActionCodes []*ActionCode `json:"action_codes"`
}

type CategoriesResponse struct {
	Categories []*Category `json:"categories"`
}
