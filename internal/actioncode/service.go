package actioncode

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/frahmantamala/gogotime/internal/auth"
	"github.com/frahmantamala/gogotime/internal/core/common/validation"
	actionCodeDatamodel "github.com/frahmantamala/gogotime/internal/core/datamodel/actioncode"
)

type RepositoryAPI interface {
	Create(ctx context.Context, a *actionCodeDatamodel.ActionCode) error
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*actionCodeDatamodel.ActionCode, error)
	FindByCode(ctx context.Context, companyID uuid.UUID, code string) (*actionCodeDatamodel.ActionCode, error)
	FindAllInCompany(ctx context.Context, companyID uuid.UUID, categoryID *uuid.UUID) ([]*actionCodeDatamodel.ActionCode, error)
	Update(ctx context.Context, a *actionCodeDatamodel.ActionCode) error
	SoftDelete(ctx context.Context, companyID, id uuid.UUID) error
}

type CategoryRepositoryAPI interface {
	Create(ctx context.Context, c *actionCodeDatamodel.Category) error
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*actionCodeDatamodel.Category, error)
	FindByName(ctx context.Context, companyID uuid.UUID, name string) (*actionCodeDatamodel.Category, error)
	FindAllInCompany(ctx context.Context, companyID uuid.UUID) ([]*actionCodeDatamodel.Category, error)
	// SoftDelete detaches the category's codes before deleting it.
	SoftDelete(ctx context.Context, companyID, id uuid.UUID) error
}

type ServiceAPI interface {
	Create(ctx context.Context, p *auth.Principal, dto CreateActionCodeDTO) (*ActionCode, error)
	List(ctx context.Context, p *auth.Principal, categoryID *uuid.UUID) ([]*ActionCode, error)
	Get(ctx context.Context, p *auth.Principal, id uuid.UUID) (*ActionCode, error)
	Update(ctx context.Context, p *auth.Principal, id uuid.UUID, dto UpdateActionCodeDTO) (*ActionCode, error)
	SetTimeLogging(ctx context.Context, p *auth.Principal, id uuid.UUID, allow bool) (*ActionCode, error)
	Delete(ctx context.Context, p *auth.Principal, id uuid.UUID) error

	CreateCategory(ctx context.Context, p *auth.Principal, dto CreateCategoryDTO) (*Category, error)
	ListCategories(ctx context.Context, p *auth.Principal) ([]*Category, error)
	DeleteCategory(ctx context.Context, p *auth.Principal, id uuid.UUID) error
}

type Service struct {
	codes      RepositoryAPI
	categories CategoryRepositoryAPI
	policy     auth.Policy
	logger     *slog.Logger
}

func NewService(codes RepositoryAPI, categories CategoryRepositoryAPI, policy auth.Policy, logger *slog.Logger) *Service {
	return &Service{
		codes:      codes,
		categories: categories,
		policy:     policy,
		logger:     logger,
	}
}

func (s *Service) Create(ctx context.Context, p *auth.Principal, dto CreateActionCodeDTO) (*ActionCode, error) {
	dto.Code = strings.ToUpper(strings.TrimSpace(dto.Code))
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}
	if err := s.policy.Require(ctx, p, auth.PermManageActionCodes); err != nil {
		return nil, err
	}
	if dto.CategoryID != nil {
		if _, err := s.categories.FindByID(ctx, p.CompanyID, *dto.CategoryID); err != nil {
			return nil, err
		}
	}

	existing, err := s.codes.FindByCode(ctx, p.CompanyID, dto.Code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateCode
	}

	row := NewActionCode(p.CompanyID, dto)
	if err := s.codes.Create(ctx, row); err != nil {
		return nil, err
	}
	s.logger.Info("action code created", "action_code_id", row.ID, "code", row.Code, "actor_id", p.ID)
	return FromDataModel(row), nil
}

func (s *Service) List(ctx context.Context, p *auth.Principal, categoryID *uuid.UUID) ([]*ActionCode, error) {
	rows, err := s.codes.FindAllInCompany(ctx, p.CompanyID, categoryID)
	if err != nil {
		s.logger.Error("failed to list action codes", "error", err)
		return nil, err
	}
	out := make([]*ActionCode, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, p *auth.Principal, id uuid.UUID) (*ActionCode, error) {
	return s.Resolve(ctx, p.CompanyID, id)
}

// Resolve loads a code for other services, such as timesheet entries
// checking that time may be logged against it.
func (s *Service) Resolve(ctx context.Context, companyID, id uuid.UUID) (*ActionCode, error) {
	row, err := s.codes.FindByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

func (s *Service) Update(ctx context.Context, p *auth.Principal, id uuid.UUID, dto UpdateActionCodeDTO) (*ActionCode, error) {
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}
	row, err := s.codes.FindByID(ctx, p.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Require(ctx, p, auth.PermManageActionCodes); err != nil {
		return nil, err
	}

	if dto.CategoryID != nil {
		if _, err := s.categories.FindByID(ctx, p.CompanyID, *dto.CategoryID); err != nil {
			return nil, err
		}
		row.CategoryID = dto.CategoryID
	}
	if dto.Name != nil {
		row.Name = *dto.Name
	}
	if dto.Description != nil {
		row.Description = *dto.Description
	}
	return s.save(ctx, p, row)
}

// SetTimeLogging opens or closes a code for new time entries. Existing
// entries are not touched.
func (s *Service) SetTimeLogging(ctx context.Context, p *auth.Principal, id uuid.UUID, allow bool) (*ActionCode, error) {
	row, err := s.codes.FindByID(ctx, p.CompanyID, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Require(ctx, p, auth.PermManageActionCodes); err != nil {
		return nil, err
	}
	row.AllowTimeLogging = allow
	return s.save(ctx, p, row)
}

func (s *Service) save(ctx context.Context, p *auth.Principal, row *actionCodeDatamodel.ActionCode) (*ActionCode, error) {
	if err := s.codes.Update(ctx, row); err != nil {
		return nil, err
	}
	updated, err := s.codes.FindByID(ctx, p.CompanyID, row.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("action code updated", "action_code_id", row.ID, "actor_id", p.ID)
	return FromDataModel(updated), nil
}

func (s *Service) Delete(ctx context.Context, p *auth.Principal, id uuid.UUID) error {
	if _, err := s.codes.FindByID(ctx, p.CompanyID, id); err != nil {
		return err
	}
	if err := s.policy.Require(ctx, p, auth.PermManageActionCodes); err != nil {
		return err
	}
	if err := s.codes.SoftDelete(ctx, p.CompanyID, id); err != nil {
		return err
	}
	s.logger.Info("action code deleted", "action_code_id", id, "actor_id", p.ID)
	return nil
}

func (s *Service) CreateCategory(ctx context.Context, p *auth.Principal, dto CreateCategoryDTO) (*Category, error) {
	dto.Name = strings.TrimSpace(dto.Name)
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}
	if err := s.policy.Require(ctx, p, auth.PermManageActionCodes); err != nil {
		return nil, err
	}

	existing, err := s.categories.FindByName(ctx, p.CompanyID, dto.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateCategory
	}

	row := &actionCodeDatamodel.Category{
		ID:          uuid.New(),
		CompanyID:   p.CompanyID,
		Name:        dto.Name,
		Description: dto.Description,
	}
	if err := s.categories.Create(ctx, row); err != nil {
		return nil, err
	}
	s.logger.Info("action code category created", "category_id", row.ID, "name", row.Name, "actor_id", p.ID)
	return CategoryFromDataModel(row), nil
}

func (s *Service) ListCategories(ctx context.Context, p *auth.Principal) ([]*Category, error) {
	rows, err := s.categories.FindAllInCompany(ctx, p.CompanyID)
	if err != nil {
		return nil, err
	}
	out := make([]*Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, CategoryFromDataModel(row))
	}
	return out, nil
}

func (s *Service) DeleteCategory(ctx context.Context, p *auth.Principal, id uuid.UUID) error {
	if _, err := s.categories.FindByID(ctx, p.CompanyID, id); err != nil {
		return err
	}
	if err := s.policy.Require(ctx, p, auth.PermManageActionCodes); err != nil {
		return err
	}
	if err := s.categories.SoftDelete(ctx, p.CompanyID, id); err != nil {
		return err
	}
	s.logger.Info("action code category deleted", "category_id", id, "actor_id", p.ID)
	return nil
}
