package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/frahmantamala/gogotime/internal/actioncode"
	actionCodeDatamodel "github.com/frahmantamala/gogotime/internal/core/datamodel/actioncode"
	"github.com/frahmantamala/gogotime/internal/core/dberr"
)

type ActionCodeRepository struct {
	db *gorm.DB
}

func NewActionCodeRepository(db *gorm.DB) actioncode.RepositoryAPI {
	return &ActionCodeRepository{db: db}
}

func (r *ActionCodeRepository) Create(ctx context.Context, a *actionCodeDatamodel.ActionCode) error {
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		if dberr.IsUniqueViolation(err) {
			return actioncode.ErrDuplicateCode.WithCause(err)
		}
		return fmt.Errorf("failed to create action code: %w", err)
	}
	return nil
}

func (r *ActionCodeRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*actionCodeDatamodel.ActionCode, error) {
	var a actionCodeDatamodel.ActionCode
	err := r.db.WithContext(ctx).Where("id = ? AND company_id = ?", id, companyID).First(&a).Error
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, actioncode.ErrActionCodeNotFound
		}
		return nil, fmt.Errorf("failed to load action code: %w", err)
	}
	return &a, nil
}

func (r *ActionCodeRepository) FindByCode(ctx context.Context, companyID uuid.UUID, code string) (*actionCodeDatamodel.ActionCode, error) {
	var a actionCodeDatamodel.ActionCode
	err := r.db.WithContext(ctx).Where("company_id = ? AND code = ?", companyID, code).First(&a).Error
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load action code: %w", err)
	}
	return &a, nil
}

func (r *ActionCodeRepository) FindAllInCompany(ctx context.Context, companyID uuid.UUID, categoryID *uuid.UUID) ([]*actionCodeDatamodel.ActionCode, error) {
	var codes []*actionCodeDatamodel.ActionCode
	q := r.db.WithContext(ctx).Where("company_id = ?", companyID)
	if categoryID != nil {
		q = q.Where("category_id = ?", *categoryID)
	}
	if err := q.Order("code ASC").Find(&codes).Error; err != nil {
		return nil, fmt.Errorf("failed to list action codes: %w", err)
	}
	return codes, nil
}

func (r *ActionCodeRepository) Update(ctx context.Context, a *actionCodeDatamodel.ActionCode) error {
	res := r.db.WithContext(ctx).
		Model(&actionCodeDatamodel.ActionCode{}).
		Where("id = ? AND company_id = ?", a.ID, a.CompanyID).
		Updates(map[string]interface{}{
			"category_id":        a.CategoryID,
			"name":               a.Name,
			"description":        a.Description,
			"allow_time_logging": a.AllowTimeLogging,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update action code: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return actioncode.ErrActionCodeNotFound
	}
	return nil
}

func (r *ActionCodeRepository) SoftDelete(ctx context.Context, companyID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ? AND company_id = ?", id, companyID).Delete(&actionCodeDatamodel.ActionCode{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete action code: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return actioncode.ErrActionCodeNotFound
	}
	return nil
}

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) actioncode.CategoryRepositoryAPI {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Create(ctx context.Context, c *actionCodeDatamodel.Category) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		if dberr.IsUniqueViolation(err) {
			return actioncode.ErrDuplicateCategory.WithCause(err)
		}
		return fmt.Errorf("failed to create action code category: %w", err)
	}
	return nil
}

func (r *CategoryRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*actionCodeDatamodel.Category, error) {
	var c actionCodeDatamodel.Category
	err := r.db.WithContext(ctx).Where("id = ? AND company_id = ?", id, companyID).First(&c).Error
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, actioncode.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to load action code category: %w", err)
	}
	return &c, nil
}

func (r *CategoryRepository) FindByName(ctx context.Context, companyID uuid.UUID, name string) (*actionCodeDatamodel.Category, error) {
	var c actionCodeDatamodel.Category
	err := r.db.WithContext(ctx).Where("company_id = ? AND name = ?", companyID, name).First(&c).Error
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load action code category: %w", err)
	}
	return &c, nil
}

func (r *CategoryRepository) FindAllInCompany(ctx context.Context, companyID uuid.UUID) ([]*actionCodeDatamodel.Category, error) {
	var cats []*actionCodeDatamodel.Category
	err := r.db.WithContext(ctx).Where("company_id = ?", companyID).Order("name ASC").Find(&cats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list action code categories: %w", err)
	}
	return cats, nil
}

func (r *CategoryRepository) SoftDelete(ctx context.Context, companyID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&actionCodeDatamodel.ActionCode{}).
			Where("company_id = ? AND category_id = ?", companyID, id).
			Update("category_id", nil).Error
		if err != nil {
			return fmt.Errorf("failed to detach action codes: %w", err)
		}
		res := tx.Where("id = ? AND company_id = ?", id, companyID).Delete(&actionCodeDatamodel.Category{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete action code category: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return actioncode.ErrCategoryNotFound
		}
		return nil
	})
}
