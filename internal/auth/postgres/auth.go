package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"

	"github.com/frahmantamala/gogotime/internal/auth"
	userDatamodel "github.com/frahmantamala/gogotime/internal/core/datamodel/user"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*auth.Credentials, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	return toCredentials(&u, err)
}

func (r *Repository) FindByID(ctx context.Context, userID uuid.UUID) (*auth.Credentials, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&u).Error
	return toCredentials(&u, err)
}

func toCredentials(u *userDatamodel.User, err error) (*auth.Credentials, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &auth.Credentials{
		UserID:       u.ID,
		CompanyID:    u.CompanyID,
		RoleID:       u.RoleID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		IsActive:     u.IsActive && u.AnonymizedAt == nil,
	}, nil
}

// GrantRepository runs the authorization lookups as plain SQL. Queries are
// written with ? and rebound for the driver in use.
type GrantRepository struct {
	db *sqlx.DB
}

func NewGrantRepository(db *sqlx.DB) *GrantRepository {
	return &GrantRepository{db: db}
}

const roleOfQuery = `
SELECT r.id
FROM users u
JOIN roles r ON r.id = u.role_id AND r.company_id = u.company_id AND r.deleted_at IS NULL
WHERE u.id = ? AND u.company_id = ? AND u.deleted_at IS NULL AND u.is_active`

func (r *GrantRepository) RoleOf(ctx context.Context, companyID, userID uuid.UUID) (*uuid.UUID, error) {
	var roleID uuid.NullUUID
	err := r.db.GetContext(ctx, &roleID, r.db.Rebind(roleOfQuery), userID.String(), companyID.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve role: %w", err)
	}
	if !roleID.Valid {
		return nil, nil
	}
	return &roleID.UUID, nil
}

const roleHasPermissionQuery = `
SELECT EXISTS (
	SELECT 1
	FROM role_permissions rp
	JOIN permissions p ON p.id = rp.permission_id AND p.company_id = rp.company_id AND p.deleted_at IS NULL
	WHERE rp.role_id = ? AND rp.company_id = ? AND rp.deleted_at IS NULL AND p.name = ?
)`

func (r *GrantRepository) RoleHasPermission(ctx context.Context, companyID, roleID uuid.UUID, permission string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, r.db.Rebind(roleHasPermissionQuery), roleID.String(), companyID.String(), permission)
	if err != nil {
		return false, fmt.Errorf("failed to check grant: %w", err)
	}
	return exists, nil
}
