package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/super-skeleton/auth-service/internal/models"
)

func (r *GormRepo) findUser(ctx context.Context, query string, args ...any) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).Where(query, args...).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findUser(ctx, "email = ?", strings.ToLower(email))
}

// FindUserByIdentifier resolves a login identifier against email or
// username, case-insensitively (both columns are stored lowercase).
func (r *GormRepo) FindUserByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	id := strings.ToLower(identifier)
	return r.findUser(ctx, "email = ? OR username = ?", id, id)
}

func (r *GormRepo) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	return r.findUser(ctx, "id = ?", id)
}

func (r *GormRepo) FindUserByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	return r.findUser(ctx, "email_verification_token = ?", token)
}

func (r *GormRepo) FindUserByResetToken(ctx context.Context, token string) (*models.User, error) {
	return r.findUser(ctx, "password_reset_token = ?", token)
}

func (r *GormRepo) FindUserByProvider(ctx context.Context, provider, providerID string) (*models.User, error) {
	return r.findUser(ctx, "provider = ? AND provider_id = ?", provider, providerID)
}

func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	return r.DB.WithContext(ctx).Create(u).Error
}

// UpdateUserFields applies a column-keyed partial update. Nil values unset
// their column, which is how token/expiry pairs are cleared atomically.
// Returns the refreshed row, or nil when no row matched.
func (r *GormRepo) UpdateUserFields(ctx context.Context, id string, fields map[string]any) (*models.User, error) {
	if len(fields) == 0 {
		return r.FindUserByID(ctx, id)
	}

	res := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}

	return r.FindUserByID(ctx, id)
}
