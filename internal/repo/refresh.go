package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/super-skeleton/auth-service/internal/models"
)

func (r *GormRepo) CreateRefreshToken(ctx context.Context, t *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

func (r *GormRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var rec models.RefreshToken
	err := r.DB.WithContext(ctx).Where("token = ?", token).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// InvalidateRefreshToken unconditionally forces the sentinel expiry. Used at
// logout and when cleaning up a token found expired.
func (r *GormRepo) InvalidateRefreshToken(ctx context.Context, token string) error {
	return r.DB.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("token = ?", token).
		Update("expires_at", tokenEpoch).Error
}

// ConsumeRefreshToken invalidates the token iff it is still live, in a
// single conditional update. The boolean reports whether this call won:
// two concurrent rotations of the same token produce exactly one winner,
// and the loser must be treated as presenting an invalid token.
func (r *GormRepo) ConsumeRefreshToken(ctx context.Context, token string, now time.Time) (bool, error) {
	res := r.DB.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("token = ? AND expires_at > ?", token, now).
		Update("expires_at", tokenEpoch)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
