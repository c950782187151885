package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/service"
)

type PasswordResetRepo struct{ DB *gorm.DB }

func (r *PasswordResetRepo) Create(ctx context.Context, rec *models.PasswordReset) error {
	return translate(r.DB.WithContext(ctx).Create(rec).Error)
}

func (r *PasswordResetRepo) FindByToken(ctx context.Context, token uuid.UUID) (*models.PasswordReset, error) {
	return first[models.PasswordReset](r.DB.WithContext(ctx), "token = ?", token)
}

func (r *PasswordResetRepo) Consume(ctx context.Context, token uuid.UUID) error {
	res := r.DB.WithContext(ctx).Where("token = ?", token).Delete(&models.PasswordReset{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return service.ErrInvalidToken
	}
	return nil
}

func (r *PasswordResetRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Where("expires_at < ?", now.UTC()).Delete(&models.PasswordReset{})
	return res.RowsAffected, res.Error
}
