package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/service"
)

type RefreshTokenRepo struct{ DB *gorm.DB }

func (r *RefreshTokenRepo) Create(ctx context.Context, t *models.RefreshToken) error {
	return translate(r.DB.WithContext(ctx).Create(t).Error)
}

func (r *RefreshTokenRepo) FindByValue(ctx context.Context, digest string) (*models.RefreshToken, error) {
	return first[models.RefreshToken](r.DB.WithContext(ctx), "token = ?", digest)
}

func (r *RefreshTokenRepo) DeleteByID(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Delete(&models.RefreshToken{}, id).Error
}

func (r *RefreshTokenRepo) FindAllByOwner(ctx context.Context, ownerID uint, kind models.Kind) ([]models.RefreshToken, error) {
	var out []models.RefreshToken
	err := r.DB.WithContext(ctx).
		Where("owner_id = ? AND owner_kind = ?", ownerID, kind).
		Order("id").
		Find(&out).Error
	return out, err
}

// Rotate deletes the consumed token and stores its successor in one
// transaction. Only the caller whose delete removed the row may insert.
func (r *RefreshTokenRepo) Rotate(ctx context.Context, oldID uint, next *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.RefreshToken{}, oldID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return service.ErrInvalidToken
		}

		return translate(tx.Create(next).Error)
	})
}
