package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore/internal/models"
)

type UserRepo struct{ DB *gorm.DB }

func (r *UserRepo) Exists(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return first[models.User](r.DB.WithContext(ctx), "email = ?", email)
}

func (r *UserRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	return first[models.User](r.DB.WithContext(ctx), "id = ?", id)
}

func (r *UserRepo) List(ctx context.Context) ([]models.User, error) {
	var out []models.User
	err := r.DB.WithContext(ctx).Order("id").Find(&out).Error
	return out, err
}

func (r *UserRepo) Create(ctx context.Context, u *models.User) error {
	return translate(r.DB.WithContext(ctx).Create(u).Error)
}

func (r *UserRepo) Update(ctx context.Context, u *models.User) error {
	return translate(r.DB.WithContext(ctx).Save(u).Error)
}

type AdminRepo struct{ DB *gorm.DB }

func (r *AdminRepo) Exists(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Admin{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *AdminRepo) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	return first[models.Admin](r.DB.WithContext(ctx), "email = ?", email)
}

func (r *AdminRepo) FindByID(ctx context.Context, id uint) (*models.Admin, error) {
	return first[models.Admin](r.DB.WithContext(ctx), "id = ?", id)
}

func (r *AdminRepo) FindByExternalID(ctx context.Context, externalID string) (*models.Admin, error) {
	return first[models.Admin](r.DB.WithContext(ctx), "external_id = ?", externalID)
}

func (r *AdminRepo) List(ctx context.Context) ([]models.Admin, error) {
	var out []models.Admin
	err := r.DB.WithContext(ctx).Order("id").Find(&out).Error
	return out, err
}

func (r *AdminRepo) Create(ctx context.Context, a *models.Admin) error {
	return translate(r.DB.WithContext(ctx).Create(a).Error)
}

func (r *AdminRepo) Update(ctx context.Context, a *models.Admin) error {
	return translate(r.DB.WithContext(ctx).Save(a).Error)
}

func (r *AdminRepo) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Delete(&models.Admin{}, id).Error
}
