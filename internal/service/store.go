package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/bookstore/internal/models"
)

// Find* methods of every store return (nil, nil) when nothing matches.

type UserStore interface {
	Exists(ctx context.Context, email string) (bool, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	// Create returns an error wrapping ErrAlreadyExists on a unique violation.
	Create(ctx context.Context, u *models.User) error
	Update(ctx context.Context, u *models.User) error
}

type AdminStore interface {
	Exists(ctx context.Context, email string) (bool, error)
	FindByEmail(ctx context.Context, email string) (*models.Admin, error)
	FindByID(ctx context.Context, id uint) (*models.Admin, error)
	FindByExternalID(ctx context.Context, externalID string) (*models.Admin, error)
	List(ctx context.Context) ([]models.Admin, error)
	Create(ctx context.Context, a *models.Admin) error
	Update(ctx context.Context, a *models.Admin) error
	// Delete is a no-op for an unknown id.
	Delete(ctx context.Context, id uint) error
}

// RefreshTokenStore persists refresh tokens by their digest.
type RefreshTokenStore interface {
	Create(ctx context.Context, t *models.RefreshToken) error
	FindByValue(ctx context.Context, digest string) (*models.RefreshToken, error)
	DeleteByID(ctx context.Context, id uint) error
	FindAllByOwner(ctx context.Context, ownerID uint, kind models.Kind) ([]models.RefreshToken, error)
	// Rotate deletes oldID and inserts next atomically. It returns
	// ErrInvalidToken when oldID was already gone.
	Rotate(ctx context.Context, oldID uint, next *models.RefreshToken) error
}

type PasswordResetStore interface {
	Create(ctx context.Context, r *models.PasswordReset) error
	FindByToken(ctx context.Context, token uuid.UUID) (*models.PasswordReset, error)
	// Consume removes the record for token. Only one caller can consume a
	// record; the others get ErrInvalidToken.
	Consume(ctx context.Context, token uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type PasswordHasher interface {
	HashPassword(ctx context.Context, password string) (string, error)
	CheckPassword(ctx context.Context, hash, password string) (bool, error)
}
