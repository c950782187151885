package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/pkg/logging"
)

// AccountService backs the admin-only account management endpoints.
type AccountService struct {
	Users    UserStore
	Admins   AdminStore
	Hasher   PasswordHasher
	Sessions SessionRevoker
	Notifier Notifier
}

// AdminUpdate holds the profile fields to change. Nil fields are kept.
type AdminUpdate struct {
	FirstName *string
	LastName  *string
	Email     *string
}

func (s *AccountService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.Users.List(ctx)
	if err != nil {
		return nil, storeErr("list users", err)
	}
	return users, nil
}

func (s *AccountService) User(ctx context.Context, id uint) (*models.User, error) {
	u, err := s.Users.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("user by id", err)
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

func (s *AccountService) ListAdmins(ctx context.Context) ([]models.Admin, error) {
	admins, err := s.Admins.List(ctx)
	if err != nil {
		return nil, storeErr("list admins", err)
	}
	return admins, nil
}

func (s *AccountService) Admin(ctx context.Context, id uint) (*models.Admin, error) {
	a, err := s.Admins.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("admin by id", err)
	}
	if a == nil {
		return nil, ErrNotFound
	}
	return a, nil
}

// CreateAdmin adds an admin on behalf of an authenticated admin, so no
// registration secret is involved.
func (s *AccountService) CreateAdmin(ctx context.Context, in RegisterInput, externalID string) (*models.Admin, error) {
	l := logging.FromContext(ctx).With("svc", "accounts.create_admin")

	admin, err := createAdmin(ctx, l, s.Admins, s.Hasher, in, externalID, "")
	if err != nil {
		return nil, err
	}

	l.Info("admin_created", "admin_id", admin.ID)
	notify(ctx, "admin_registered", func() error { return orNop(s.Notifier).PrincipalRegistered(ctx, admin) })
	return admin, nil
}

func (s *AccountService) UpdateAdmin(ctx context.Context, id uint, upd AdminUpdate) (*models.Admin, error) {
	l := logging.FromContext(ctx).With("svc", "accounts.update_admin", "admin_id", id)

	admin, err := s.Admin(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.FirstName != nil {
		admin.FirstName = strings.TrimSpace(*upd.FirstName)
	}
	if upd.LastName != nil {
		admin.LastName = strings.TrimSpace(*upd.LastName)
	}
	if upd.Email != nil {
		email := NormalizeEmail(*upd.Email)
		if email != admin.Email {
			exists, err := s.Admins.Exists(ctx, email)
			if err != nil {
				return nil, storeErr("admin exists", err)
			}
			if exists {
				l.Warn("update_error", "status", 409, "reason", "email already registered")
				return nil, ErrAlreadyExists
			}
			admin.Email = email
		}
	}

	if err := s.Admins.Update(ctx, admin); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return nil, ErrAlreadyExists
		}
		l.Error("update_error", "status", 500, "error", err)
		return nil, storeErr("update admin", err)
	}
	l.Info("admin_updated")
	return admin, nil
}

// DeleteAdmin removes an admin and its sessions. Deleting an unknown id
// succeeds.
func (s *AccountService) DeleteAdmin(ctx context.Context, id uint) error {
	l := logging.FromContext(ctx).With("svc", "accounts.delete_admin", "admin_id", id)

	if s.Sessions != nil {
		if _, err := s.Sessions.RevokeAll(ctx, id, models.KindAdmin); err != nil {
			l.Error("delete_error", "status", 500, "reason", "cannot revoke sessions", "error", err)
			return err
		}
	}
	if err := s.Admins.Delete(ctx, id); err != nil {
		l.Error("delete_error", "status", 500, "error", err)
		return storeErr("delete admin", err)
	}
	l.Info("admin_deleted")
	return nil
}
