package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/tokens"
	"github.com/Skotchmaster/bookstore/pkg/logging"
)

type AuthService struct {
	Users       UserStore
	Admins      AdminStore
	Hasher      PasswordHasher
	AdminSecret string
	Notifier    Notifier
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

type RegisterAdminInput struct {
	RegisterInput
	ExternalID string
	SecretKey  string
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func secretMatches(configured, supplied string) bool {
	if configured == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(supplied)) == 1
}

func (s *AuthService) RegisterUser(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := NormalizeEmail(in.Email)
	l := logging.FromContext(ctx).With("svc", "auth.register_user")

	exists, err := s.Users.Exists(ctx, email)
	if err != nil {
		l.Error("register_error", "status", 500, "error", err)
		return nil, storeErr("user exists", err)
	}
	if exists {
		l.Warn("register_error", "status", 409, "reason", "email already registered")
		return nil, ErrAlreadyExists
	}

	pwHash, err := hashPassword(ctx, s.Hasher, l, "register_error", in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        email,
		PasswordHash: pwHash,
		Role:         models.RoleUser,
	}
	if err := s.Users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			l.Warn("register_error", "status", 409, "reason", "email already registered")
			return nil, ErrAlreadyExists
		}
		l.Error("register_error", "status", 500, "error", err)
		return nil, storeErr("create user", err)
	}

	l.Info("user_registered", "user_id", user.ID)
	notify(ctx, "user_registered", func() error { return orNop(s.Notifier).PrincipalRegistered(ctx, user) })
	return user, nil
}

func (s *AuthService) RegisterAdmin(ctx context.Context, in RegisterAdminInput) (*models.Admin, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register_admin")

	if !secretMatches(s.AdminSecret, in.SecretKey) {
		l.Warn("register_error", "status", 401, "reason", "admin secret mismatch")
		return nil, ErrUnauthorized
	}

	admin, err := createAdmin(ctx, l, s.Admins, s.Hasher, in.RegisterInput, in.ExternalID, tokens.Digest(in.SecretKey))
	if err != nil {
		return nil, err
	}

	l.Info("admin_registered", "admin_id", admin.ID)
	notify(ctx, "admin_registered", func() error { return orNop(s.Notifier).PrincipalRegistered(ctx, admin) })
	return admin, nil
}

// createAdmin stores a new admin after the email and external id checks.
// secretDigest is kept on the row as given.
func createAdmin(ctx context.Context, l *slog.Logger, admins AdminStore, hasher PasswordHasher, in RegisterInput, externalID, secretDigest string) (*models.Admin, error) {
	email := NormalizeEmail(in.Email)

	exists, err := admins.Exists(ctx, email)
	if err != nil {
		l.Error("register_error", "status", 500, "error", err)
		return nil, storeErr("admin exists", err)
	}
	if exists {
		l.Warn("register_error", "status", 409, "reason", "email already registered")
		return nil, ErrAlreadyExists
	}

	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		externalID = uuid.NewString()
	} else {
		taken, err := admins.FindByExternalID(ctx, externalID)
		if err != nil {
			l.Error("register_error", "status", 500, "error", err)
			return nil, storeErr("admin by external id", err)
		}
		if taken != nil {
			l.Warn("register_error", "status", 409, "reason", "external id already registered")
			return nil, ErrAlreadyExists
		}
	}

	pwHash, err := hashPassword(ctx, hasher, l, "register_error", in.Password)
	if err != nil {
		return nil, err
	}

	admin := &models.Admin{
		ExternalID:   externalID,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        email,
		PasswordHash: pwHash,
		SecretKey:    secretDigest,
		Role:         models.RoleAdmin,
	}
	if err := admins.Create(ctx, admin); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			l.Warn("register_error", "status", 409, "reason", "email or external id already registered")
			return nil, ErrAlreadyExists
		}
		l.Error("register_error", "status", 500, "error", err)
		return nil, storeErr("create admin", err)
	}
	return admin, nil
}

func (s *AuthService) LoginUser(ctx context.Context, email, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "kind", models.KindUser)

	user, err := s.Users.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, storeErr("user by email", err)
	}

	var stored string
	if user != nil {
		stored = user.PasswordHash
	}
	if err := s.verify(ctx, l, stored, password, user != nil); err != nil {
		return nil, err
	}

	l.Info("login_successful", "user_id", user.ID)
	notify(ctx, "user_logged_in", func() error { return orNop(s.Notifier).LoggedIn(ctx, user) })
	return user, nil
}

func (s *AuthService) LoginAdmin(ctx context.Context, email, password string) (*models.Admin, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "kind", models.KindAdmin)

	admin, err := s.Admins.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		l.Error("login_failed", "status", 500, "error", err)
		return nil, storeErr("admin by email", err)
	}

	var stored string
	if admin != nil {
		stored = admin.PasswordHash
	}
	if err := s.verify(ctx, l, stored, password, admin != nil); err != nil {
		return nil, err
	}

	l.Info("login_successful", "admin_id", admin.ID)
	notify(ctx, "admin_logged_in", func() error { return orNop(s.Notifier).LoggedIn(ctx, admin) })
	return admin, nil
}

// hashPassword keeps an over-long password a caller error and wraps every
// other hasher failure.
func hashPassword(ctx context.Context, h PasswordHasher, l *slog.Logger, event, password string) (string, error) {
	pwHash, err := h.HashPassword(ctx, password)
	switch {
	case err == nil:
		return pwHash, nil
	case errors.Is(err, ErrPasswordTooLong):
		l.Warn(event, "status", 400, "reason", "password too long")
		return "", ErrPasswordTooLong
	default:
		l.Error(event, "status", 500, "reason", "cannot hash the password", "error", err)
		return "", fmt.Errorf("hash password: %w", err)
	}
}

// verify runs the hash comparison even when the account is missing, so both
// failure causes cost the same and return the same error.
func (s *AuthService) verify(ctx context.Context, l *slog.Logger, stored, password string, found bool) error {
	ok, err := s.Hasher.CheckPassword(ctx, stored, password)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot check the password", "error", err)
		return fmt.Errorf("check password: %w", err)
	}
	if !found || !ok {
		l.Warn("login_failed", "status", 401, "reason", "invalid email or password")
		return ErrInvalidCredentials
	}
	return nil
}

// Principal loads the account behind an authenticated request.
func (s *AuthService) Principal(ctx context.Context, kind models.Kind, id uint) (models.Principal, error) {
	switch kind {
	case models.KindUser:
		u, err := s.Users.FindByID(ctx, id)
		if err != nil {
			return nil, storeErr("user by id", err)
		}
		if u == nil {
			return nil, ErrNotFound
		}
		return u, nil
	case models.KindAdmin:
		a, err := s.Admins.FindByID(ctx, id)
		if err != nil {
			return nil, storeErr("admin by id", err)
		}
		if a == nil {
			return nil, ErrNotFound
		}
		return a, nil
	default:
		return nil, fmt.Errorf("%w: unknown principal kind %q", ErrInvalidToken, kind)
	}
}
