package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/pkg/logging"
)

const ResetTTL = time.Hour

// SessionRevoker drops every refresh token of a principal.
type SessionRevoker interface {
	RevokeAll(ctx context.Context, ownerID uint, kind models.Kind) (int, error)
}

type ResetService struct {
	Users       UserStore
	Admins      AdminStore
	Resets      PasswordResetStore
	Hasher      PasswordHasher
	Sessions    SessionRevoker
	Notifier    Notifier
	AdminSecret string
	// ResetURL is the page the emailed link points at; the token is added
	// as the "token" query parameter.
	ResetURL string
	TTL      time.Duration
	Now      func() time.Time
}

type ResetTicket struct {
	Token     uuid.UUID
	Link      string
	ExpiresAt time.Time
}

func (s *ResetService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *ResetService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return ResetTTL
}

func (s *ResetService) link(token uuid.UUID) (string, error) {
	u, err := url.Parse(s.ResetURL)
	if err != nil {
		return "", fmt.Errorf("%w: reset url: %w", ErrConfiguration, err)
	}
	q := u.Query()
	q.Set("token", token.String())
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// SendForgotPasswordLink stores a single-use reset token for email and hands
// the link to the notifier. adminSecret is only checked for KindAdmin.
func (s *ResetService) SendForgotPasswordLink(ctx context.Context, kind models.Kind, email, adminSecret string) (*ResetTicket, error) {
	email = NormalizeEmail(email)
	l := logging.FromContext(ctx).With("svc", "reset.forgot_password", "kind", kind)

	var (
		exists bool
		err    error
	)
	switch kind {
	case models.KindAdmin:
		if !secretMatches(s.AdminSecret, adminSecret) {
			l.Warn("forgot_password_rejected", "status", 401, "reason", "admin secret mismatch")
			return nil, ErrUnauthorized
		}
		exists, err = s.Admins.Exists(ctx, email)
	case models.KindUser:
		exists, err = s.Users.Exists(ctx, email)
	default:
		return nil, fmt.Errorf("unknown principal kind %q", kind)
	}
	if err != nil {
		l.Error("forgot_password_failed", "status", 500, "error", err)
		return nil, storeErr("principal exists", err)
	}
	if !exists {
		l.Warn("forgot_password_rejected", "status", 404, "reason", "no account for email")
		return nil, ErrNotFound
	}

	rec := &models.PasswordReset{
		Token:     uuid.New(),
		Email:     email,
		Kind:      kind,
		ExpiresAt: s.now().Add(s.ttl()),
	}
	link, err := s.link(rec.Token)
	if err != nil {
		l.Error("forgot_password_failed", "status", 500, "error", err)
		return nil, err
	}
	if err := s.Resets.Create(ctx, rec); err != nil {
		l.Error("forgot_password_failed", "status", 500, "error", err)
		return nil, storeErr("create password reset", err)
	}

	l.Info("reset_link_issued", "expires_at", rec.ExpiresAt)
	notify(ctx, "password_reset_requested", func() error {
		return orNop(s.Notifier).PasswordResetRequested(ctx, PasswordResetNotice{
			Email:     email,
			Kind:      kind,
			Link:      link,
			ExpiresAt: rec.ExpiresAt,
		})
	})

	return &ResetTicket{Token: rec.Token, Link: link, ExpiresAt: rec.ExpiresAt}, nil
}

// ResetPassword consumes a reset token, sets the new password and ends every
// session of the account. The token is consumed before the password changes,
// so concurrent calls with one token have a single winner.
func (s *ResetService) ResetPassword(ctx context.Context, token, newPassword string) error {
	l := logging.FromContext(ctx).With("svc", "reset.reset_password")

	id, err := uuid.Parse(token)
	if err != nil {
		l.Warn("reset_rejected", "reason", "not_found", "detail", "malformed token")
		return ErrInvalidToken
	}
	rec, err := s.Resets.FindByToken(ctx, id)
	if err != nil {
		l.Error("reset_failed", "status", 500, "error", err)
		return storeErr("password reset by token", err)
	}
	if rec == nil {
		l.Warn("reset_rejected", "reason", "not_found")
		return ErrInvalidToken
	}
	if rec.Expired(s.now()) {
		l.Warn("reset_rejected", "reason", "expired", "expired_at", rec.ExpiresAt)
		return ErrInvalidToken
	}

	principal, err := s.resolve(ctx, rec)
	if err != nil {
		l.Error("reset_failed", "status", 500, "error", err)
		return err
	}
	if principal == nil {
		l.Warn("reset_rejected", "reason", "no account for email")
		return ErrInvalidToken
	}

	pwHash, err := hashPassword(ctx, s.Hasher, l, "reset_failed", newPassword)
	if err != nil {
		return err
	}

	if err := s.Resets.Consume(ctx, rec.Token); err != nil {
		if errors.Is(err, ErrInvalidToken) {
			l.Warn("reset_rejected", "reason", "already_used")
			return ErrInvalidToken
		}
		l.Error("reset_failed", "status", 500, "error", err)
		return storeErr("consume password reset", err)
	}

	switch p := principal.(type) {
	case *models.User:
		p.PasswordHash = pwHash
		err = s.Users.Update(ctx, p)
	case *models.Admin:
		p.PasswordHash = pwHash
		err = s.Admins.Update(ctx, p)
	}
	if err != nil {
		l.Error("reset_failed", "status", 500, "error", err)
		return storeErr("update password", err)
	}

	if s.Sessions != nil {
		n, err := s.Sessions.RevokeAll(ctx, principal.PrincipalID(), principal.PrincipalKind())
		if err != nil {
			l.Error("reset_failed", "status", 500, "reason", "cannot revoke sessions", "error", err)
			return err
		}
		l.Debug("sessions_revoked", "count", n)
	}

	l.Info("password_reset", "kind", principal.PrincipalKind(), "principal_id", principal.PrincipalID())
	notify(ctx, "password_changed", func() error { return orNop(s.Notifier).PasswordChanged(ctx, principal) })
	return nil
}

// resolve finds the account a reset record targets. Records without a kind
// check users before admins.
func (s *ResetService) resolve(ctx context.Context, rec *models.PasswordReset) (models.Principal, error) {
	if rec.Kind != models.KindAdmin {
		u, err := s.Users.FindByEmail(ctx, rec.Email)
		if err != nil {
			return nil, storeErr("user by email", err)
		}
		if u != nil {
			return u, nil
		}
		if rec.Kind == models.KindUser {
			return nil, nil
		}
	}

	a, err := s.Admins.FindByEmail(ctx, rec.Email)
	if err != nil {
		return nil, storeErr("admin by email", err)
	}
	if a == nil {
		return nil, nil
	}
	return a, nil
}

// PurgeExpired removes reset records whose expiry has passed.
func (s *ResetService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.Resets.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, storeErr("delete expired password resets", err)
	}
	if n > 0 {
		logging.FromContext(ctx).Info("password_resets_purged", "count", n)
	}
	return n, nil
}
