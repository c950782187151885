package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/tokens"
	"github.com/Skotchmaster/bookstore/pkg/logging"
)

type TokenService struct {
	Signer     *tokens.Signer
	Store      RefreshTokenStore
	RefreshTTL time.Duration
	Now        func() time.Time
}

type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *TokenService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return tokens.RefreshTTL
}

// newRefresh returns the client value and the row that stores its digest.
func (s *TokenService) newRefresh(ownerID uint, kind models.Kind) (string, *models.RefreshToken, error) {
	value, err := tokens.GenerateRefreshToken()
	if err != nil {
		return "", nil, err
	}
	return value, &models.RefreshToken{
		Token:     tokens.Digest(value),
		OwnerID:   ownerID,
		OwnerKind: kind,
		ExpiresAt: s.now().Add(s.refreshTTL()),
	}, nil
}

func (s *TokenService) pair(access string, accessExp time.Time, refresh string, rt *models.RefreshToken) *TokenPair {
	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: rt.ExpiresAt,
		ExpiresIn:        int64(s.Signer.TTL() / time.Second),
	}
}

// Issue mints an access token for p and stores a new refresh token.
func (s *TokenService) Issue(ctx context.Context, p models.Principal) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "token.issue", "kind", p.PrincipalKind())

	access, accessExp, err := s.Signer.IssueAccessToken(p)
	if err != nil {
		l.Error("issue_failed", "error", err)
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	refresh, rt, err := s.newRefresh(p.PrincipalID(), p.PrincipalKind())
	if err != nil {
		l.Error("issue_failed", "error", err)
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	if err := s.Store.Create(ctx, rt); err != nil {
		l.Error("issue_failed", "error", err)
		return nil, storeErr("create refresh token", err)
	}

	return s.pair(access, accessExp, refresh, rt), nil
}

// Refresh exchanges an access token, expired or not, and its refresh token
// for a new pair. The refresh token is consumed: a second use fails with
// ErrInvalidToken.
func (s *TokenService) Refresh(ctx context.Context, kind models.Kind, accessToken, refreshToken string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "token.refresh", "kind", kind)

	claims, err := s.Signer.ValidateExpired(accessToken)
	if err != nil {
		l.Warn("refresh_rejected", "reason", "access token invalid", "error", err)
		return nil, ErrInvalidToken
	}
	id, err := claims.PrincipalID()
	if err != nil {
		l.Warn("refresh_rejected", "reason", "subject not numeric")
		return nil, ErrInvalidToken
	}
	if claims.Kind != kind {
		l.Warn("refresh_rejected", "reason", "principal kind mismatch", "token_kind", claims.Kind)
		return nil, ErrInvalidToken
	}

	stored, err := s.Store.FindByValue(ctx, tokens.Digest(refreshToken))
	if err != nil {
		l.Error("refresh_failed", "status", 500, "error", err)
		return nil, storeErr("refresh token by value", err)
	}
	if reason := rejectRefresh(stored, id, kind, s.now()); reason != "" {
		l.Warn("refresh_rejected", "reason", reason, "principal_id", id)
		return nil, ErrInvalidToken
	}

	access, accessExp, err := s.Signer.IssueAccessTokenFromClaims(claims)
	if err != nil {
		l.Error("refresh_failed", "status", 500, "error", err)
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, next, err := s.newRefresh(id, kind)
	if err != nil {
		l.Error("refresh_failed", "status", 500, "error", err)
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	if err := s.Store.Rotate(ctx, stored.ID, next); err != nil {
		if errors.Is(err, ErrInvalidToken) {
			l.Warn("refresh_rejected", "reason", "refresh token already used", "principal_id", id)
			return nil, ErrInvalidToken
		}
		l.Error("refresh_failed", "status", 500, "error", err)
		return nil, storeErr("rotate refresh token", err)
	}

	l.Info("tokens_refreshed", "principal_id", id)
	return s.pair(access, accessExp, refresh, next), nil
}

func rejectRefresh(stored *models.RefreshToken, id uint, kind models.Kind, now time.Time) string {
	switch {
	case stored == nil:
		return "refresh token not found"
	case stored.OwnerID != id:
		return "owner mismatch"
	case stored.OwnerKind != kind:
		return "owner kind mismatch"
	case !stored.Live(now):
		return "refresh token expired"
	}
	return ""
}

// Revoke deletes a refresh token. Unknown tokens are ignored.
func (s *TokenService) Revoke(ctx context.Context, refreshToken string) error {
	l := logging.FromContext(ctx).With("svc", "token.revoke")

	stored, err := s.Store.FindByValue(ctx, tokens.Digest(refreshToken))
	if err != nil {
		l.Error("revoke_failed", "error", err)
		return storeErr("refresh token by value", err)
	}
	if stored == nil {
		l.Debug("revoke_skipped", "reason", "refresh token not found")
		return nil
	}
	if err := s.Store.DeleteByID(ctx, stored.ID); err != nil {
		l.Error("revoke_failed", "error", err)
		return storeErr("delete refresh token", err)
	}
	return nil
}

// RevokeAll deletes every refresh token of a principal and reports how many
// were removed.
func (s *TokenService) RevokeAll(ctx context.Context, ownerID uint, kind models.Kind) (int, error) {
	all, err := s.Store.FindAllByOwner(ctx, ownerID, kind)
	if err != nil {
		return 0, storeErr("refresh tokens by owner", err)
	}
	for i, rt := range all {
		if err := s.Store.DeleteByID(ctx, rt.ID); err != nil {
			return i, storeErr("delete refresh token", err)
		}
	}
	return len(all), nil
}
