package tokens

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Skotchmaster/bookstore/internal/models"
)

const AccessTTL = 30 * time.Minute

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrConfiguration = errors.New("configuration error")
)

var signingMethod = jwt.SigningMethodHS512

type SignerConfig struct {
	Key      []byte
	Issuer   string
	Audience string
	TTL      time.Duration
	Now      func() time.Time
}

// Signer mints and verifies HS512 access tokens. It holds no mutable state
// and is safe for concurrent use.
type Signer struct {
	key      []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

func NewSigner(cfg SignerConfig) (*Signer, error) {
	if len(cfg.Key) == 0 {
		return nil, fmt.Errorf("%w: signing key is empty", ErrConfiguration)
	}
	if strings.TrimSpace(cfg.Issuer) == "" || strings.TrimSpace(cfg.Audience) == "" {
		return nil, fmt.Errorf("%w: token issuer and audience are required", ErrConfiguration)
	}
	if cfg.TTL <= 0 {
		cfg.TTL = AccessTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Signer{
		key:      slices.Clone(cfg.Key),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      cfg.TTL,
		now:      cfg.Now,
	}, nil
}

// TTL is the lifetime of every access token this signer mints.
func (s *Signer) TTL() time.Duration { return s.ttl }

func (s *Signer) IssueAccessToken(p models.Principal) (string, time.Time, error) {
	claims := claimsFor(p)
	return s.sign(&claims)
}

// IssueAccessTokenFromClaims re-mints a token for the identity in c with a
// fresh jti and validity window. c is not modified.
func (s *Signer) IssueAccessTokenFromClaims(c *AccessClaims) (string, time.Time, error) {
	if c == nil {
		return "", time.Time{}, ErrInvalidToken
	}
	claims := AccessClaims{
		Email: c.Email,
		Name:  c.Name,
		Role:  strings.ToUpper(c.Role),
		Kind:  c.Kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: c.Subject,
		},
	}
	return s.sign(&claims)
}

func (s *Signer) sign(claims *AccessClaims) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)

	claims.Role = strings.ToUpper(claims.Role)
	claims.ID = uuid.NewString()
	claims.Issuer = s.issuer
	claims.Audience = jwt.ClaimStrings{s.audience}
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.NotBefore = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(exp)

	token, err := jwt.NewWithClaims(signingMethod, claims).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return token, exp, nil
}

// Validate fully checks token: signature, algorithm, issuer, audience and
// validity window.
func (s *Signer) Validate(token string) (*AccessClaims, error) {
	var claims AccessClaims
	_, err := jwt.ParseWithClaims(token, &claims, s.keyFunc,
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
		jwt.WithStrictDecoding(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return &claims, nil
}

// ValidateExpired checks everything Validate does except the expiry, so an
// access token that ran out can still be exchanged during refresh.
func (s *Signer) ValidateExpired(token string) (*AccessClaims, error) {
	var claims AccessClaims
	_, err := jwt.ParseWithClaims(token, &claims, s.keyFunc,
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithoutClaimsValidation(),
		jwt.WithStrictDecoding(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if claims.Issuer != s.issuer {
		return nil, fmt.Errorf("%w: issuer mismatch", ErrInvalidToken)
	}
	if !slices.Contains(claims.Audience, s.audience) {
		return nil, fmt.Errorf("%w: audience mismatch", ErrInvalidToken)
	}
	if claims.NotBefore != nil && s.now().Before(claims.NotBefore.Time) {
		return nil, fmt.Errorf("%w: token used before nbf", ErrInvalidToken)
	}
	return &claims, nil
}

func (s *Signer) keyFunc(t *jwt.Token) (any, error) {
	if t.Method.Alg() != signingMethod.Alg() {
		return nil, errors.New("unexpected sign method")
	}
	return s.key, nil
}
