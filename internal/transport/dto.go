package transport

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/service"
	"github.com/Skotchmaster/bookstore/pkg/hash"
)

const MinPasswordLen = 6

type RegisterRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

func (r *RegisterRequest) Validate() error {
	if err := validEmail(r.Email); err != nil {
		return err
	}
	return validNewPassword(r.Password)
}

func (r *RegisterRequest) Input() service.RegisterInput {
	return service.RegisterInput{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Password:  r.Password,
	}
}

type RegisterAdminRequest struct {
	RegisterRequest
	ExternalID string `json:"external_id"`
	SecretKey  string `json:"secret_key"`
}

func (r *RegisterAdminRequest) Input() service.RegisterAdminInput {
	return service.RegisterAdminInput{
		RegisterInput: r.RegisterRequest.Input(),
		ExternalID:    r.ExternalID,
		SecretKey:     r.SecretKey,
	}
}

type CreateAdminRequest struct {
	RegisterRequest
	ExternalID string `json:"external_id"`
}

type UpdateAdminRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
}

func (r *UpdateAdminRequest) Validate() error {
	if r.Email != nil {
		return validEmail(*r.Email)
	}
	return nil
}

func (r *UpdateAdminRequest) Update() service.AdminUpdate {
	return service.AdminUpdate{FirstName: r.FirstName, LastName: r.LastName, Email: r.Email}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	if err := validEmail(r.Email); err != nil {
		return err
	}
	if r.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

type RefreshRequest struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (r *RefreshRequest) Validate() error {
	if r.AccessToken == "" || r.RefreshToken == "" {
		return errors.New("access_token and refresh_token are required")
	}
	return nil
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ForgotPasswordRequest struct {
	Email     string `json:"email"`
	SecretKey string `json:"secret_key"`
}

func (r *ForgotPasswordRequest) Validate() error {
	return validEmail(r.Email)
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (r *ResetPasswordRequest) Validate() error {
	if strings.TrimSpace(r.Token) == "" {
		return errors.New("token is required")
	}
	return validNewPassword(r.NewPassword)
}

type PrincipalView struct {
	ID         uint        `json:"id"`
	Email      string      `json:"email"`
	Name       string      `json:"name"`
	Role       string      `json:"role"`
	Kind       models.Kind `json:"kind"`
	ExternalID string      `json:"external_id,omitempty"`
}

func ViewOf(p models.Principal) PrincipalView {
	v := PrincipalView{
		ID:    p.PrincipalID(),
		Email: p.PrincipalEmail(),
		Name:  p.FullName(),
		Role:  p.PrincipalRole(),
		Kind:  p.PrincipalKind(),
	}
	if a, ok := p.(*models.Admin); ok {
		v.ExternalID = a.ExternalID
	}
	return v
}

type ListResponse struct {
	Count   int             `json:"count"`
	Results []PrincipalView `json:"results"`
}

// ListOf renders a slice of stored accounts, e.g. []models.User.
func ListOf[T any, P interface {
	*T
	models.Principal
}](items []T) ListResponse {
	out := ListResponse{Count: len(items), Results: make([]PrincipalView, 0, len(items))}
	for i := range items {
		out.Results = append(out.Results, ViewOf(P(&items[i])))
	}
	return out
}

type TokenResponse struct {
	AccessToken      string         `json:"access_token"`
	RefreshToken     string         `json:"refresh_token"`
	TokenType        string         `json:"token_type"`
	ExpiresIn        int64          `json:"expires_in"`
	AccessExpiresAt  time.Time      `json:"access_expires_at"`
	RefreshExpiresAt time.Time      `json:"refresh_expires_at"`
	Principal        *PrincipalView `json:"user,omitempty"`
}

func NewTokenResponse(pair *service.TokenPair, p models.Principal) TokenResponse {
	resp := TokenResponse{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		TokenType:        "Bearer",
		ExpiresIn:        pair.ExpiresIn,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}
	if p != nil {
		v := ViewOf(p)
		resp.Principal = &v
	}
	return resp
}

func validEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errors.New("email is not a valid address")
	}
	return nil
}

func validNewPassword(pw string) error {
	if len(pw) < MinPasswordLen {
		return errors.New("password must be at least 6 characters")
	}
	if len(pw) > hash.MaxPasswordBytes {
		return errors.New("password must be at most 72 bytes")
	}
	return nil
}
