package models

import (
	"time"

	"github.com/google/uuid"
)

// Kind tags which credential table a principal lives in. It is stored on
// refresh tokens and reset records and carried in access tokens.
type Kind string

const (
	KindUser  Kind = "User"
	KindAdmin Kind = "Admin"
)

func (k Kind) Valid() bool {
	return k == KindUser || k == KindAdmin
}

// Roles are always minted uppercase so role checks are plain string equality.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// RoleFor returns the canonical role of a principal kind.
func RoleFor(k Kind) string {
	if k == KindAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// Principal is the identity shape shared by User and Admin.
type Principal interface {
	PrincipalID() uint
	PrincipalEmail() string
	FullName() string
	PrincipalRole() string
	PrincipalKind() Kind
}

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	FirstName    string    `gorm:"not null"                  json:"first_name"`
	LastName     string    `gorm:"not null"                  json:"last_name"`
	Email        string    `gorm:"uniqueIndex;not null"      json:"email"`
	PasswordHash string    `gorm:"not null"                  json:"-"`
	Role         string    `gorm:"not null;default:USER"     json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) PrincipalID() uint      { return u.ID }
func (u *User) PrincipalEmail() string { return u.Email }
func (u *User) FullName() string       { return fullName(u.FirstName, u.LastName) }
func (u *User) PrincipalRole() string  { return RoleUser }
func (u *User) PrincipalKind() Kind    { return KindUser }

// Admin.SecretKey holds the SHA-256 digest of the secret presented at
// registration, never the secret itself.
type Admin struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	ExternalID   string    `gorm:"uniqueIndex;not null"      json:"external_id"`
	FirstName    string    `gorm:"not null"                  json:"first_name"`
	LastName     string    `gorm:"not null"                  json:"last_name"`
	Email        string    `gorm:"uniqueIndex;not null"      json:"email"`
	PasswordHash string    `gorm:"not null"                  json:"-"`
	SecretKey    string    `gorm:"not null"                  json:"-"`
	Role         string    `gorm:"not null;default:ADMIN"    json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (a *Admin) PrincipalID() uint      { return a.ID }
func (a *Admin) PrincipalEmail() string { return a.Email }
func (a *Admin) FullName() string       { return fullName(a.FirstName, a.LastName) }
func (a *Admin) PrincipalRole() string  { return RoleAdmin }
func (a *Admin) PrincipalKind() Kind    { return KindAdmin }

// RefreshToken.Token is the SHA-256 digest of the value handed to the client.
type RefreshToken struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"        json:"id"`
	Token     string    `gorm:"uniqueIndex;not null"            json:"-"`
	OwnerID   uint      `gorm:"index:idx_refresh_owner;not null" json:"owner_id"`
	OwnerKind Kind      `gorm:"index:idx_refresh_owner;not null" json:"owner_kind"`
	ExpiresAt time.Time `gorm:"not null"                        json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Live reports whether the token can still be exchanged at now.
func (t *RefreshToken) Live(now time.Time) bool {
	return now.Before(t.ExpiresAt)
}

type PasswordReset struct {
	Token     uuid.UUID `gorm:"type:uuid;primaryKey" json:"token"`
	Email     string    `gorm:"index;not null"       json:"email"`
	Kind      Kind      `gorm:"not null"            json:"kind"`
	ExpiresAt time.Time `gorm:"index;not null"       json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the record is past its expiry. A record is still
// usable at the exact expiry instant.
func (p *PasswordReset) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

func fullName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	}
	return first + " " + last
}
