package tokens

import (
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Skotchmaster/bookstore/internal/models"
)

type AccessClaims struct {
	Email string      `json:"email"`
	Name  string      `json:"name"`
	Role  string      `json:"role"`
	Kind  models.Kind `json:"kind"`
	jwt.RegisteredClaims
}

func claimsFor(p models.Principal) AccessClaims {
	return AccessClaims{
		Email: p.PrincipalEmail(),
		Name:  p.FullName(),
		Role:  p.PrincipalRole(),
		Kind:  p.PrincipalKind(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: strconv.FormatUint(uint64(p.PrincipalID()), 10),
		},
	}
}

// PrincipalID parses the numeric subject claim.
func (c *AccessClaims) PrincipalID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 0)
	if err != nil || id == 0 {
		return 0, ErrInvalidToken
	}
	return uint(id), nil
}
