package authmw

import (
	"net/http"
	"slices"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/tokens"
	"github.com/Skotchmaster/bookstore/pkg/logging"
)

const (
	CtxUserID = "user_id"
	CtxRole   = "role"
	CtxKind   = "kind"
	CtxClaims = "claims"
)

type Validator interface {
	Validate(token string) (*tokens.AccessClaims, error)
}

// RequireAuth accepts requests carrying a valid "Authorization: Bearer"
// access token and stores its identity on the echo context.
func RequireAuth(v Validator) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  CtxClaims,
		TokenLookup: "header:Authorization:Bearer ",
		ParseTokenFunc: func(c echo.Context, auth string) (any, error) {
			claims, err := v.Validate(auth)
			if err != nil {
				return nil, err
			}
			id, err := claims.PrincipalID()
			if err != nil {
				return nil, err
			}

			c.Set(CtxUserID, id)
			c.Set(CtxRole, claims.Role)
			c.Set(CtxKind, claims.Kind)
			return claims, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			logging.FromContext(c.Request().Context()).Warn("auth_rejected", "status", 401, "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		},
	})
}

func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(CtxRole).(string)
			if role == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing role")
			}
			if !slices.Contains(roles, role) {
				return echo.NewHTTPError(http.StatusForbidden, "you don't have enough rights to see this page")
			}
			return next(c)
		}
	}
}

// Identity returns what RequireAuth stored for the request.
func Identity(c echo.Context) (id uint, kind models.Kind, ok bool) {
	id, ok = c.Get(CtxUserID).(uint)
	if !ok {
		return 0, "", false
	}
	kind, ok = c.Get(CtxKind).(models.Kind)
	return id, kind, ok
}
