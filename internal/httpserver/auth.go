package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/Skotchmaster/bookstore/internal/middleware/auth"
	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/service"
	"github.com/Skotchmaster/bookstore/internal/transport"
	"github.com/Skotchmaster/bookstore/pkg/logging"
)

type AuthHTTP struct {
	Auth        *service.AuthService
	Tokens      *service.TokenService
	Resets      *service.ResetService
	Accounts    *service.AccountService
	Development bool
}

func (h *AuthHTTP) fail(c echo.Context, event string, err error) error {
	he := httpError(err, h.Development)
	l := logging.FromContext(c.Request().Context())
	if he.Code >= http.StatusInternalServerError {
		l.Error(event, "status", he.Code, "error", err)
	} else {
		l.Warn(event, "status", he.Code, "error", err)
	}
	return he
}

func (h *AuthHTTP) RegisterUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user_register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return badRequest("invalid body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(err.Error())
	}

	user, err := h.Auth.RegisterUser(ctx, req.Input())
	if err != nil {
		return h.fail(c, "register_failed", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":  "Registered",
		"user_id": user.ID,
	})
}

func (h *AuthHTTP) RegisterAdmin(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin_register")

	var req transport.RegisterAdminRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return badRequest("invalid body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(err.Error())
	}

	admin, err := h.Auth.RegisterAdmin(ctx, req.Input())
	if err != nil {
		return h.fail(c, "register_failed", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":      "Registered",
		"user_id":     admin.ID,
		"external_id": admin.ExternalID,
	})
}

// Login returns the login handler for one principal kind.
func (h *AuthHTTP) Login(kind models.Kind) echo.HandlerFunc {
	login := func(ctx context.Context, email, password string) (models.Principal, error) {
		if kind == models.KindAdmin {
			a, err := h.Auth.LoginAdmin(ctx, email, password)
			if err != nil {
				return nil, err
			}
			return a, nil
		}
		u, err := h.Auth.LoginUser(ctx, email, password)
		if err != nil {
			return nil, err
		}
		return u, nil
	}

	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("handler", "auth_login", "kind", kind)

		var req transport.LoginRequest
		if err := c.Bind(&req); err != nil {
			l.Warn("login_error", "status", 400, "error", err)
			return badRequest("invalid body")
		}
		if err := req.Validate(); err != nil {
			return badRequest(err.Error())
		}

		p, err := login(ctx, req.Email, req.Password)
		if err != nil {
			return h.fail(c, "login_failed", err)
		}
		pair, err := h.Tokens.Issue(ctx, p)
		if err != nil {
			return h.fail(c, "login_failed", err)
		}

		l.Info("login_successful", "principal_id", p.PrincipalID())
		return c.JSON(http.StatusOK, transport.NewTokenResponse(pair, p))
	}
}

func (h *AuthHTTP) Refresh(kind models.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("handler", "auth_refresh", "kind", kind)

		var req transport.RefreshRequest
		if err := c.Bind(&req); err != nil {
			l.Warn("refresh_error", "status", 400, "error", err)
			return badRequest("invalid body")
		}
		if err := req.Validate(); err != nil {
			return badRequest(err.Error())
		}

		pair, err := h.Tokens.Refresh(ctx, kind, req.AccessToken, req.RefreshToken)
		if err != nil {
			return h.fail(c, "refresh_failed", err)
		}
		return c.JSON(http.StatusOK, transport.NewTokenResponse(pair, nil))
	}
}

func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	var req transport.LogoutRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("logout_error", "status", 400, "error", err)
		return badRequest("invalid body")
	}
	if req.RefreshToken != "" {
		if err := h.Tokens.Revoke(ctx, req.RefreshToken); err != nil {
			return h.fail(c, "logout_failed", err)
		}
	}

	l.Info("successful_logout")
	return c.JSON(http.StatusOK, echo.Map{
		"message": "logged out",
	})
}

func (h *AuthHTTP) ForgotPassword(kind models.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("handler", "forgot_password", "kind", kind)

		var req transport.ForgotPasswordRequest
		if err := c.Bind(&req); err != nil {
			l.Warn("forgot_password_error", "status", 400, "error", err)
			return badRequest("invalid body")
		}
		if err := req.Validate(); err != nil {
			return badRequest(err.Error())
		}

		if _, err := h.Resets.SendForgotPasswordLink(ctx, kind, req.Email, req.SecretKey); err != nil {
			return h.fail(c, "forgot_password_failed", err)
		}
		return c.JSON(http.StatusOK, echo.Map{
			"status":   "InstructionsSent",
			"validity": "1 hour",
		})
	}
}

func (h *AuthHTTP) ResetPassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "reset_password")

	var req transport.ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("reset_password_error", "status", 400, "error", err)
		return badRequest("invalid body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(err.Error())
	}

	if err := h.Resets.ResetPassword(ctx, req.Token, req.NewPassword); err != nil {
		return h.fail(c, "reset_password_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status": "PasswordReset",
	})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	id, kind, ok := authmw.Identity(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
	}

	p, err := h.Auth.Principal(c.Request().Context(), kind, id)
	if err != nil {
		return h.fail(c, "me_failed", err)
	}
	return c.JSON(http.StatusOK, transport.ViewOf(p))
}
