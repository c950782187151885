package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore/internal/transport"
	"github.com/Skotchmaster/bookstore/pkg/logging"
)

func pathID(c echo.Context) (uint, error) {
	var id uint
	if err := echo.PathParamsBinder(c).MustUint("id", &id).BindError(); err != nil {
		return 0, badRequest("invalid id")
	}
	return id, nil
}

func (h *AuthHTTP) ListUsers(c echo.Context) error {
	users, err := h.Accounts.ListUsers(c.Request().Context())
	if err != nil {
		return h.fail(c, "list_users_failed", err)
	}
	return c.JSON(http.StatusOK, transport.ListOf(users))
}

func (h *AuthHTTP) GetUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	u, err := h.Accounts.User(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, "get_user_failed", err)
	}
	return c.JSON(http.StatusOK, transport.ViewOf(u))
}

func (h *AuthHTTP) ListAdmins(c echo.Context) error {
	admins, err := h.Accounts.ListAdmins(c.Request().Context())
	if err != nil {
		return h.fail(c, "list_admins_failed", err)
	}
	return c.JSON(http.StatusOK, transport.ListOf(admins))
}

func (h *AuthHTTP) GetAdmin(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	a, err := h.Accounts.Admin(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, "get_admin_failed", err)
	}
	return c.JSON(http.StatusOK, transport.ViewOf(a))
}

func (h *AuthHTTP) CreateAdmin(c echo.Context) error {
	ctx := c.Request().Context()

	var req transport.CreateAdminRequest
	if err := c.Bind(&req); err != nil {
		logging.FromContext(ctx).Warn("create_admin_error", "status", 400, "error", err)
		return badRequest("invalid body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(err.Error())
	}

	a, err := h.Accounts.CreateAdmin(ctx, req.Input(), req.ExternalID)
	if err != nil {
		return h.fail(c, "create_admin_failed", err)
	}
	return c.JSON(http.StatusCreated, transport.ViewOf(a))
}

func (h *AuthHTTP) UpdateAdmin(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req transport.UpdateAdminRequest
	if err := c.Bind(&req); err != nil {
		logging.FromContext(ctx).Warn("update_admin_error", "status", 400, "error", err)
		return badRequest("invalid body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(err.Error())
	}

	if _, err := h.Accounts.UpdateAdmin(ctx, id, req.Update()); err != nil {
		return h.fail(c, "update_admin_failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHTTP) DeleteAdmin(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.Accounts.DeleteAdmin(c.Request().Context(), id); err != nil {
		return h.fail(c, "delete_admin_failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}
