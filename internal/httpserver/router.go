package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/Skotchmaster/bookstore/internal/middleware/auth"
	"github.com/Skotchmaster/bookstore/internal/models"
)

type Deps struct {
	AuthHandler *AuthHTTP
	Validator   authmw.Validator
	// Ready reports whether the service can take traffic, usually a DB ping.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
			}
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	h := d.AuthHandler
	requireAuth := authmw.RequireAuth(d.Validator)

	users := e.Group("/users")
	users.POST("/register", h.RegisterUser)
	users.POST("/login", h.Login(models.KindUser))
	users.POST("/refresh-token", h.Refresh(models.KindUser))
	users.POST("/logout", h.LogOut)
	users.POST("/forgot-password", h.ForgotPassword(models.KindUser))
	users.POST("/reset-password", h.ResetPassword)
	users.GET("/me", h.Me, requireAuth, authmw.RequireRole(models.RoleUser))

	admin := e.Group("/admin")
	admin.POST("/register", h.RegisterAdmin)
	admin.POST("/login", h.Login(models.KindAdmin))
	admin.POST("/refresh-token", h.Refresh(models.KindAdmin))
	admin.POST("/logout", h.LogOut)
	admin.POST("/forgot-password", h.ForgotPassword(models.KindAdmin))
	admin.POST("/reset-password", h.ResetPassword)
	admin.GET("/me", h.Me, requireAuth, authmw.RequireRole(models.RoleAdmin))

	adminOnly := []echo.MiddlewareFunc{requireAuth, authmw.RequireRole(models.RoleAdmin)}
	admin.GET("/users", h.ListUsers, adminOnly...)
	admin.GET("/users/:id", h.GetUser, adminOnly...)
	admin.GET("/admins", h.ListAdmins, adminOnly...)
	admin.POST("/admins", h.CreateAdmin, adminOnly...)
	admin.GET("/admins/:id", h.GetAdmin, adminOnly...)
	admin.PUT("/admins/:id", h.UpdateAdmin, adminOnly...)
	admin.DELETE("/admins/:id", h.DeleteAdmin, adminOnly...)
}
