package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/bookstore/internal/service"
)

// httpError maps a service error to its response. Unexpected errors only
// show their detail when dev is set.
func httpError(err error, dev bool) *echo.HTTPError {
	var (
		code int
		msg  string
	)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		code, msg = http.StatusUnauthorized, "invalid email or password"
	case errors.Is(err, service.ErrInvalidToken):
		code, msg = http.StatusUnauthorized, "invalid or expired token"
	case errors.Is(err, service.ErrUnauthorized):
		code, msg = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, service.ErrNotFound):
		code, msg = http.StatusNotFound, "not found"
	case errors.Is(err, service.ErrAlreadyExists):
		code, msg = http.StatusConflict, "already exists"
	case errors.Is(err, service.ErrPasswordTooLong):
		code, msg = http.StatusBadRequest, "password must be at most 72 bytes"
	default:
		code, msg = http.StatusInternalServerError, "internal server error"
		if dev {
			msg = msg + ": " + err.Error()
		}
	}
	return echo.NewHTTPError(code, msg).SetInternal(err)
}

func badRequest(msg string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, msg)
}
