package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ntuclms/lms-client/internal/api/middleware"
)

// ActionError is a business rule failure. The error handler renders it as
// a 400 with "<Action>: <cause>" as the plain-text body.
type ActionError struct {
	Action string
	Err    error
}

func (e *ActionError) Error() string { return e.Action + ": " + e.Err.Error() }

func (e *ActionError) Unwrap() error { return e.Err }

func fail(action string, err error) error {
	return &ActionError{Action: action, Err: err}
}

// ctxUsername returns the token subject injected by the Auth middleware.
func ctxUsername(c echo.Context) (string, error) {
	username, _ := c.Get(middleware.CtxUsername).(string)
	if username == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return username, nil
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}
