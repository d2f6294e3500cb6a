package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ntuclms/lms-client/internal/api/handler"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that renders every
// error as a plain-text body, the way the library backend reports failures:
//   - echo errors (auth, bind, routing) keep their status and message.
//   - business rule failures become 400 "<action>: <cause>".
//   - anything else is logged and returned as a generic 500.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.String(code, msg)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var ae *handler.ActionError
	if errors.As(err, &ae) {
		return http.StatusBadRequest, ae.Error()
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
