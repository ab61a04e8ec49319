package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hine/hine/internal/platform/apperr"
)

// httpErrorBody is the envelope for framework errors (routing, auth, limits)
// that never passed through a service.
type httpErrorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// errorKindKey holds the kind ErrorHandler wrote, for errors that were
// handled inside the chain through c.Error and never returned.
const errorKindKey = "error_kind"

// statusOf returns the status an error will be written with.
func statusOf(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return apperr.HTTPStatus(err)
}

// errorKind returns the kind an error will be written with.
func errorKind(err error) string {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return kindForStatus(he.Code)
	}
	return string(apperr.KindOf(err))
}

// ErrorHandler returns an echo.HTTPErrorHandler that writes classified
// service errors as {"kind","message","field"} and echo errors with their own
// status. Persistence details are logged, never returned.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		c.Set(errorKindKey, errorKind(err))

		var (
			status int
			body   interface{}
		)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			msg, ok := he.Message.(string)
			if !ok {
				msg = http.StatusText(he.Code)
			}
			body = httpErrorBody{Kind: kindForStatus(he.Code), Message: msg}
		} else {
			status = apperr.HTTPStatus(err)
			body = apperr.ToBody(err)
			if status >= 500 {
				rid, _ := c.Get("request_id").(string)
				logger.Error().Err(err).Str("request_id", rid).Str("route", c.Path()).Msg("request failed")
			}
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, body)
		}
		if werr != nil {
			logger.Error().Err(werr).Msg("failed to write error response")
		}
	}
}

func kindForStatus(code int) string {
	switch code {
	case http.StatusBadRequest:
		return string(apperr.KindValidation)
	case http.StatusNotFound:
		return string(apperr.KindNotFound)
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusRequestEntityTooLarge:
		return "too_large"
	case http.StatusTooManyRequests:
		return "rate_limited"
	case http.StatusGatewayTimeout:
		return "timeout"
	}
	if code >= 500 {
		return string(apperr.KindPersistence)
	}
	return "error"
}
