package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// RequestTimeout puts a deadline on each request context. Repositories pass
// that context to pgx, so a slow query is cancelled and the handler error is
// turned into a 504. Document downloads (paths ending in /pdf or /xlsx)
// render whole exam histories and get documentTimeout when it is positive.
func RequestTimeout(timeout, documentTimeout time.Duration) echo.MiddlewareFunc {
	if documentTimeout <= 0 {
		documentTimeout = timeout
	}
	api := echomw.ContextTimeoutWithConfig(echomw.ContextTimeoutConfig{
		Skipper:      isDocumentRequest,
		Timeout:      timeout,
		ErrorHandler: timeoutError,
	})
	documents := echomw.ContextTimeoutWithConfig(echomw.ContextTimeoutConfig{
		Skipper:      func(c echo.Context) bool { return !isDocumentRequest(c) },
		Timeout:      documentTimeout,
		ErrorHandler: timeoutError,
	})
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return api(documents(next))
	}
}

func isDocumentRequest(c echo.Context) bool {
	return isDocumentPath(c.Request().URL.Path)
}

func isDocumentPath(path string) bool {
	return strings.HasSuffix(path, "/pdf") || strings.HasSuffix(path, "/xlsx")
}

func timeoutError(err error, c echo.Context) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return echo.NewHTTPError(http.StatusGatewayTimeout,
			"request processing exceeded the allowed time limit").SetInternal(err)
	}
	return err
}
