package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

const examSubmissionPath = "/api/v1/hine-exams"

// BodyLimit caps request bodies. Exam submissions carry every module response
// and all free-text comments in one document, so POST /api/v1/hine-exams gets
// examLimit; everything else gets defaultLimit. Limits use echo's size syntax
// ("512K", "1M", "4MB") and an unparsable limit panics at construction.
//
// Oversized bodies fail with a 413 echo.HTTPError, rendered as kind too_large.
func BodyLimit(defaultLimit, examLimit string) echo.MiddlewareFunc {
	general := echomw.BodyLimitWithConfig(echomw.BodyLimitConfig{
		Limit:   defaultLimit,
		Skipper: isExamSubmission,
	})
	exam := echomw.BodyLimitWithConfig(echomw.BodyLimitConfig{
		Limit:   examLimit,
		Skipper: func(c echo.Context) bool { return !isExamSubmission(c) },
	})
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return general(exam(next))
	}
}

func isExamSubmission(c echo.Context) bool {
	r := c.Request()
	return r.Method == http.MethodPost && strings.TrimSuffix(r.URL.Path, "/") == examSubmissionPath
}
