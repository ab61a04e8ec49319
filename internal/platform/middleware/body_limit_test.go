package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// readAll is a handler that consumes the body the way c.Bind does.
func readAll(c echo.Context) error {
	if _, err := io.ReadAll(c.Request().Body); err != nil {
		return err
	}
	return c.NoContent(http.StatusCreated)
}

func TestBodyLimit(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		path    string
		size    int
		chunked bool
		wantErr bool
	}{
		{"small child payload", http.MethodPost, "/api/v1/children", 512, false, false},
		{"child payload over default", http.MethodPost, "/api/v1/children", 2048, false, true},
		{"exam payload over default within exam limit", http.MethodPost, "/api/v1/hine-exams", 2048, false, false},
		{"exam payload with trailing slash", http.MethodPost, "/api/v1/hine-exams/", 2048, false, false},
		{"exam payload over exam limit", http.MethodPost, "/api/v1/hine-exams", 8192, false, true},
		{"exam delete uses default", http.MethodDelete, "/api/v1/hine-exams", 2048, false, true},
		{"chunked body over default", http.MethodPost, "/api/v1/children", 2048, true, true},
		{"get without body", http.MethodGet, "/api/v1/children", 0, false, false},
	}

	e := echo.New()
	h := BodyLimit("1K", "4K")(readAll)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader
			if tt.size > 0 {
				body = bytes.NewReader(bytes.Repeat([]byte("x"), tt.size))
			}
			req := httptest.NewRequest(tt.method, tt.path, body)
			if tt.chunked {
				req.ContentLength = -1
			}
			err := h(e.NewContext(req, httptest.NewRecorder()))

			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var he *echo.HTTPError
			if !errors.As(err, &he) || he.Code != http.StatusRequestEntityTooLarge {
				t.Fatalf("expected 413, got %v", err)
			}
		})
	}
}

func TestBodyLimit_RenderedAsTooLarge(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(zerolog.Nop())
	e.Use(BodyLimit("16", "16"))
	e.POST("/api/v1/children", readAll)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/children", bytes.NewReader(make([]byte, 64)))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
	var body httpErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Kind != "too_large" {
		t.Errorf("kind = %q, want too_large", body.Kind)
	}
}

func TestBodyLimit_InvalidLimitPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unparsable limit")
		}
	}()
	BodyLimit("lots", "4M")
}
