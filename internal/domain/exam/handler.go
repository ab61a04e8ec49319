package exam

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hine/hine/internal/platform/apperr"
	"github.com/hine/hine/internal/platform/auth"
)

const mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DocumentRenderer turns reconstructed exams into downloadable documents.
type DocumentRenderer interface {
	ExamPDF(ctx context.Context, ex *HineExam) (*bytes.Buffer, error)
	HistoryPDF(ctx context.Context, childID string, exams []*HineExam) (*bytes.Buffer, error)
	HistoryWorkbook(ctx context.Context, childID string, exams []*HineExam) (*bytes.Buffer, error)
}

// Handler provides HTTP handlers for HINE exams.
type Handler struct {
	svc      *Service
	renderer DocumentRenderer
}

// NewHandler creates the exam handler. renderer may be nil, in which case the
// document routes are not registered.
func NewHandler(svc *Service, renderer DocumentRenderer) *Handler {
	return &Handler{svc: svc, renderer: renderer}
}

// RegisterRoutes registers the exam routes.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	role := auth.RequireRole(auth.RoleAdmin, auth.RoleDoctor)

	read := api.Group("", role)
	read.GET("/hine-exams/:id", h.GetExam)
	read.GET("/children/:id/hine-exams", h.ListByChild)

	write := api.Group("", role)
	write.POST("/hine-exams", h.CreateExam)
	write.DELETE("/hine-exams/:id", h.DeleteExam)

	if h.renderer != nil {
		read.GET("/hine-exams/:id/pdf", h.ExamPDF)
		read.GET("/children/:id/hine-exams/pdf", h.HistoryPDF)
		read.GET("/children/:id/hine-exams/xlsx", h.HistoryWorkbook)
	}
}

func parseExamID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.Validation("id", "invalid exam id %q", c.Param("id"))
	}
	return id, nil
}

func (h *Handler) CreateExam(c echo.Context) error {
	var sub Submission
	if err := c.Bind(&sub); err != nil {
		return apperr.Validation("", "malformed exam body: %v", err)
	}
	ex, err := h.svc.CreateExam(c.Request().Context(), &sub)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ex)
}

func (h *Handler) GetExam(c echo.Context) error {
	id, err := parseExamID(c)
	if err != nil {
		return err
	}
	ex, err := h.svc.GetExam(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ex)
}

func (h *Handler) ListByChild(c echo.Context) error {
	exams, err := h.svc.GetExamsByChild(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, exams)
}

func (h *Handler) DeleteExam(c echo.Context) error {
	id, err := parseExamID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteExam(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Documents --

// AttachmentName returns the download name of a document, e.g.
// hine_history_<childID>.xlsx.
func AttachmentName(kind, id, ext string) string {
	return fmt.Sprintf("hine_%s_%s.%s", kind, strings.TrimSpace(id), ext)
}

// contentDisposition quotes filename per RFC 6266; non-ASCII names are sent
// as an RFC 2231 filename* parameter.
func contentDisposition(filename string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return "attachment"
}

func attachment(c echo.Context, contentType, filename string, buf *bytes.Buffer) error {
	c.Response().Header().Set(echo.HeaderContentDisposition, contentDisposition(filename))
	return c.Blob(http.StatusOK, contentType, buf.Bytes())
}

func (h *Handler) ExamPDF(c echo.Context) error {
	id, err := parseExamID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	ex, err := h.svc.GetExam(ctx, id)
	if err != nil {
		return err
	}
	buf, err := h.renderer.ExamPDF(ctx, ex)
	if err != nil {
		return apperr.Persistence(err, "render exam pdf failed")
	}
	return attachment(c, "application/pdf", AttachmentName("exam", id.String(), "pdf"), buf)
}

func (h *Handler) HistoryPDF(c echo.Context) error {
	childID := c.Param("id")
	ctx := c.Request().Context()
	exams, err := h.svc.GetExamsByChild(ctx, childID)
	if err != nil {
		return err
	}
	buf, err := h.renderer.HistoryPDF(ctx, childID, exams)
	if err != nil {
		return apperr.Persistence(err, "render history pdf failed")
	}
	return attachment(c, "application/pdf", AttachmentName("history", childID, "pdf"), buf)
}

func (h *Handler) HistoryWorkbook(c echo.Context) error {
	childID := c.Param("id")
	ctx := c.Request().Context()
	exams, err := h.svc.GetExamsByChild(ctx, childID)
	if err != nil {
		return err
	}
	buf, err := h.renderer.HistoryWorkbook(ctx, childID, exams)
	if err != nil {
		return apperr.Persistence(err, "render history workbook failed")
	}
	return attachment(c, mimeXLSX, AttachmentName("history", childID, "xlsx"), buf)
}
