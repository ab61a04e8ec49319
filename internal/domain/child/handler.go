package child

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hine/hine/internal/platform/apperr"
	"github.com/hine/hine/internal/platform/auth"
	"github.com/hine/hine/pkg/pagination"
)

// Handler provides HTTP handlers for children and their advisors.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the child and advisor routes.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	role := auth.RequireRole(auth.RoleAdmin, auth.RoleDoctor)

	read := api.Group("", role)
	read.GET("/children", h.ListChildren)
	read.GET("/children/:id", h.GetChild)
	read.GET("/children/:id/advisors", h.ListAdvisors)

	write := api.Group("", role)
	write.POST("/children", h.CreateChild)
	write.PUT("/children/:id", h.UpdateChild)
	write.DELETE("/children/:id", h.DeleteChild)
	write.POST("/children/:id/advisors", h.CreateAdvisor)
	write.POST("/advisors/:id/children", h.LinkAdvisor)
}

func (h *Handler) CreateChild(c echo.Context) error {
	var ch Child
	if err := c.Bind(&ch); err != nil {
		return apperr.Validation("", "malformed child body: %v", err)
	}
	if err := h.svc.CreateChild(c.Request().Context(), &ch); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ch)
}

func (h *Handler) GetChild(c echo.Context) error {
	ch, err := h.svc.GetChild(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ch)
}

func (h *Handler) ListChildren(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListChildren(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset).WithLinks(c.Request().URL.Path))
}

func (h *Handler) UpdateChild(c echo.Context) error {
	var ch Child
	if err := c.Bind(&ch); err != nil {
		return apperr.Validation("", "malformed child body: %v", err)
	}
	ch.ID = c.Param("id")
	if err := h.svc.UpdateChild(c.Request().Context(), &ch); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ch)
}

func (h *Handler) DeleteChild(c echo.Context) error {
	if err := h.svc.DeleteChild(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Advisors --

type createAdvisorRequest struct {
	Advisor
	Relationship string `json:"relationship"`
}

func (h *Handler) CreateAdvisor(c echo.Context) error {
	var req createAdvisorRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("", "malformed advisor body: %v", err)
	}
	if err := h.svc.CreateAdvisor(c.Request().Context(), &req.Advisor, c.Param("id"), req.Relationship); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, LinkedAdvisor{Advisor: req.Advisor, Relationship: req.Relationship})
}

type linkRequest struct {
	ChildID      string `json:"child_id"`
	Relationship string `json:"relationship"`
}

func (h *Handler) LinkAdvisor(c echo.Context) error {
	var req linkRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("", "malformed link body: %v", err)
	}
	link := &AdvisorLink{AdvisorID: c.Param("id"), ChildID: req.ChildID, Relationship: req.Relationship}
	if err := h.svc.LinkAdvisor(c.Request().Context(), link); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, link)
}

func (h *Handler) ListAdvisors(c echo.Context) error {
	items, err := h.svc.ListAdvisors(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}
