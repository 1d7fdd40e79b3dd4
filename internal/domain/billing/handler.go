package billing

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hms/frontdesk/internal/platform/apperror"
	"github.com/hms/frontdesk/internal/platform/auth"
	"github.com/hms/frontdesk/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Read endpoints: admin, patient
	readGroup := api.Group("", auth.RequireRole(auth.RolePatient))
	readGroup.GET("/bills", h.ListBills)
	readGroup.GET("/bills/:id", h.GetBill)

	// Write endpoints: admin only
	writeGroup := api.Group("", auth.RequireRole(auth.RoleAdmin))
	writeGroup.POST("/bills", h.CreateBill)
	writeGroup.POST("/bills/total", h.Total)
}

func (h *Handler) CreateBill(c echo.Context) error {
	var req CreateBillRequest
	if err := c.Bind(&req); err != nil {
		return apperror.BindError(err)
	}
	b, err := h.svc.CreateBill(c.Request().Context(), req)
	if err != nil {
		return apperror.HTTP(err)
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *Handler) Total(c echo.Context) error {
	var req TotalRequest
	if err := c.Bind(&req); err != nil {
		return apperror.BindError(err)
	}
	t, err := h.svc.Total(req.Items)
	if err != nil {
		return apperror.HTTP(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) GetBill(c echo.Context) error {
	id, err := apperror.ParseID(c.Param("id"))
	if err != nil {
		return apperror.HTTP(err)
	}
	b, err := h.svc.GetBill(c.Request().Context(), id)
	if err != nil {
		return apperror.HTTP(err)
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) ListBills(c echo.Context) error {
	pg := pagination.FromContext(c)
	bills, total, err := h.svc.ListBills(c.Request().Context(), pg)
	if err != nil {
		return apperror.HTTP(err)
	}
	if bills == nil {
		bills = []*Bill{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(bills, total, pg))
}
