package documents

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hms/frontdesk/internal/platform/apperror"
	"github.com/hms/frontdesk/internal/platform/auth"
)

const mimePDF = "application/pdf"

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	invoiceGroup := api.Group("", auth.RequireRole(auth.RolePatient))
	invoiceGroup.GET("/bills/:id/invoice.pdf", h.Invoice)

	rxGroup := api.Group("", auth.RequireRole(auth.RoleDoctor))
	rxGroup.POST("/prescriptions", h.Prescription)
}

func (h *Handler) Invoice(c echo.Context) error {
	id, err := apperror.ParseID(c.Param("id"))
	if err != nil {
		return apperror.HTTP(err)
	}
	pdf, err := h.svc.Invoice(c.Request().Context(), id)
	if err != nil {
		return apperror.HTTP(err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="invoice-%d.pdf"`, id))
	return c.Blob(http.StatusOK, mimePDF, pdf)
}

// Prescription is signed by the caller, so unlike other routes an Admin
// does not pass.
func (h *Handler) Prescription(c echo.Context) error {
	if auth.RoleFromContext(c.Request().Context()) != auth.RoleDoctor {
		return echo.NewHTTPError(http.StatusForbidden, "only doctors may write prescriptions")
	}
	var req PrescriptionRequest
	if err := c.Bind(&req); err != nil {
		return apperror.BindError(err)
	}
	pdf, err := h.svc.Prescription(c.Request().Context(), req)
	if err != nil {
		return apperror.HTTP(err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="prescription-%d.pdf"`, req.PatientID))
	return c.Blob(http.StatusOK, mimePDF, pdf)
}
