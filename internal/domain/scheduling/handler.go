package scheduling

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
	readGroup := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RoleReceptionist))
	readGroup.GET("/appointments", h.ListAppointments)

	writeGroup := api.Group("", auth.RequireRole(auth.RoleReceptionist))
	writeGroup.POST("/appointments", h.CreateAppointment)
}

func (h *Handler) CreateAppointment(c echo.Context) error {
	var a Appointment
	if err := c.Bind(&a); err != nil {
		return apperror.BindError(err)
	}
	a.ID = 0
	a.PatientName = ""
	if err := h.svc.CreateAppointment(c.Request().Context(), &a); err != nil {
		return apperror.HTTP(err)
	}
	return c.JSON(http.StatusCreated, a)
}

// ListAppointments accepts an optional doctor query parameter, which is
// ignored for callers with the Doctor role.
func (h *Handler) ListAppointments(c echo.Context) error {
	p, _ := auth.PrincipalFromContext(c.Request().Context())
	f := FilterFor(p, c.QueryParam("doctor"))
	pg := pagination.FromContext(c)

	appts, total, err := h.svc.ListAppointments(c.Request().Context(), f, pg)
	if err != nil {
		return apperror.HTTP(err)
	}
	if appts == nil {
		appts = []*Appointment{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(appts, total, pg))
}
