package dashboard

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hms/frontdesk/internal/platform/apperror"
	"github.com/hms/frontdesk/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/dashboard", h.Summary, auth.RequireRole(auth.RoleAdmin))
}

func (h *Handler) Summary(c echo.Context) error {
	s, err := h.svc.Summary(c.Request().Context())
	if err != nil {
		return apperror.HTTP(err)
	}
	return c.JSON(http.StatusOK, s)
}
