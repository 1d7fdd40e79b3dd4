package identity

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hms/frontdesk/internal/platform/apperror"
	"github.com/hms/frontdesk/internal/platform/auth"
	"github.com/hms/frontdesk/pkg/pagination"
)

type Handler struct {
	svc     *Service
	tokens  *auth.TokenIssuer
	revoked *auth.RevocationList
	logger  zerolog.Logger
}

func NewHandler(svc *Service, tokens *auth.TokenIssuer, revoked *auth.RevocationList, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, tokens: tokens, revoked: revoked, logger: logger}
}

// AuthRouteOptions attaches extra middleware to the public auth routes.
type AuthRouteOptions struct {
	Login    []echo.MiddlewareFunc
	Register []echo.MiddlewareFunc
}

func (h *Handler) RegisterAuthRoutes(g *echo.Group, opts AuthRouteOptions) {
	g.POST("/register", h.Register, opts.Register...)
	g.POST("/login", h.Login, opts.Login...)
	g.POST("/logout", h.Logout)
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/me", h.Me)

	readGroup := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RoleReceptionist))
	readGroup.GET("/patients", h.ListPatients)
	readGroup.GET("/patients/:id", h.GetPatient)

	writeGroup := api.Group("", auth.RequireRole(auth.RoleReceptionist))
	writeGroup.POST("/patients", h.CreatePatient)
}

// -- Auth Handlers --

func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apperror.BindError(err)
	}
	u, err := h.svc.Register(c.Request().Context(), req)
	if err != nil {
		return apperror.HTTP(err)
	}
	return c.JSON(http.StatusCreated, u.Principal())
}

func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.BindError(err)
	}
	p, err := h.svc.Authenticate(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return apperror.HTTP(err)
	}

	token, exp, err := h.tokens.Issue(p)
	if err != nil {
		return apperror.HTTP(err)
	}
	return c.JSON(http.StatusOK, LoginResponse{Token: token, TokenType: "Bearer", ExpiresAt: exp, User: p})
}

// Logout revokes the presented token until its natural expiry.
func (h *Handler) Logout(c echo.Context) error {
	claims, ok := c.Get("token_claims").(*auth.Claims)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	if h.revoked != nil {
		h.revoked.Revoke(claims.ID, expiry(claims.ExpiresAt))
	}
	h.logger.Info().Str("username", claims.Subject).Msg("user logged out")
	return c.NoContent(http.StatusNoContent)
}

func expiry(d *jwt.NumericDate) time.Time {
	if d == nil {
		return time.Now().Add(24 * time.Hour)
	}
	return d.Time
}

func (h *Handler) Me(c echo.Context) error {
	p, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return c.JSON(http.StatusOK, p)
}

// -- Patient Handlers --

func (h *Handler) CreatePatient(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return apperror.BindError(err)
	}
	p.ID = 0
	if err := h.svc.CreatePatient(c.Request().Context(), &p); err != nil {
		return apperror.HTTP(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := apperror.ParseID(c.Param("id"))
	if err != nil {
		return apperror.HTTP(err)
	}
	p, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		return apperror.HTTP(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	patients, total, err := h.svc.ListPatients(c.Request().Context(), pg)
	if err != nil {
		return apperror.HTTP(err)
	}
	if patients == nil {
		patients = []*Patient{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(patients, total, pg))
}

