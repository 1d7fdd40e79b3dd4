package main

import (
	"fmt"
	"net"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/hms/frontdesk/internal/config"
	"github.com/hms/frontdesk/internal/domain/billing"
	"github.com/hms/frontdesk/internal/domain/dashboard"
	"github.com/hms/frontdesk/internal/domain/documents"
	"github.com/hms/frontdesk/internal/domain/identity"
	"github.com/hms/frontdesk/internal/domain/scheduling"
	"github.com/hms/frontdesk/internal/platform/auth"
	"github.com/hms/frontdesk/internal/platform/db"
	"github.com/hms/frontdesk/internal/platform/middleware"
)

const version = "0.1.0"

// newServer wires repositories, services and routes onto a new echo instance.
func newServer(cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) (*echo.Echo, error) {
	key, err := cfg.SigningKey()
	if err != nil {
		return nil, err
	}
	pageSize, err := documents.ParsePageSize(cfg.PDFPageSize)
	if err != nil {
		return nil, fmt.Errorf("PDF_PAGE_SIZE: %w", err)
	}
	proxies, err := cfg.TrustedProxyRanges()
	if err != nil {
		return nil, err
	}
	tokens := auth.NewTokenIssuer(key, cfg.JWTIssuer, cfg.TokenTTL)
	revoked := auth.NewRevocationList()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.IPExtractor = clientIPExtractor(proxies)

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
	}))

	// Auth middleware
	e.Use(auth.JWTMiddleware(auth.JWTConfig{Issuer: tokens, Revoked: revoked, Skipper: auth.AuthSkipper}))

	// Audit middleware
	e.Use(middleware.Audit(logger))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(pool, cfg.DBSchema, logger))

	session := db.SessionMiddleware(pool, cfg.DBSchema)

	// Repositories and services
	identitySvc := identity.NewService(identity.NewUserRepo(pool), identity.NewPatientRepo(pool), cfg.BcryptCost, logger)
	schedulingSvc := scheduling.NewService(scheduling.NewAppointmentRepo(pool), logger)
	billingSvc := billing.NewService(billing.NewBillRepo(pool), logger)
	renderer := documents.NewRenderer(pageSize, cfg.CurrencySymbol, cfg.HospitalName)
	documentsSvc := documents.NewService(renderer, billingSvc, identitySvc, cfg.InvoiceQR, logger)
	dashboardSvc := dashboard.NewService(identitySvc, schedulingSvc)

	// Auth routes. The rate limiter runs before a connection is acquired.
	identityHandler := identity.NewHandler(identitySvc, tokens, revoked, logger)
	loginLimit := middleware.DefaultLoginRateLimitConfig()
	loginLimit.RequestsPerSecond = cfg.LoginRateLimitRPS
	loginLimit.BurstSize = cfg.LoginRateLimitBurst
	authOpts := identity.AuthRouteOptions{
		Login:    []echo.MiddlewareFunc{middleware.RateLimit(loginLimit), session},
		Register: []echo.MiddlewareFunc{session},
	}
	if !cfg.AllowOpenRegistration {
		authOpts.Register = []echo.MiddlewareFunc{
			auth.JWTMiddleware(auth.JWTConfig{Issuer: tokens, Revoked: revoked}),
			auth.RequireRole(auth.RoleAdmin),
			session,
		}
	}
	identityHandler.RegisterAuthRoutes(e.Group("/auth"), authOpts)

	// API routes
	apiV1 := e.Group("/api/v1", session)
	identityHandler.RegisterRoutes(apiV1)
	scheduling.NewHandler(schedulingSvc).RegisterRoutes(apiV1)
	billing.NewHandler(billingSvc).RegisterRoutes(apiV1)
	documents.NewHandler(documentsSvc).RegisterRoutes(apiV1)
	dashboard.NewHandler(dashboardSvc).RegisterRoutes(apiV1)

	return e, nil
}

// clientIPExtractor reads the socket peer address unless proxies are
// configured. Forwarded headers are only honoured when they arrive from one
// of them.
func clientIPExtractor(proxies []*net.IPNet) echo.IPExtractor {
	if len(proxies) == 0 {
		return echo.ExtractIPDirect()
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, p := range proxies {
		opts = append(opts, echo.TrustIPRange(p))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}
