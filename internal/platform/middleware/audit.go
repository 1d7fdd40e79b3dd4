package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hms/frontdesk/internal/platform/auth"
)

// AuditEntry records who touched which front-desk record and how.
type AuditEntry struct {
	User       string
	Role       auth.Role
	Resource   string
	ResourceID string
	Action     string // read, create, render
	IPAddress  string
	Path       string
	Method     string
	Timestamp  time.Time
	RequestID  string
	TokenID    string
	StatusCode int
}

// AuditRecorder persists audit entries somewhere other than the log.
type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

// AuditRecorderFunc is a function adapter for AuditRecorder.
type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

// Audit logs every /api/v1/* call after it completes, and hands the entry
// to each recorder.
func Audit(logger zerolog.Logger, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path
			if !isAuditablePath(path) {
				return next(c)
			}

			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}

			p, _ := auth.PrincipalFromContext(req.Context())
			resource, id := splitResource(path)
			entry := AuditEntry{
				User:       p.Username,
				Role:       p.Role,
				Resource:   resource,
				ResourceID: id,
				Action:     actionFor(req.Method, path),
				IPAddress:  c.RealIP(),
				Path:       path,
				Method:     req.Method,
				Timestamp:  time.Now().UTC(),
				TokenID:    auth.TokenIDFromContext(req.Context()),
				StatusCode: status,
			}
			entry.RequestID, _ = c.Get("request_id").(string)

			for _, r := range recorders {
				if r == nil {
					continue
				}
				if recErr := r.RecordAccess(entry); recErr != nil {
					logger.Error().Err(recErr).
						Str("request_id", entry.RequestID).
						Msg("failed to record audit entry")
				}
			}

			logger.Info().
				Str("type", "audit").
				Str("request_id", entry.RequestID).
				Str("user", entry.User).
				Str("role", string(entry.Role)).
				Str("token_id", entry.TokenID).
				Str("resource", entry.Resource).
				Str("resource_id", entry.ResourceID).
				Str("action", entry.Action).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("record_access")

			return err
		}
	}
}

func isAuditablePath(path string) bool {
	return strings.HasPrefix(path, "/api/v1/")
}

func actionFor(method, path string) string {
	if strings.HasSuffix(path, ".pdf") || strings.HasPrefix(path, "/api/v1/prescriptions") {
		return "render"
	}
	switch method {
	case http.MethodPost:
		if strings.HasSuffix(path, "/total") {
			return "read"
		}
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// splitResource maps /api/v1/bills/12/invoice.pdf to ("bills", "12").
func splitResource(path string) (resource, id string) {
	segments := strings.Split(strings.TrimPrefix(path, "/api/v1/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return "unknown", ""
	}
	resource = segments[0]
	if len(segments) > 1 && segments[1] != "" && isNumeric(segments[1]) {
		id = segments[1]
	}
	return resource, id
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
