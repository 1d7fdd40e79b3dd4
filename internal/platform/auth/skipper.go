package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths lists URL paths that bypass authentication. Register is
// listed here and guarded per route when open registration is off.
var publicPaths = map[string]bool{
	"/health":        true,
	"/health/db":     true,
	"/auth/login":    true,
	"/auth/register": true,
}

// AuthSkipper returns true for requests whose path should skip authentication.
func AuthSkipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}

// IsPublicPath reports whether the given path bypasses auth.
func IsPublicPath(path string) bool {
	return publicPaths[path]
}
