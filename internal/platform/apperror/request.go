package apperror

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// ParseID parses a positive surrogate key from a path parameter.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, Invalid("id", "must be a positive integer")
	}
	return id, nil
}

// BindError maps a c.Bind failure to 400, except that a body rejected by the
// size limit while it was being read keeps its 413.
func BindError(err error) *echo.HTTPError {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if he, ok := e.(*echo.HTTPError); ok && he.Code == http.StatusRequestEntityTooLarge {
			return he
		}
	}
	return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
}
