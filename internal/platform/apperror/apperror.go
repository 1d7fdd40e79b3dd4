// Package apperror holds the error taxonomy shared by the front-desk domains
// and its mapping onto HTTP responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

var (
	ErrDuplicateUser  = errors.New("username already exists")
	ErrNotFound       = errors.New("not found")
	ErrAuthentication = errors.New("invalid username or password")
)

// ValidationError reports out-of-range or malformed input. It is always
// recoverable: the caller re-enters the field and retries.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Invalid builds a ValidationError.
func Invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// StorageError wraps a failure of the underlying store. The operation was
// aborted and nothing was written.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Storage wraps err as a StorageError unless it is nil or already carries a
// taxonomy error.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	var ve *ValidationError
	if errors.As(err, &se) || errors.As(err, &ve) ||
		errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicateUser) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// NotFound returns an error wrapping ErrNotFound for the named entity.
func NotFound(entity string, id interface{}) error {
	return fmt.Errorf("%s %v: %w", entity, id, ErrNotFound)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// HTTP converts a domain error into an echo HTTP error. Storage details are
// never exposed to the client.
func HTTP(err error) *echo.HTTPError {
	var he *echo.HTTPError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &he):
		return he
	case IsValidation(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrAuthentication):
		return echo.NewHTTPError(http.StatusUnauthorized, ErrAuthentication.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicateUser):
		return echo.NewHTTPError(http.StatusConflict, ErrDuplicateUser.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
}
