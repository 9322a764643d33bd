// Package apierr provides the typed HTTP error taxonomy and the Echo
// error-handling dispatch point, grounded on the original server's single
// `Error` enum + ResponseError impl pattern.
package apierr

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Error is a status-carrying API error. Handlers return it directly instead
// of calling c.JSON/c.NoContent themselves, keeping one dispatch point for
// status-code mapping.
type Error struct {
	Status  int
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// NotFound builds a 404.
func NotFound(message string) *Error { return &Error{Status: http.StatusNotFound, Message: message} }

// BadRequest builds a 400.
func BadRequest(message string) *Error { return &Error{Status: http.StatusBadRequest, Message: message} }

// Forbidden builds a 403.
func Forbidden(message string) *Error { return &Error{Status: http.StatusForbidden, Message: message} }

// Internal builds a 500 wrapping cause.
func Internal(message string, cause error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: message, cause: cause}
}

// HTTPErrorHandler is installed as the Echo instance's HTTPErrorHandler. It
// maps *Error to its carried status and logs 500s, matching the teacher's
// convention of one slog call per unhandled failure.
func HTTPErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var apiErr *Error
		if errors.As(err, &apiErr) {
			if apiErr.Status >= http.StatusInternalServerError {
				logger.Error("request failed", "path", c.Path(), "error", err)
			}
			_ = c.JSON(apiErr.Status, map[string]string{"error": apiErr.Message})
			return
		}

		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			_ = c.JSON(httpErr.Code, map[string]any{"error": httpErr.Message})
			return
		}

		logger.Error("unhandled request error", "path", c.Path(), "error", err)
		_ = c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
