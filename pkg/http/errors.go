package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// AppError is an application error with the HTTP status it maps to.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code, field, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, Field: field, Status: status}
}

// WithError wraps an underlying error.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

func BadRequestError(message string) *AppError {
	return NewAppError("ERR_BAD_REQUEST", "", message, http.StatusBadRequest)
}

func TooManyRequestsError(message string) *AppError {
	return NewAppError("ERR_RATE_LIMITED", "", message, http.StatusTooManyRequests)
}

func InternalError(message string) *AppError {
	return NewAppError("ERR_INTERNAL", "", message, http.StatusInternalServerError)
}

// BadGatewayError creates a 502 error for upstream failures.
func BadGatewayError(message string) *AppError {
	return NewAppError("ERR_UPSTREAM", "", message, http.StatusBadGateway)
}

// ErrorRule maps every error matching Target (errors.Is) to an AppError.
type ErrorRule struct {
	Target error
	Build  func(err error) *AppError
}

// MapError resolves err against rules in order. An AppError already in the
// chain wins; anything unmatched is an internal error that hides err's text.
func MapError(err error, rules ...ErrorRule) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	for _, r := range rules {
		if errors.Is(err, r.Target) {
			return r.Build(err).WithError(err)
		}
	}
	return InternalError("Something went wrong").WithError(err)
}

// AsAppError is MapError without rules.
func AsAppError(err error) *AppError {
	return MapError(err)
}

// ErrorHandler renders errors that reach echo (unknown routes, wrong
// methods, recovered panics) in the same envelope the handlers use.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code < http.StatusInternalServerError {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		}
		err = NewAppError(httpErrorCode(he.Code), "", msg, he.Code).WithError(err)
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(AsAppError(err).Status)
		return
	}
	_ = AppErrorResponse(c, err)
}

func httpErrorCode(status int) string {
	switch status {
	case http.StatusNotFound:
		return "ERR_NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "ERR_METHOD_NOT_ALLOWED"
	case http.StatusTooManyRequests:
		return "ERR_RATE_LIMITED"
	default:
		return "ERR_BAD_REQUEST"
	}
}
