package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Error codes surfaced to bridge and API clients
const (
	CodeInvalidEvent    = "INVALID_EVENT"
	CodeAuthRequired    = "AUTH_REQUIRED"
	CodeInvalidToken    = "INVALID_TOKEN"
	CodeBadCredentials  = "BAD_CREDENTIALS"
	CodeRateLimited     = "RATE_LIMIT_EXCEEDED"
	CodeUpstreamFailure = "UPSTREAM_FAILURE"
	CodeInternal        = "INTERNAL_ERROR"
)

// AppError represents an application error with HTTP status code and error code
type AppError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
	cause      error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// Wrap attaches the underlying cause
func (e *AppError) Wrap(cause error) *AppError {
	e.cause = cause
	return e
}

// NewError creates a new application error
func NewError(statusCode int, code string, message string) *AppError {
	return &AppError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
	}
}

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(code string, message string) *AppError {
	return NewError(http.StatusBadRequest, code, message)
}

// NewUnauthorizedError creates a 401 Unauthorized error
func NewUnauthorizedError(code string, message string) *AppError {
	return NewError(http.StatusUnauthorized, code, message)
}

// NewTooManyRequestsError creates a 429 Too Many Requests error
func NewTooManyRequestsError(code string, message string) *AppError {
	return NewError(http.StatusTooManyRequests, code, message)
}

// NewBadGatewayError creates a 502 error for failed upstream calls
func NewBadGatewayError(code string, message string) *AppError {
	return NewError(http.StatusBadGateway, code, message)
}

// NewInternalServerError creates a 500 Internal Server Error
func NewInternalServerError(code string, message string) *AppError {
	return NewError(http.StatusInternalServerError, code, message)
}

// FromError converts a standard error to an AppError.
// If the error already is (or wraps) an AppError, that one is returned.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	return NewInternalServerError(CodeInternal, "An unexpected error occurred").Wrap(err)
}

// Is reports whether err carries the same code as target
func Is(err error, target *AppError) bool {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return false
	}
	return appErr.Code == target.Code
}
