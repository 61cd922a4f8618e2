// Package errors defines AppError, the error type every layer returns and
// the HTTP layer renders as {"error":{"code","message"}}.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error classes. Every AppError wraps exactly one of these, so callers can
// test the class with errors.Is without knowing the exact sentinel.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrUnauthorized   = errors.New("unauthenticated")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrConflict       = errors.New("resource conflict")
	ErrInternal       = errors.New("internal error")
	ErrRateLimited    = errors.New("rate limited")
	ErrServiceUnavail = errors.New("service unavailable")
)

type class struct {
	err            error
	code           string
	status         int
	defaultMessage string
}

var (
	notFound     = class{ErrNotFound, "NOT_FOUND", http.StatusNotFound, "not found"}
	unauthorized = class{ErrUnauthorized, "UNAUTHORIZED", http.StatusUnauthorized, "authentication required"}
	forbidden    = class{ErrForbidden, "FORBIDDEN", http.StatusForbidden, "access denied"}
	badRequest   = class{ErrBadRequest, "BAD_REQUEST", http.StatusBadRequest, "bad request"}
	validation   = class{ErrBadRequest, "VALIDATION_ERROR", http.StatusUnprocessableEntity, "invalid input"}
	conflict     = class{ErrConflict, "CONFLICT", http.StatusConflict, "conflict"}
	internal     = class{ErrInternal, "INTERNAL_ERROR", http.StatusInternalServerError, "internal error"}
	rateLimited  = class{ErrRateLimited, "RATE_LIMITED", http.StatusTooManyRequests, "too many requests"}
	unavailable  = class{ErrServiceUnavail, "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, "service temporarily unavailable"}
)

// classes is ordered for status lookup; validation shares ErrBadRequest.
var classes = []class{notFound, unauthorized, forbidden, badRequest, validation, conflict, rateLimited, unavailable, internal}

func (c class) new(message string) *AppError {
	if message == "" {
		message = c.defaultMessage
	}
	return &AppError{Code: c.code, Message: message, StatusCode: c.status, Err: c.err}
}

// AppError represents an application error with HTTP status and error code.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	StatusCode int            `json:"-"`
	Err        error          `json:"-"`
}

// Error returns the message, followed by the cause when the cause is more
// than the class sentinel.
func (e *AppError) Error() string {
	if e.Err != nil && !isClass(e.Err) {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target matches this error. Two AppErrors match when
// both code and message agree, so distinct sentinels of the same class
// stay distinguishable. Class checks go through the wrapped error.
func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok {
		return e.Code == t.Code && e.Message == t.Message
	}
	return errors.Is(e.Err, target)
}

// WithDetails returns a copy of the error carrying details.
// Sentinels are shared, so the receiver is never modified.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ToResponse converts an AppError to ErrorResponse.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: e.Code, Message: e.Message, Details: e.Details}}
}

// FromResponse rebuilds the AppError a server rendered with status.
// The class is derived from the status, so Is* checks hold on both sides.
func FromResponse(status int, body ErrorResponse) *AppError {
	e := &AppError{
		Code:       body.Error.Code,
		Message:    body.Error.Message,
		Details:    body.Error.Details,
		StatusCode: status,
		Err:        ClassOf(status),
	}
	if e.Code == "" {
		e.Code = "HTTP_ERROR"
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

// NewAppError creates a new application error.
func NewAppError(code string, message string, statusCode int, err error) *AppError {
	return &AppError{Code: code, Message: message, StatusCode: statusCode, Err: err}
}

// NotFound reports a missing resource, e.g. NotFound("world").
func NotFound(resource string) *AppError {
	return notFound.new(resource + " not found")
}

// Unauthorized creates an error for a request with no verified caller.
func Unauthorized(message string) *AppError { return unauthorized.new(message) }

// Forbidden creates an error for an explicit authorization denial.
func Forbidden(message string) *AppError { return forbidden.new(message) }

// BadRequest creates an error for malformed input.
func BadRequest(message string) *AppError { return badRequest.new(message) }

// ValidationError creates an error for well-formed input that breaks a rule.
func ValidationError(message string) *AppError { return validation.new(message) }

// Conflict creates an error for a request that clashes with current state.
func Conflict(message string) *AppError { return conflict.new(message) }

// RateLimited creates a rate limited error.
func RateLimited(message string) *AppError { return rateLimited.new(message) }

// ServiceUnavailable creates an error for an unreachable dependency.
func ServiceUnavailable(message string) *AppError { return unavailable.new(message) }

// Internal creates an internal error wrapping err.
func Internal(message string, err error) *AppError {
	e := internal.new(message)
	if err != nil {
		e.Err = err
	}
	return e
}

// GetStatusCode returns the HTTP status for err.
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	for _, c := range classes {
		if errors.Is(err, c.err) {
			return c.status
		}
	}
	return http.StatusInternalServerError
}

// ClassOf returns the class error for an HTTP status.
func ClassOf(status int) error {
	for _, c := range classes {
		if c.status == status {
			return c.err
		}
	}
	return ErrInternal
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsUnauthorized checks if the error is an unauthenticated error.
func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }

// IsForbidden checks if the error is a forbidden error.
func IsForbidden(err error) bool { return errors.Is(err, ErrForbidden) }

// IsConflict checks if the error is a conflict error.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsRateLimited checks if the error is a rate limited error.
func IsRateLimited(err error) bool { return errors.Is(err, ErrRateLimited) }

func isClass(err error) bool {
	for _, c := range classes {
		if err == c.err {
			return true
		}
	}
	return false
}
