package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error. Handlers never look at messages,
// only at the kind, so two errors of the same kind render identically.
type Kind string

const (
	KindValidation            Kind = "VALIDATION_ERROR"
	KindInvalidCredentials    Kind = "INVALID_CREDENTIALS"
	KindMissingToken          Kind = "MISSING_TOKEN"
	KindInvalidToken          Kind = "INVALID_TOKEN"
	KindInvalidRefreshToken   Kind = "INVALID_REFRESH_TOKEN"
	KindInvalidOrExpiredToken Kind = "INVALID_OR_EXPIRED_TOKEN"
	KindForbidden             Kind = "FORBIDDEN"
	KindNotFound              Kind = "NOT_FOUND"
	KindUserNotFound          Kind = "USER_NOT_FOUND"
	KindDuplicateEmail        Kind = "DUPLICATE_EMAIL"
	KindConflict              Kind = "CONFLICT"
	KindRateLimited           Kind = "RATE_LIMITED"
	KindServiceUnavailable    Kind = "SERVICE_UNAVAILABLE"
	KindInternal              Kind = "INTERNAL_ERROR"
)

var statusByKind = map[Kind]int{
	KindValidation:            http.StatusBadRequest,
	KindInvalidCredentials:    http.StatusUnauthorized,
	KindMissingToken:          http.StatusUnauthorized,
	KindInvalidToken:          http.StatusUnauthorized,
	KindInvalidRefreshToken:   http.StatusUnauthorized,
	KindInvalidOrExpiredToken: http.StatusBadRequest,
	KindForbidden:             http.StatusForbidden,
	KindNotFound:              http.StatusNotFound,
	KindUserNotFound:          http.StatusNotFound,
	KindDuplicateEmail:        http.StatusConflict,
	KindConflict:              http.StatusConflict,
	KindRateLimited:           http.StatusTooManyRequests,
	KindServiceUnavailable:    http.StatusServiceUnavailable,
	KindInternal:              http.StatusInternalServerError,
}

// AppError is a business error carrying everything the HTTP layer needs.
type AppError struct {
	Kind    Kind
	Status  int
	Message string
	Details []string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// Is matches any AppError of the same kind, so sentinels work with errors.Is.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !stderrors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Code is the machine readable code sent to clients.
func (e *AppError) Code() string { return string(e.Kind) }

// New builds an AppError with the default status for kind.
func New(kind Kind, message string) *AppError {
	status, ok := statusByKind[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &AppError{Kind: kind, Status: status, Message: message}
}

// Wrap is New with an underlying cause kept for logs.
func Wrap(kind Kind, message string, err error) *AppError {
	e := New(kind, message)
	e.Err = err
	return e
}

// WithDetails returns a copy of e carrying field level details.
func (e *AppError) WithDetails(details ...string) *AppError {
	cp := *e
	cp.Details = append([]string(nil), details...)
	return &cp
}

// WithStatus returns a copy of e answering with a different HTTP status.
func (e *AppError) WithStatus(status int) *AppError {
	cp := *e
	cp.Status = status
	return &cp
}

var (
	ErrNotFound     = New(KindNotFound, "resource not found")
	ErrUnauthorized = New(KindInvalidToken, "invalid or expired token")
	ErrForbidden    = New(KindForbidden, "access denied")
	ErrConflict     = New(KindConflict, "resource was modified concurrently")
	ErrValidation   = New(KindValidation, "validation failed")
	ErrUnavailable  = New(KindServiceUnavailable, "service temporarily unavailable")
	ErrInternal     = New(KindInternal, "internal server error")

	ErrMissingToken          = New(KindMissingToken, "authorization token required")
	ErrInvalidCredentials    = New(KindInvalidCredentials, "invalid email or password")
	ErrInvalidRefreshToken   = New(KindInvalidRefreshToken, "invalid refresh token")
	ErrInvalidOrExpiredToken = New(KindInvalidOrExpiredToken, "invalid or expired token")
	ErrUserNotFound          = New(KindUserNotFound, "user not found")
	ErrDuplicateEmail        = New(KindDuplicateEmail, "email already registered")
)

// Validation builds a 400 with one detail per violated rule.
func Validation(message string, details ...string) *AppError {
	return New(KindValidation, message).WithDetails(details...)
}

// NotFound builds a 404 naming the resource.
func NotFound(resource string) *AppError {
	return New(KindNotFound, resource+" not found")
}

// Forbidden builds a 403 with a specific message.
func Forbidden(message string) *AppError {
	return New(KindForbidden, message)
}

// Unavailable wraps a store outage.
func Unavailable(err error) *AppError {
	return Wrap(KindServiceUnavailable, "service temporarily unavailable", err)
}

// Internal wraps an unexpected failure.
func Internal(err error) *AppError {
	return Wrap(KindInternal, "internal server error", err)
}

// As extracts an AppError from err.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is re-exports errors.Is so callers need a single errors import.
func Is(err, target error) bool { return stderrors.Is(err, target) }
