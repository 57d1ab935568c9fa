// Package types provides common error types for proper error propagation
package types

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorCode represents standardized error codes across the application
type ErrorCode string

const (
	// General errors
	ErrorCodeInternal      ErrorCode = "INTERNAL_ERROR"
	ErrorCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrorCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrorCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
	ErrorCodeRateLimit     ErrorCode = "RATE_LIMIT"
	ErrorCodeUnavailable   ErrorCode = "UNAVAILABLE"

	// Access errors
	ErrorCodeUnauthenticated  ErrorCode = "UNAUTHENTICATED"
	ErrorCodeForbidden        ErrorCode = "FORBIDDEN"
	ErrorCodeAccountSuspended ErrorCode = "ACCOUNT_SUSPENDED"
	ErrorCodeIPBlocked        ErrorCode = "IP_BLOCKED"

	// Catalog errors
	ErrorCodeMergeFailed  ErrorCode = "MERGE_FAILED"
	ErrorCodeImportFailed ErrorCode = "IMPORT_FAILED"
	ErrorCodeUploadFailed ErrorCode = "UPLOAD_FAILED"
)

// ErrorSeverity indicates the severity of an error
type ErrorSeverity string

const (
	SeverityInfo     ErrorSeverity = "info"
	SeverityWarning  ErrorSeverity = "warning"
	SeverityError    ErrorSeverity = "error"
	SeverityCritical ErrorSeverity = "critical"
)

// AppError represents a structured error with metadata
type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Severity   ErrorSeverity          `json:"severity"`
	HTTPStatus int                    `json:"http_status"`
	Context    map[string]interface{} `json:"context,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	RetryAfter *time.Duration         `json:"retry_after,omitempty"`

	Cause error `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithRetryAfter marks the error as retryable after a specific duration
func (e *AppError) WithRetryAfter(duration time.Duration) *AppError {
	e.RetryAfter = &duration
	return e
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Severity:   SeverityError,
		HTTPStatus: httpStatus,
		Timestamp:  time.Now(),
	}
}

// NewAppErrorWithCause creates an error with an underlying cause
func NewAppErrorWithCause(code ErrorCode, message string, httpStatus int, cause error) *AppError {
	err := NewAppError(code, message, httpStatus)
	err.Cause = cause
	return err
}

// Common error constructors

// NewValidationError creates a validation error
func NewValidationError(message string, details ...string) *AppError {
	err := NewAppError(ErrorCodeValidation, message, http.StatusBadRequest)
	if len(details) > 0 {
		err.Details = details[0]
	}
	err.Severity = SeverityWarning
	return err
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string, id interface{}) *AppError {
	err := NewAppError(
		ErrorCodeNotFound,
		fmt.Sprintf("%s not found", resource),
		http.StatusNotFound,
	).WithContext("resource", resource).WithContext("id", fmt.Sprint(id))
	err.Severity = SeverityInfo
	return err
}

// NewAlreadyExistsError reports a unique constraint violation
func NewAlreadyExistsError(resource string, cause error) *AppError {
	err := NewAppErrorWithCause(ErrorCodeAlreadyExists, fmt.Sprintf("%s already exists", resource), http.StatusBadRequest, cause)
	err.Severity = SeverityWarning
	return err
}

// NewUnauthenticatedError is returned when no valid session is present
func NewUnauthenticatedError() *AppError {
	err := NewAppError(ErrorCodeUnauthenticated, "authentication required", http.StatusUnauthorized)
	err.Severity = SeverityInfo
	return err
}

// NewForbiddenError is returned when the caller's role is not allowed
func NewForbiddenError(message string) *AppError {
	if message == "" {
		message = "you do not have permission to perform this action"
	}
	err := NewAppError(ErrorCodeForbidden, message, http.StatusForbidden)
	err.Severity = SeverityWarning
	return err
}

// NewSuspendedError is returned for banned accounts
func NewSuspendedError() *AppError {
	err := NewAppError(ErrorCodeAccountSuspended, "this account has been suspended", http.StatusForbidden)
	err.Severity = SeverityWarning
	return err
}

// NewIPBlockedError is returned for block-listed addresses
func NewIPBlockedError() *AppError {
	err := NewAppError(ErrorCodeIPBlocked, "access denied", http.StatusForbidden)
	err.Severity = SeverityWarning
	return err
}

// NewRateLimitError is returned when a client exceeds its request budget
func NewRateLimitError(retryAfter time.Duration) *AppError {
	err := NewAppError(ErrorCodeRateLimit, "too many requests", http.StatusTooManyRequests).WithRetryAfter(retryAfter)
	err.Severity = SeverityInfo
	return err
}

// NewUnavailableError is returned when a dependency such as the database
// or an upstream feed cannot be reached
func NewUnavailableError(message, details string) *AppError {
	err := NewAppError(ErrorCodeUnavailable, message, http.StatusServiceUnavailable)
	err.Details = details
	return err
}

// NewInternalError creates an internal server error
func NewInternalError(message string, cause error) *AppError {
	err := NewAppErrorWithCause(ErrorCodeInternal, message, http.StatusInternalServerError, cause)
	err.Severity = SeverityCritical
	return err
}

// NewMergeError wraps any failure inside a merge transaction
func NewMergeError(kind string, cause error) *AppError {
	err := NewAppErrorWithCause(ErrorCodeMergeFailed, fmt.Sprintf("failed to merge %s", kind), http.StatusInternalServerError, cause)
	err.Severity = SeverityCritical
	return err
}

// NewImportError is returned when an upstream feed cannot be fetched or
// parsed
func NewImportError(message string, cause error) *AppError {
	return NewAppErrorWithCause(ErrorCodeImportFailed, message, http.StatusBadGateway, cause)
}

// NewUploadError wraps an object storage failure
func NewUploadError(cause error) *AppError {
	err := NewAppErrorWithCause(ErrorCodeUploadFailed, "failed to store file", http.StatusInternalServerError, cause)
	err.Severity = SeverityCritical
	return err
}

// IsCode reports whether err is an AppError carrying code
func IsCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// HTTPStatusFromErrorCode maps error codes to HTTP status codes
func HTTPStatusFromErrorCode(code ErrorCode) int {
	switch code {
	case ErrorCodeValidation, ErrorCodeAlreadyExists:
		return http.StatusBadRequest
	case ErrorCodeUnauthenticated:
		return http.StatusUnauthorized
	case ErrorCodeForbidden, ErrorCodeAccountSuspended, ErrorCodeIPBlocked:
		return http.StatusForbidden
	case ErrorCodeNotFound:
		return http.StatusNotFound
	case ErrorCodeRateLimit:
		return http.StatusTooManyRequests
	case ErrorCodeUnavailable:
		return http.StatusServiceUnavailable
	case ErrorCodeImportFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
