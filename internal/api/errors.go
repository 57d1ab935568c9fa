// Package api provides error handling utilities for HTTP APIs
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/mantonx/mediacatalog/internal/database"
	"github.com/mantonx/mediacatalog/internal/logger"
	"github.com/mantonx/mediacatalog/internal/types"
)

// ErrorResponse represents the standard error response format
type ErrorResponse struct {
	Error   ErrorDetails `json:"error"`
	Success bool         `json:"success"`
}

// ErrorDetails contains detailed error information
type ErrorDetails struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	RetryAfter int                    `json:"retry_after,omitempty"` // seconds
	Context    map[string]interface{} `json:"context,omitempty"`
	RequestID  string                 `json:"request_id,omitempty"`
}

// RespondWithError sends a structured error response and aborts the chain
func RespondWithError(c *gin.Context, err error) {
	requestID := c.GetString("request_id")

	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		appErr = types.NewInternalError("an unexpected error occurred", err)
	}

	response := ErrorResponse{
		Success: false,
		Error: ErrorDetails{
			Code:      string(appErr.Code),
			Message:   appErr.Message,
			Details:   appErr.Details,
			RequestID: requestID,
		},
	}

	// Internal failures never leak their cause or context
	if appErr.HTTPStatus < http.StatusInternalServerError {
		response.Error.Context = appErr.Context
	}

	if appErr.RetryAfter != nil {
		seconds := int(appErr.RetryAfter.Seconds())
		response.Error.RetryAfter = seconds
		c.Header("Retry-After", strconv.Itoa(seconds))
	}

	logError(c, appErr, requestID)

	status := appErr.HTTPStatus
	if status == 0 {
		status = types.HTTPStatusFromErrorCode(appErr.Code)
	}
	c.AbortWithStatusJSON(status, response)
}

// RespondWithValidationError sends a validation error response
func RespondWithValidationError(c *gin.Context, message string, details ...string) {
	RespondWithError(c, types.NewValidationError(message, details...))
}

// RespondWithNotFound sends a not found error response
func RespondWithNotFound(c *gin.Context, resource string, id interface{}) {
	RespondWithError(c, types.NewNotFoundError(resource, id))
}

// RespondWithInternalError sends an internal error response
func RespondWithInternalError(c *gin.Context, message string, cause error) {
	RespondWithError(c, types.NewInternalError(message, cause))
}

// RespondWithBindError translates a gin binding failure into a 400 with a
// readable message naming every failed field.
func RespondWithBindError(c *gin.Context, err error) {
	RespondWithError(c, BindError(err))
}

// BindError converts binding and validator errors into a validation AppError
func BindError(err error) *types.AppError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		messages := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			messages = append(messages, describeFieldError(fe))
		}
		return types.NewValidationError("invalid request", strings.Join(messages, "; "))
	}
	return types.NewValidationError("invalid request body", err.Error())
}

func describeFieldError(fe validator.FieldError) string {
	field := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "email":
		return field + " must be a valid email address"
	case "url", "http_url":
		return field + " must be a valid URL"
	case "ip":
		return field + " must be a valid IP address"
	case "gtfield", "nefield":
		return fmt.Sprintf("%s must differ from %s", field, lowerFirst(fe.Param()))
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// TranslateDBError maps persistence errors onto the error taxonomy:
// missing rows become 404, unique violations become 400 ALREADY_EXISTS and
// anything else is an internal error.
func TranslateDBError(err error, resource string, id interface{}) error {
	if err == nil {
		return nil
	}
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case database.IsNotFound(err):
		return types.NewNotFoundError(resource, id)
	case database.IsDuplicateKey(err):
		return types.NewAlreadyExistsError(resource, err)
	default:
		return types.NewInternalError(fmt.Sprintf("failed to access %s", resource), err)
	}
}

// ParseID reads a positive numeric path parameter
func ParseID(c *gin.Context, param string) (uint, bool) {
	raw := c.Param(param)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		RespondWithValidationError(c, "invalid "+param, fmt.Sprintf("%q is not a valid id", raw))
		return 0, false
	}
	return uint(id), true
}

// logError logs the error with appropriate severity
func logError(c *gin.Context, err *types.AppError, requestID string) {
	fields := []interface{}{
		"code", err.Code,
		"message", err.Message,
		"status", err.HTTPStatus,
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
		"request_id", requestID,
	}

	if err.Details != "" {
		fields = append(fields, "details", err.Details)
	}

	if err.Cause != nil {
		fields = append(fields, "cause", err.Cause.Error())
	}

	switch err.Severity {
	case types.SeverityCritical:
		logger.Error("request failed", fields...)
		reportToSentry(c, err)
	case types.SeverityError:
		logger.Error("request failed", fields...)
	case types.SeverityWarning:
		logger.Warn("request rejected", fields...)
	default:
		logger.Debug("request rejected", fields...)
	}
}

// reportToSentry is a no-op unless sentry.Init was called with a DSN
func reportToSentry(c *gin.Context, err *types.AppError) {
	hub := sentry.CurrentHub().Clone()
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("code", string(err.Code))
		scope.SetTag("path", c.FullPath())
		scope.SetRequest(c.Request)
		if requestID := c.GetString("request_id"); requestID != "" {
			scope.SetTag("request_id", requestID)
		}
		hub.CaptureException(err)
	})
}

// ErrorMiddleware recovers from panics and answers with a 500
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				var err error
				switch v := r.(type) {
				case error:
					err = v
				case string:
					err = errors.New(v)
				default:
					err = fmt.Errorf("panic: %v", v)
				}

				RespondWithError(c, types.NewInternalError("an unexpected error occurred", err))
			}
		}()

		c.Next()
	}
}
