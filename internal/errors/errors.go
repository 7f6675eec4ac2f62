package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/gin-gonic/gin"
)

// ErrorCategory defines the type of error for proper handling
type ErrorCategory string

const (
	CategoryValidation    ErrorCategory = "validation"
	CategoryNotFound      ErrorCategory = "not_found"
	CategoryNetwork       ErrorCategory = "network"
	CategoryTimeout       ErrorCategory = "timeout"
	CategoryRateLimit     ErrorCategory = "rate_limit"
	CategoryPartialData   ErrorCategory = "partial_data"
	CategoryInternal      ErrorCategory = "internal"
	CategoryExternalAPI   ErrorCategory = "external_api"
	CategoryConfiguration ErrorCategory = "configuration"
)

// AppError wraps an errbuilder error with the context the presentation layers need
type AppError struct {
	*errbuilder.ErrBuilder
	Category   ErrorCategory `json:"category"`
	HTTPStatus int           `json:"http_status"`
	Timestamp  time.Time     `json:"timestamp"`
	ResetAt    *time.Time    `json:"reset_at,omitempty"`
	RequestID  string        `json:"request_id,omitempty"`
	StackTrace string        `json:"stack_trace,omitempty"`
}

// Error renders the error with a stable, category-specific code prefix
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code(), e.ErrBuilder.Msg)
}

// Code is the stable machine-readable code of the category
func (e *AppError) Code() string {
	codeStr := "UNKNOWN_ERROR"
	switch e.Category {
	case CategoryValidation:
		codeStr = "VALIDATION_ERROR"
	case CategoryNotFound:
		codeStr = "NOT_FOUND"
	case CategoryNetwork, CategoryExternalAPI:
		codeStr = "NETWORK_ERROR"
	case CategoryTimeout:
		codeStr = "TIMEOUT_ERROR"
	case CategoryRateLimit:
		codeStr = "RATE_LIMIT_EXCEEDED"
	case CategoryPartialData:
		codeStr = "PARTIAL_DATA"
	case CategoryInternal:
		codeStr = "INTERNAL_ERROR"
	case CategoryConfiguration:
		codeStr = "CONFIGURATION_ERROR"
	}

	return codeStr
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.ErrBuilder.Unwrap()
}

// NewAppError creates an AppError from errbuilder with additional context
func NewAppError(builder *errbuilder.ErrBuilder, category ErrorCategory, httpStatus int) *AppError {
	return &AppError{
		ErrBuilder: builder,
		Category:   category,
		HTTPStatus: httpStatus,
		Timestamp:  time.Now(),
	}
}

func detailsOf(kv map[string]string) errbuilder.ErrDetails {
	errorMap := errbuilder.ErrorMap{}
	for key, value := range kv {
		errorMap.Set(key, errors.New(value))
	}
	return errbuilder.NewErrDetails(errorMap)
}

// NewValidationError creates a validation error using errbuilder
func NewValidationError(message string, details ...interface{}) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(message)

	if len(details) > 0 {
		builder = builder.WithDetails(detailsOf(map[string]string{
			"validation_details": fmt.Sprintf("%v", details[0]),
		}))
	}

	return NewAppError(builder, CategoryValidation, http.StatusBadRequest)
}

// NewNotFoundError reports a GitHub user that does not exist
func NewNotFoundError(username string) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("GitHub user %q not found", username)).
		WithDetails(detailsOf(map[string]string{"username": username}))

	return NewAppError(builder, CategoryNotFound, http.StatusNotFound)
}

// NewRouteNotFoundError reports an unknown API route
func NewRouteNotFoundError(method, path string) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("route %s %s not found", method, path))

	return NewAppError(builder, CategoryNotFound, http.StatusNotFound)
}

const msgGitHubRateLimit = "GitHub API rate limit exceeded"

// NewRateLimitError reports an exhausted GitHub rate limit. resetAt is when
// the budget refills; the zero time means unknown.
func NewRateLimitError(resetAt time.Time) *AppError {
	retryAfter := "unknown"
	if !resetAt.IsZero() {
		retryAfter = resetAt.UTC().Format(time.RFC3339)
	}

	builder := errbuilder.New().
		WithCode(errbuilder.CodeResourceExhausted).
		WithMsg(msgGitHubRateLimit).
		WithDetails(detailsOf(map[string]string{"retry_after": retryAfter}))

	appErr := NewAppError(builder, CategoryRateLimit, http.StatusTooManyRequests)
	if !resetAt.IsZero() {
		reset := resetAt.UTC()
		appErr.ResetAt = &reset
	}
	return appErr
}

// NewClientRateLimitError reports a caller exceeding this server's own
// per-address budget
func NewClientRateLimitError(retryAt time.Time) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeResourceExhausted).
		WithMsg("Too many requests, slow down")

	appErr := NewAppError(builder, CategoryRateLimit, http.StatusTooManyRequests)
	appErr.ResetAt = &retryAt
	return appErr
}

// NewNetworkError creates a network error using errbuilder
func NewNetworkError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeUnavailable).
		WithMsg(message)

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryNetwork, http.StatusBadGateway)
}

// NewTimeoutError creates a timeout error using errbuilder
func NewTimeoutError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeDeadlineExceeded).
		WithMsg(message)

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryTimeout, http.StatusGatewayTimeout)
}

// NewExternalAPIError reports an unexpected upstream status
func NewExternalAPIError(apiName string, statusCode int, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeUnavailable).
		WithMsg(fmt.Sprintf("%s API error (status %d)", apiName, statusCode)).
		WithDetails(detailsOf(map[string]string{
			"api_name":    apiName,
			"status_code": fmt.Sprintf("%d", statusCode),
		}))

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryExternalAPI, http.StatusBadGateway)
}

// NewPartialDataError marks data that could not be fetched while the rest of
// the analysis went ahead
func NewPartialDataError(what string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeUnavailable).
		WithMsg(fmt.Sprintf("%s unavailable", what)).
		WithDetails(detailsOf(map[string]string{"missing": what}))

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryPartialData, http.StatusOK)
}

// NewInternalError creates an internal server error using errbuilder
func NewInternalError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("Internal server error").
		WithDetails(detailsOf(map[string]string{"internal_details": message}))

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	appErr := NewAppError(builder, CategoryInternal, http.StatusInternalServerError)

	if gin.Mode() == gin.DebugMode || gin.Mode() == gin.TestMode {
		appErr.StackTrace = captureStackTrace()
	}

	return appErr
}

// NewConfigurationError creates a configuration error using errbuilder
func NewConfigurationError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(message).
		WithDetails(detailsOf(map[string]string{"config_details": message}))

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return NewAppError(builder, CategoryConfiguration, http.StatusInternalServerError)
}

func captureStackTrace() string {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// ErrorHandler is a Gin middleware that provides centralized error handling
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			appErr := ToAppError(c.Errors.Last().Err)
			LogError(c, appErr)
			Respond(c, appErr)
		}
	}
}

// RecoveryHandler provides panic recovery with structured error responses
func RecoveryHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, err interface{}) {
		appErr := NewInternalError(
			fmt.Sprintf("Panic recovered: %v", err),
			fmt.Errorf("%v", err),
		)
		appErr.StackTrace = captureStackTrace()

		LogError(c, appErr)
		Respond(c, appErr)
	})
}

// ErrorResponse is the JSON body of every failed API call
type ErrorResponse struct {
	Error     string        `json:"error"`
	Message   string        `json:"message"`
	Category  ErrorCategory `json:"category"`
	Code      string        `json:"code"`
	RequestID string        `json:"request_id,omitempty"`
	ResetAt   *time.Time    `json:"reset_at,omitempty"`
}

// Response builds the JSON body for err
func (e *AppError) Response() ErrorResponse {
	return ErrorResponse{
		Error:     e.Error(),
		Message:   UserMessage(e),
		Category:  e.Category,
		Code:      e.Code(),
		RequestID: e.RequestID,
		ResetAt:   e.ResetAt,
	}
}

// Respond writes err as JSON, adding Retry-After for rate limits
func Respond(c *gin.Context, err *AppError) {
	if err.RequestID == "" {
		err.RequestID = c.GetString("request_id")
	}
	if err.ResetAt != nil {
		secs := int(time.Until(*err.ResetAt).Seconds())
		if secs < 0 {
			secs = 0
		}
		c.Header("Retry-After", fmt.Sprintf("%d", secs))
	}
	c.AbortWithStatusJSON(err.HTTPStatus, err.Response())
}

// ToAppError converts any error to an AppError
func ToAppError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var ebErr *errbuilder.ErrBuilder
	if errors.As(err, &ebErr) {
		return NewAppError(ebErr, CategoryInternal, http.StatusInternalServerError)
	}

	if errors.Is(err, context.Canceled) {
		return NewTimeoutError("Request cancelled", err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError("Request deadline exceeded", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewTimeoutError("Request timeout", err)
	}

	errMsg := err.Error()

	if strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "no such host") ||
		strings.Contains(errMsg, "network is unreachable") {
		return NewNetworkError("Network connection failed", err)
	}

	if strings.Contains(errMsg, "timeout") {
		return NewTimeoutError("Request timeout", err)
	}

	return NewInternalError("An unexpected error occurred", err)
}

// CategoryOf classifies any error
func CategoryOf(err error) ErrorCategory {
	if err == nil {
		return ""
	}
	return ToAppError(err).Category
}

// Is reports whether err classifies as category
func Is(err error, category ErrorCategory) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Category == category
}

// UserMessage returns the text shown to a person for err
func UserMessage(err error) string {
	appErr := ToAppError(err)
	if appErr == nil {
		return ""
	}

	switch appErr.Category {
	case CategoryNotFound:
		return appErr.Msg + ". Check the spelling and try again."
	case CategoryRateLimit:
		if appErr.Msg != msgGitHubRateLimit {
			return appErr.Msg + "."
		}
		msg := "GitHub rate limit reached. Add a GITHUB_TOKEN or wait"
		if appErr.ResetAt != nil {
			msg += " until " + appErr.ResetAt.Local().Format("15:04:05")
		}
		return msg + "."
	case CategoryNetwork, CategoryExternalAPI, CategoryTimeout:
		return "Could not reach GitHub. Check your connection and try again."
	case CategoryValidation, CategoryConfiguration, CategoryPartialData:
		return appErr.Msg
	default:
		return "An unexpected error occurred."
	}
}

// LogError logs an error with appropriate level and context
func LogError(c *gin.Context, err *AppError) {
	logEntry := slog.With(
		"error_category", err.Category,
		"error_code", err.ErrBuilder.ErrCode(),
		"http_status", err.HTTPStatus,
		"ip", c.ClientIP(),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"request_id", c.GetString("request_id"),
	)

	errorMsg := err.ErrBuilder.Msg
	errorDetails := err.ErrBuilder.Details

	switch err.Category {
	case CategoryValidation, CategoryRateLimit, CategoryNotFound:
		if len(errorDetails.Errors) > 0 {
			logEntry.Warn(errorMsg, "details", errorDetails.Errors)
		} else {
			logEntry.Warn(errorMsg)
		}
	case CategoryNetwork, CategoryTimeout, CategoryExternalAPI, CategoryPartialData:
		if cause := err.ErrBuilder.Unwrap(); cause != nil {
			logEntry.Info(errorMsg, "cause", cause)
		} else {
			logEntry.Info(errorMsg)
		}
	default:
		if cause := err.ErrBuilder.Unwrap(); cause != nil {
			logEntry.Error(errorMsg, "cause", cause)
		} else {
			logEntry.Error(errorMsg)
		}
	}

	if err.StackTrace != "" && (gin.Mode() == gin.DebugMode || gin.Mode() == gin.TestMode) {
		logEntry.Debug("stack_trace", "trace", err.StackTrace)
	}
}

// IsRetryableError reports whether the user can simply try again
func IsRetryableError(err error) bool {
	switch CategoryOf(err) {
	case CategoryNetwork, CategoryTimeout, CategoryExternalAPI:
		return true
	default:
		return false
	}
}

// SafeClose safely closes a resource and logs any errors
func SafeClose(closer interface{ Close() error }, resourceName string) {
	if closer == nil {
		return
	}

	if err := closer.Close(); err != nil {
		slog.Warn("Failed to close resource",
			"resource", resourceName,
			"error", err)
	}
}
