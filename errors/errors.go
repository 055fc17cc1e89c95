package errors

import (
	"fmt"
	"net/http"
	"time"
)

// AppError is the error type rendered by the HTTP layer
type AppError struct {
	Raw       error
	HTTPCode  int
	Code      ErrorCode
	Message   string
	Details   map[string]string
	Timestamp time.Time
}

// Error implements error interface
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap exposes the underlying error to errors.Is / errors.As
func (e AppError) Unwrap() error {
	return e.Raw
}

// WithDetail adds a detail to the error
func (e AppError) WithDetail(key, value string) AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// General Errors
func ErrInternal(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTERNAL,
		Message:  "Internal server error",
	}
}

func ErrInvalidArgument(message string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_ARGUMENT,
		Message:  message,
	}
}

func ErrInvalidPayload(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_PAYLOAD,
		Message:  "Invalid payload",
	}
}

func ErrNotFound(resource string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_NOT_FOUND,
		Message:  fmt.Sprintf("%s not found", resource),
	}
}

func ErrAlreadyExists(resource string) AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_ALREADY_EXISTS,
		Message:  fmt.Sprintf("%s already exists", resource),
	}
}

func ErrConflict(message string) AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_CONFLICT,
		Message:  message,
	}
}

func ErrUnauthenticated() AppError {
	return AppError{
		HTTPCode: http.StatusUnauthorized,
		Code:     ErrorCode_UNAUTHENTICATED,
		Message:  "Authentication required",
	}
}

// Authentication Errors
func ErrInvalidToken() AppError {
	return AppError{
		HTTPCode: http.StatusUnauthorized,
		Code:     ErrorCode_AUTH_INVALID_TOKEN,
		Message:  "Invalid authentication token",
	}
}

func ErrTokenExpired() AppError {
	return AppError{
		HTTPCode: http.StatusUnauthorized,
		Code:     ErrorCode_AUTH_TOKEN_EXPIRED,
		Message:  "Authentication token expired",
	}
}

func ErrInvalidCredentials() AppError {
	return AppError{
		HTTPCode: http.StatusUnauthorized,
		Code:     ErrorCode_AUTH_INVALID_CREDENTIALS,
		Message:  "Invalid username or password",
	}
}

func ErrUserAlreadyExists(username string) AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_AUTH_USER_ALREADY_EXISTS,
		Message:  "User already exists",
	}.WithDetail("username", username)
}

// Team and access Errors
func ErrRoleViolation(action string) AppError {
	return AppError{
		HTTPCode: http.StatusForbidden,
		Code:     ErrorCode_ROLE_VIOLATION,
		Message:  fmt.Sprintf("Only project managers can %s", action),
	}
}

func ErrAccessDenied(resource string) AppError {
	return AppError{
		HTTPCode: http.StatusForbidden,
		Code:     ErrorCode_ACCESS_DENIED,
		Message:  fmt.Sprintf("Access denied to %s", resource),
	}
}

func ErrNoTeam() AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_NO_TEAM,
		Message:  "User is not a member of any team",
	}
}

func ErrAlreadyInTeam(username string) AppError {
	return AppError{
		HTTPCode: http.StatusConflict,
		Code:     ErrorCode_ALREADY_IN_TEAM,
		Message:  "User already belongs to a team",
	}.WithDetail("username", username)
}

// Pipeline Errors
func ErrExtractionFailed(kind string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_EXTRACTION_FAILED,
		Message:  "Task extraction failed",
	}.WithDetail("kind", kind)
}

func ErrQueueFull() AppError {
	return AppError{
		HTTPCode: http.StatusServiceUnavailable,
		Code:     ErrorCode_QUEUE_FULL,
		Message:  "Processing queue is full, try again later",
	}
}

// Integration Errors
func ErrTrackerUnauthorized(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusUnauthorized,
		Code:     ErrorCode_TRACKER_UNAUTHORIZED,
		Message:  "Issue tracker rejected the stored credentials",
	}
}

func ErrTrackerRequestFailed(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusBadGateway,
		Code:     ErrorCode_TRACKER_REQUEST_FAILED,
		Message:  "Issue tracker request failed",
	}
}

func ErrStorageFailed(operation string, err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_STORAGE_FAILED,
		Message:  fmt.Sprintf("Storage operation failed: %s", operation),
	}
}
