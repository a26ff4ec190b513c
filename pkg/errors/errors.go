package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type AppError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code string, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
		Err:     err,
	}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    "BAD_REQUEST",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

func Unauthorized(message string, err error) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     err,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// LogUnavailable marks a transient failure talking to the message log.
// The caller decides whether to retry; nothing below this layer retries silently.
func LogUnavailable(message string, err error) *AppError {
	return &AppError{
		Code:    "LOG_UNAVAILABLE",
		Message: message,
		Status:  http.StatusServiceUnavailable,
		Err:     err,
	}
}

// ResolutionFailed marks a failed product batch fetch. The requested ids stay
// pending for the session and messages render without their attachments.
func ResolutionFailed(message string, err error) *AppError {
	return &AppError{
		Code:    "RESOLUTION_FAILED",
		Message: message,
		Status:  http.StatusBadGateway,
		Err:     err,
	}
}

// SuggestionFailed marks a failed AI reply-generation call.
func SuggestionFailed(message string, err error) *AppError {
	return &AppError{
		Code:    "SUGGESTION_FAILED",
		Message: message,
		Status:  http.StatusBadGateway,
		Err:     err,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Code:    "CONFLICT",
		Message: message,
		Status:  http.StatusConflict,
		Err:     nil,
	}
}

func TooManyRequests(message string) *AppError {
	return &AppError{
		Code:    "TOO_MANY_REQUESTS",
		Message: message,
		Status:  http.StatusTooManyRequests,
		Err:     nil,
	}
}

func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
