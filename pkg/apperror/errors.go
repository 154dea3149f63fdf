package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError - error carried from services to the HTTP layer
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Internal   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Internal)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Internal
}

// NewValidationError - missing or malformed input
func NewValidationError(message string) *AppError {
	return &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewInvalidOTPError - wrong or expired code
func NewInvalidOTPError() *AppError {
	return &AppError{
		Code:       "INVALID_OTP",
		Message:    "کد تأیید نامعتبر یا منقضی شده است",
		HTTPStatus: http.StatusBadRequest,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:       "UNAUTHORIZED",
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbiddenError - active ban or missing role
func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:       "FORBIDDEN",
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{
		Code:       "NOT_FOUND",
		Message:    message,
		HTTPStatus: http.StatusNotFound,
	}
}

func NewRateLimitError(message string) *AppError {
	return &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    message,
		HTTPStatus: http.StatusTooManyRequests,
	}
}

func NewInternalError(message string, internal error) *AppError {
	return &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Internal:   internal,
	}
}

// NewDatabaseError - store failure; the operation name is shown to the caller
func NewDatabaseError(operation string, internal error) *AppError {
	msg := fmt.Sprintf("database error during %s", operation)
	if internal != nil {
		msg = fmt.Sprintf("%s: %v", msg, internal)
	}
	return &AppError{
		Code:       "DATABASE_ERROR",
		Message:    msg,
		HTTPStatus: http.StatusInternalServerError,
		Internal:   internal,
	}
}

// NewUpstreamError - SMS provider or object storage failure
func NewUpstreamError(service string, internal error) *AppError {
	msg := fmt.Sprintf("%s request failed", service)
	if internal != nil {
		msg = fmt.Sprintf("%s: %v", msg, internal)
	}
	return &AppError{
		Code:       "UPSTREAM_ERROR",
		Message:    msg,
		HTTPStatus: http.StatusInternalServerError,
		Internal:   internal,
	}
}

// FromError unwraps an AppError or wraps anything else as internal
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError(err.Error(), err)
}

// HasStatus reports whether err is an AppError with the given HTTP status
func HasStatus(err error, status int) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.HTTPStatus == status
}
