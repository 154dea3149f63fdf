package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"validation", NewValidationError("bad"), "VALIDATION_ERROR", http.StatusBadRequest},
		{"invalid otp", NewInvalidOTPError(), "INVALID_OTP", http.StatusBadRequest},
		{"forbidden", NewForbiddenError("banned"), "FORBIDDEN", http.StatusForbidden},
		{"not found", NewNotFoundError("missing"), "NOT_FOUND", http.StatusNotFound},
		{"rate limit", NewRateLimitError("slow down"), "RATE_LIMIT_EXCEEDED", http.StatusTooManyRequests},
		{"database", NewDatabaseError("insert", errors.New("boom")), "DATABASE_ERROR", http.StatusInternalServerError},
		{"upstream", NewUpstreamError("sms", errors.New("timeout")), "UPSTREAM_ERROR", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
		})
	}
}

func TestFromError(t *testing.T) {
	wrapped := fmt.Errorf("service: %w", NewNotFoundError("gone"))
	assert.Equal(t, http.StatusNotFound, FromError(wrapped).HTTPStatus)

	plain := FromError(errors.New("oops"))
	assert.Equal(t, "INTERNAL_ERROR", plain.Code)
	assert.Equal(t, http.StatusInternalServerError, plain.HTTPStatus)
}

func TestDatabaseErrorMessageIncludesCause(t *testing.T) {
	err := NewDatabaseError("fetch ban", errors.New("connection refused"))
	assert.Contains(t, err.Message, "connection refused")
	assert.ErrorIs(t, err, err.Internal)
}

func TestHasStatus(t *testing.T) {
	assert.True(t, HasStatus(NewRateLimitError("x"), http.StatusTooManyRequests))
	assert.False(t, HasStatus(errors.New("x"), http.StatusTooManyRequests))
}
