package response

import (
	"encoding/json"
	"net/http"

	"nardeboun-backend/pkg/apperror"
	"nardeboun-backend/pkg/logger"

	"go.uber.org/zap"
)

// ErrorBody - error payload; "error" stays a plain string for older clients
type ErrorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

// JSON writes v with the given status
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("response encode failed", zap.Error(err))
	}
}

// OK writes a 200 JSON body
func OK(w http.ResponseWriter, v interface{}) {
	JSON(w, http.StatusOK, v)
}

// Error logs err and writes its AppError form
func Error(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperror.FromError(err)

	if appErr.HTTPStatus >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method),
			zap.String("error_code", appErr.Code),
			zap.Error(err),
			zap.String("remote_addr", r.RemoteAddr),
		)
	} else {
		logger.Warn("client error",
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method),
			zap.String("error_code", appErr.Code),
			zap.String("message", appErr.Message),
		)
	}

	JSON(w, appErr.HTTPStatus, ErrorBody{
		Success: false,
		Error:   appErr.Message,
		Code:    appErr.Code,
	})
}
