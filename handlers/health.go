package handlers

import (
	"context"
	"net/http"
	"time"

	"nardeboun-backend/pkg/logger"
	"nardeboun-backend/pkg/response"

	"go.uber.org/zap"
)

// Pinger - *sql.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthResponse - GET /health body
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Health reports 503 when the database does not answer within two seconds
func Health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if db == nil {
			response.JSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "degraded", Database: "not configured"})
			return
		}
		if err := db.PingContext(ctx); err != nil {
			logger.Warn("health check: database unreachable", zap.Error(err))
			response.JSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "degraded", Database: "unreachable"})
			return
		}
		response.OK(w, HealthResponse{Status: "ok", Database: "connected"})
	}
}
