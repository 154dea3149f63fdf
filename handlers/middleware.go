package handlers

import (
	"net"
	"net/http"
	"strings"
	"time"

	"nardeboun-backend/pkg/apperror"
	"nardeboun-backend/pkg/logger"
	"nardeboun-backend/pkg/response"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const serviceRole = "service_role"

// CORS - permissive headers on every response; OPTIONS preflight ends here
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")
		h.Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireStoreConfig - every function answers 500 until the store URL and key are configured
func RequireStoreConfig(configured bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !configured {
				response.Error(w, r, apperror.NewInternalError("server configuration incomplete", nil))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireServiceRole - admin routes need an HS256 token whose role claim is service_role.
// An empty secret disables the check.
func RequireServiceRole(secret string) func(http.Handler) http.Handler {
	key := []byte(secret)
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Error(w, r, apperror.NewUnauthorizedError("Authorization header is required"))
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				response.Error(w, r, apperror.NewUnauthorizedError("Authorization header must be 'Bearer {token}'"))
				return
			}

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return key, nil
			})
			if err != nil || !token.Valid {
				logger.Warn("admin token rejected", zap.Error(err))
				response.Error(w, r, apperror.NewUnauthorizedError("invalid or expired token"))
				return
			}

			if role, _ := claims["role"].(string); role != serviceRole {
				response.Error(w, r, apperror.NewForbiddenError("service role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger - one zap line per request
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// clientIP - first X-Forwarded-For hop, else the remote address
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
