package handlers

import (
	"net/http"
	"time"

	"nardeboun-backend/internal/service"
	"nardeboun-backend/pkg/apperror"
	"nardeboun-backend/pkg/logger"
	"nardeboun-backend/pkg/metrics"
	"nardeboun-backend/pkg/response"
	"nardeboun-backend/pkg/websocket"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"
)

// Services - domain services behind the function routes
type Services struct {
	OTP      *service.OTPService
	Profiles *service.ProfileService
	Bans     *service.BanService
	Content  *service.ContentService
	Catalog  *service.CatalogService
}

// RouterConfig - transport settings and optional collaborators
type RouterConfig struct {
	StoreConfigured bool
	JWTSecret       string
	// PublicRateLimit is requests per minute per IP on the public functions; 0 disables it
	PublicRateLimit int

	DB      Pinger
	Metrics *metrics.Metrics
	Hub     *websocket.Hub
}

// NewRouter wires every route onto a chi mux
func NewRouter(svc Services, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cfg.Metrics.Middleware)
	r.Use(CORS)

	r.Get("/health", Health(cfg.DB))
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}
	if cfg.Hub != nil {
		r.Get("/ws/content-updates", websocket.HandleContentUpdates(cfg.Hub))
	}

	r.Route("/functions/v1", func(r chi.Router) {
		r.Use(RequireStoreConfig(cfg.StoreConfigured))

		r.Group(func(r chi.Router) {
			if cfg.PublicRateLimit > 0 {
				r.Use(publicRateLimit(cfg.PublicRateLimit))
			}
			r.Post("/send-otp", SendOTP(svc.OTP))
			r.Post("/verify-otp", VerifyOTP(svc.OTP))
			r.Post("/update-profile", UpdateProfile(svc.Profiles))
			r.Post("/increment-view", IncrementView(svc.Content))
			r.Post("/mini_request_check_updates", CheckUpdates(svc.Catalog))
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireServiceRole(cfg.JWTSecret))
			r.Post("/create-ban", CreateBan(svc.Bans))
			r.Post("/create-content", CreateContent(svc.Content))
			r.Post("/update-content", UpdateContent(svc.Content))
			r.Post("/delete-content", DeleteContent(svc.Content))
			r.Post("/upload-pdf", UploadPDF(svc.Catalog))
			r.Post("/create-banner", CreateBanner(svc.Catalog))
			r.Post("/create-step-by-step-pdf", CreateStepByStepPDF(svc.Catalog))
			r.Post("/create-provincial-sample-pdf", CreateProvincialSamplePDF(svc.Catalog))
			r.Post("/update-pdf-content", UpdatePDFContent(svc.Catalog))
			r.Post("/delete-pdf-content", DeletePDFContent(svc.Catalog))
		})
	})

	return r
}

func publicRateLimit(perMinute int) func(http.Handler) http.Handler {
	return httprate.Limit(
		perMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			logger.Warn("public rate limit exceeded",
				zap.String("ip", r.RemoteAddr),
				zap.String("path", r.URL.Path))
			response.Error(w, r, apperror.NewRateLimitError("too many requests, please try again later"))
		}),
	)
}
