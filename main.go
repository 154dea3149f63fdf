package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nardeboun-backend/handlers"
	grpcserver "nardeboun-backend/internal/grpc/server"
	"nardeboun-backend/internal/repository"
	"nardeboun-backend/internal/service"
	"nardeboun-backend/pkg/config"
	"nardeboun-backend/pkg/database"
	"nardeboun-backend/pkg/logger"
	"nardeboun-backend/pkg/metrics"
	"nardeboun-backend/pkg/ratelimit"
	"nardeboun-backend/pkg/seed"
	"nardeboun-backend/pkg/sms"
	"nardeboun-backend/pkg/storage"
	"nardeboun-backend/pkg/websocket"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	verifyAttemptLimit  = 10
	verifyAttemptWindow = 10 * time.Minute
	shutdownTimeout     = 15 * time.Second
)

func main() {
	rollback := flag.Int("rollback", 0, "revert the given number of migrations and exit")
	seedSample := flag.Bool("seed", false, "create the sample lesson catalog before serving (development only)")
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	if err := logger.InitLogger(os.Getenv("ENVIRONMENT")); err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.LoadConfig()
	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	if *rollback > 0 {
		if err := database.RollbackMigration(db, cfg.MigrationsPath, *rollback); err != nil {
			logger.Fatal("rollback failed", zap.Error(err))
		}
		logger.Info("migrations rolled back", zap.Int("steps", *rollback))
		return
	}

	if cfg.RunMigrations {
		if err := database.RunMigrations(db, cfg.MigrationsPath); err != nil {
			logger.Fatal("migrations failed", zap.Error(err))
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics("nardeboun", reg)

	hub := websocket.NewHub()
	go hub.Run(ctx)

	var files service.FileStore
	if cfg.HasStoreConfig() {
		store, err := storage.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.PDFBucket)
		if err != nil {
			logger.Fatal("storage client init failed", zap.Error(err))
		}
		files = store
	} else {
		logger.Warn("SUPABASE_URL or SUPABASE_SERVICE_ROLE_KEY not set, functions will answer 500")
	}

	if !cfg.AdminAuthEnabled() {
		logger.Warn("SUPABASE_JWT_SECRET not set, admin routes are unauthenticated")
	}

	otps := repository.NewOtpRepo(db)
	profiles := repository.NewProfileRepo(db)
	entities := repository.NewEntityRepo(db)

	bans := service.NewBanService(repository.NewBanRepo(db), m, time.Now)
	attempts := service.NewAttemptLimiter(repository.NewRateLimitRepo(db), repository.NewBanRepo(db), m, time.Now)

	svc := handlers.Services{
		OTP: service.NewOTPService(
			otps, profiles, bans, attempts,
			initVerifyLimiter(ctx, cfg),
			initSMSService(cfg),
			m,
			service.OTPConfig{EchoCode: cfg.EchoOTPCode},
			time.Now,
		),
		Profiles: service.NewProfileService(profiles, m, time.Now),
		Bans:     bans,
		Content:  service.NewContentService(entities, repository.NewLessonVideoRepo(db), hub, time.Now),
		Catalog: service.NewCatalogService(service.CatalogDeps{
			Entities: entities,
			Banners:  repository.NewBannerRepo(db),
			PDFs:     repository.NewPDFRepo(db),
			Counts:   repository.NewCountsRepo(db),
			Changes:  repository.NewChangeCounter(db),
			Files:    files,
			Notifier: hub,
			Now:      time.Now,
		}),
	}

	if *seedSample {
		if cfg.IsProduction() {
			logger.Fatal("-seed is not allowed in production")
		}
		if _, err := seed.SeedSampleContent(ctx, svc.Content, seed.SampleLessons); err != nil {
			logger.Fatal("seeding failed", zap.Error(err))
		}
	}

	router := handlers.NewRouter(svc, handlers.RouterConfig{
		StoreConfigured: cfg.HasStoreConfig(),
		JWTSecret:       cfg.SupabaseJWTSecret,
		PublicRateLimit: cfg.PublicRateLimit,
		DB:              db,
		Metrics:         m,
		Hub:             hub,
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.String("port", cfg.ServerPort))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()

	var grpcSrv *grpcserver.Server
	if cfg.GRPCPort != "" {
		grpcSrv = grpcserver.New(grpcserver.Options{JWTSecret: cfg.SupabaseJWTSecret, DB: db})
		lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
		if err != nil {
			logger.Fatal("grpc listener error", zap.Error(err))
		}
		go grpcSrv.WatchDatabase(ctx)
		go func() {
			logger.Info("grpc server started", zap.String("port", cfg.GRPCPort))
			if err := grpcSrv.Serve(lis); err != nil {
				logger.Error("grpc server error", zap.Error(err))
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if grpcSrv != nil {
		grpcSrv.Stop()
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", zap.Error(err))
	}
	logger.Info("server stopped")
}

// initSMSService - MeliPayamak when the key is set, the console sender outside production
func initSMSService(cfg *config.Config) sms.SMSService {
	if cfg.HasSMSConfig() {
		return sms.NewMeliPayamakService(cfg.SMSBaseURL, cfg.SMSAPIKey, cfg.SMSBodyID, cfg.SMSTimeout)
	}
	if cfg.IsProduction() {
		logger.Fatal("MELIPAYAMAK_API_KEY is required in production")
	}
	logger.Warn("MELIPAYAMAK_API_KEY not set, codes are written to the log")
	return sms.ConsoleSMSService{}
}

// initVerifyLimiter - Redis-backed when REDIS_URL is set so every instance shares the counter
func initVerifyLimiter(ctx context.Context, cfg *config.Config) ratelimit.Limiter {
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal("invalid REDIS_URL", zap.Error(err))
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, verify throttle will fail open until it recovers", zap.Error(err))
		}
		return ratelimit.NewRedisLimiter(client, "verify-otp", verifyAttemptLimit, verifyAttemptWindow)
	}

	limiter := ratelimit.NewMemoryLimiter(verifyAttemptLimit, verifyAttemptWindow)
	go limiter.RunCleanup(ctx, time.Minute)
	return limiter
}
