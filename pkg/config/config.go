package config

import (
	"os"
	"strconv"
	"time"

	"nardeboun-backend/pkg/logger"

	"go.uber.org/zap"
)

const (
	DefaultSMSBaseURL = "https://console.melipayamak.com/api/send/shared"
	DefaultSMSBodyID = 299528
)

// Config - application configuration
type Config struct {
	// Database
	DatabaseURL    string
	MigrationsPath string
	RunMigrations  bool

	// Supabase project (store credentials, storage, JWT)
	SupabaseURL        string
	SupabaseServiceKey string
	SupabaseJWTSecret  string
	PDFBucket          string

	// Server
	ServerPort      string
	GRPCPort        string
	PublicRateLimit int

	// MeliPayamak SMS
	SMSBaseURL string
	SMSAPIKey  string
	SMSBodyID  int
	SMSTimeout time.Duration

	// Redis (optional, shared verify throttle)
	RedisURL string

	// OTP
	EchoOTPCode bool

	// Environment
	Environment string // "development", "production"
}

// LoadConfig - reads configuration from the environment
func LoadConfig() *Config {
	cfg := &Config{
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
		RunMigrations:  getEnvBool("RUN_MIGRATIONS", true),

		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
		SupabaseJWTSecret:  getEnv("SUPABASE_JWT_SECRET", ""),
		PDFBucket:          getEnv("PDF_BUCKET", "pdfs"),

		ServerPort:      getEnv("SERVER_PORT", "8080"),
		GRPCPort:        getEnv("GRPC_PORT", ""),
		PublicRateLimit: getEnvInt("PUBLIC_RATE_LIMIT", 60),

		SMSBaseURL: getEnv("SMS_BASE_URL", DefaultSMSBaseURL),
		SMSAPIKey:  getEnv("MELIPAYAMAK_API_KEY", ""),
		SMSBodyID:  getEnvInt("SMS_BODY_ID", DefaultSMSBodyID),
		SMSTimeout: getEnvDuration("SMS_TIMEOUT", 10*time.Second),

		RedisURL: getEnv("REDIS_URL", ""),

		EchoOTPCode: getEnvBool("ECHO_OTP_CODE", false),

		Environment: getEnv("ENVIRONMENT", "development"),
	}

	logger.Info("configuration loaded",
		zap.String("supabase_url", cfg.SupabaseURL),
		zap.String("service_key", maskString(cfg.SupabaseServiceKey)),
		zap.String("sms_key", maskString(cfg.SMSAPIKey)),
		zap.String("server_port", cfg.ServerPort),
		zap.String("grpc_port", cfg.GRPCPort),
		zap.Bool("redis", cfg.RedisURL != ""),
		zap.Bool("admin_auth", cfg.SupabaseJWTSecret != ""),
		zap.String("environment", cfg.Environment),
	)

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}

// maskString - hides a secret for logs (abcdefgh... -> ab***wxyz)
func maskString(s string) string {
	if len(s) < 4 {
		return "***"
	}
	if len(s) < 8 {
		return s[:2] + "***"
	}
	return s[:2] + "***" + s[len(s)-4:]
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// HasStoreConfig - both the project URL and the service key are set
func (c *Config) HasStoreConfig() bool {
	return c.SupabaseURL != "" && c.SupabaseServiceKey != ""
}

// HasSMSConfig - MeliPayamak key is present
func (c *Config) HasSMSConfig() bool {
	return c.SMSAPIKey != ""
}

// AdminAuthEnabled - admin routes require a service_role token
func (c *Config) AdminAuthEnabled() bool {
	return c.SupabaseJWTSecret != ""
}
