package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	HTTPAddr string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Gateway   GatewayConfig
	Webhook   WebhookConfig
	Worker    WorkerConfig
	Sync      SyncConfig
	RateLimit RateLimitConfig
}

// GatewayConfig configures the tax-authority integration API.
type GatewayConfig struct {
	// Environment selects the gateway endpoint: "homologation" or "production".
	Environment string
	// BaseURL overrides the environment-derived endpoint when set.
	BaseURL string
	// Token is the global fallback credential. Per-company tokens stored on
	// the company record take priority.
	Token   string
	Timeout time.Duration
}

// WebhookConfig configures the inbound status-callback endpoint.
type WebhookConfig struct {
	// Secret authenticates gateway callbacks. Empty disables the check
	// (development only).
	Secret string
}

// WorkerConfig configures the emission worker pool.
type WorkerConfig struct {
	Concurrency  int
	MaxAttempts  int
	RetryBackoff time.Duration
}

// SyncConfig configures the reconciliation sweep.
type SyncConfig struct {
	Disabled bool
	Interval time.Duration
	// MinAge is how long an invoice must sit in processing before the sweep
	// queries the gateway for it.
	MinAge time.Duration
}

// RateLimitConfig throttles the emission endpoints. It needs Redis; enabling
// it without REDIS_ADDR leaves it off.
type RateLimitConfig struct {
	Enabled bool
	// Rate is the refill rate in requests per second; Burst caps the bucket.
	Rate  float64
	Burst int
	// LockTTL bounds the per-invoice submission lock.
	LockTTL time.Duration
}

const (
	GatewayEnvHomologation = "homologation"
	GatewayEnvProduction   = "production"
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "fiscal"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),

		HTTPAddr: getenv("HTTP_ADDR", ":8080"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "fiscal"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),

		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       getenvInt("REDIS_DB", 0),

		Gateway: GatewayConfig{
			Environment: normalizeGatewayEnv(getenv("GATEWAY_ENVIRONMENT", GatewayEnvHomologation)),
			BaseURL:     strings.TrimSpace(getenv("GATEWAY_BASE_URL", "")),
			Token:       strings.TrimSpace(getenv("GATEWAY_TOKEN", "")),
			Timeout:     getenvDuration("GATEWAY_TIMEOUT", 30*time.Second),
		},
		Webhook: WebhookConfig{
			Secret: strings.TrimSpace(getenv("WEBHOOK_SECRET", "")),
		},
		Worker: WorkerConfig{
			Concurrency:  getenvInt("WORKER_CONCURRENCY", 4),
			MaxAttempts:  getenvInt("WORKER_MAX_ATTEMPTS", 3),
			RetryBackoff: getenvDuration("WORKER_RETRY_BACKOFF", 5*time.Second),
		},
		Sync: SyncConfig{
			Disabled: getenvBool("SYNC_DISABLED", false),
			Interval: getenvDuration("SYNC_INTERVAL", 5*time.Minute),
			MinAge:   getenvDuration("SYNC_MIN_AGE", 2*time.Minute),
		},
		RateLimit: RateLimitConfig{
			Enabled: getenvBool("RATE_LIMIT_ENABLED", false),
			Rate:    getenvFloat("RATE_LIMIT_RATE", 20),
			Burst:   getenvInt("RATE_LIMIT_BURST", 40),
			LockTTL: getenvDuration("EMISSION_LOCK_TTL", 30*time.Second),
		},
	}
}

func normalizeGatewayEnv(raw string) string {
	if strings.EqualFold(strings.TrimSpace(raw), GatewayEnvProduction) {
		return GatewayEnvProduction
	}
	return GatewayEnvHomologation
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
