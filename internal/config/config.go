package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	OAuth     OAuthConfig
	Billing   BillingConfig
	Storage   StorageConfig
	Deploy    DeployConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server and tenant-routing settings.
type ServerConfig struct {
	Addr                string
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	CORSOrigins         []string
	BaseDomain          string // e.g. "base2ml.com"; hosts are {subdomain}.{BaseDomain}
	OnboardingSubdomain string // fixed subdomain serving the sign-up flow
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string //nolint:gosec // G117: DB connection config
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings. When Addr is empty the
// rate limiter falls back to its in-process counter store.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// JWTConfig holds bearer-token settings.
type JWTConfig struct {
	Secret    string //nolint:gosec // G117: JWT signing secret config
	AccessTTL time.Duration
	Issuer    string
}

// OAuthConfig holds identity-provider credentials.
type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	AppleClientID      string
	AppleClientSecret  string
	RedirectURL        string
}

// BillingConfig holds payment-provider settings.
type BillingConfig struct {
	StripeSecretKey     string
	StripeWebhookSecret string
	BasicPriceID        string
	PremiumPriceID      string
	EnterprisePriceID   string
}

// StorageConfig holds upload and thumbnail settings.
type StorageConfig struct {
	UploadDir      string
	MaxUploadBytes int64
	ThumbnailSize  int // longest edge in pixels
}

// DeployConfig holds static-site deployment trigger settings.
type DeployConfig struct {
	WebhookURL string
	Token      string
	// TriggersPerMinute throttles webhook calls per tenant.
	TriggersPerMinute float64
}

// RateLimitConfig holds request-quota policy.
type RateLimitConfig struct {
	// TenantMultiplier scales tier quotas for tenant-keyed counters, since a
	// tenant aggregates many users behind distinct IPs.
	TenantMultiplier    int
	AnonymousPerMinute  int
	AnonymousPerHour    int
	FreePerMinute       int
	FreePerHour         int
	BasicPerMinute      int
	BasicPerHour        int
	PremiumPerMinute    int
	PremiumPerHour      int
	EnterprisePerMinute int
	EnterprisePerHour   int
}

// Load reads configuration from environment variables.
// Defaults are safe for local development only. In production,
// sensitive values (JWT secret, DB password, Stripe keys) must be set explicitly.
func Load() (*Config, error) {
	dbPort, err := getEnvInt("RAFFLE_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("RAFFLE_DB_MAX_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("RAFFLE_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	accessTTL, err := getEnvDuration("RAFFLE_JWT_ACCESS_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("RAFFLE_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("RAFFLE_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	maxUploadBytes, err := getEnvInt64("RAFFLE_STORAGE_MAX_UPLOAD_BYTES", 10<<20)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	thumbSize, err := getEnvInt("RAFFLE_STORAGE_THUMBNAIL_SIZE", 320)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	deployTriggers, err := getEnvFloat("RAFFLE_DEPLOY_TRIGGERS_PER_MINUTE", 2)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rl, err := loadRateLimits()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Addr:                getEnv("RAFFLE_SERVER_ADDR", ":8080"),
			ReadTimeout:         readTimeout,
			WriteTimeout:        writeTimeout,
			CORSOrigins:         getEnvList("RAFFLE_CORS_ORIGINS", []string{"http://localhost:5173"}),
			BaseDomain:          getEnv("RAFFLE_BASE_DOMAIN", "base2ml.com"),
			OnboardingSubdomain: getEnv("RAFFLE_ONBOARDING_SUBDOMAIN", "mybabyraffle"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("RAFFLE_DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("RAFFLE_DB_USER", "babyraffle"),
			Password: getEnv("RAFFLE_DB_PASSWORD", ""),
			DBName:   getEnv("RAFFLE_DB_NAME", "babyraffle_dev"),
			SSLMode:  getEnv("RAFFLE_DB_SSLMODE", "disable"),
			MaxConns: dbMaxConns,
		},
		Redis: RedisConfig{
			Addr:     getEnv("RAFFLE_REDIS_ADDR", ""),
			Password: getEnv("RAFFLE_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret:    getEnv("RAFFLE_JWT_SECRET", ""),
			AccessTTL: accessTTL,
			Issuer:    getEnv("RAFFLE_JWT_ISSUER", "babyraffle"),
		},
		OAuth: OAuthConfig{
			GoogleClientID:     getEnv("RAFFLE_OAUTH_GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret: getEnv("RAFFLE_OAUTH_GOOGLE_CLIENT_SECRET", ""),
			AppleClientID:      getEnv("RAFFLE_OAUTH_APPLE_CLIENT_ID", ""),
			AppleClientSecret:  getEnv("RAFFLE_OAUTH_APPLE_CLIENT_SECRET", ""),
			RedirectURL:        getEnv("RAFFLE_OAUTH_REDIRECT_URL", "http://localhost:8080/api/auth/callback"),
		},
		Billing: BillingConfig{
			StripeSecretKey:     getEnv("RAFFLE_STRIPE_SECRET_KEY", ""),
			StripeWebhookSecret: getEnv("RAFFLE_STRIPE_WEBHOOK_SECRET", ""),
			BasicPriceID:        getEnv("RAFFLE_STRIPE_PRICE_BASIC", ""),
			PremiumPriceID:      getEnv("RAFFLE_STRIPE_PRICE_PREMIUM", ""),
			EnterprisePriceID:   getEnv("RAFFLE_STRIPE_PRICE_ENTERPRISE", ""),
		},
		Storage: StorageConfig{
			UploadDir:      getEnv("RAFFLE_STORAGE_UPLOAD_DIR", "./uploads"),
			MaxUploadBytes: maxUploadBytes,
			ThumbnailSize:  thumbSize,
		},
		Deploy: DeployConfig{
			WebhookURL:        getEnv("RAFFLE_DEPLOY_WEBHOOK_URL", ""),
			Token:             getEnv("RAFFLE_DEPLOY_TOKEN", ""),
			TriggersPerMinute: deployTriggers,
		},
		RateLimit: rl,
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

func loadRateLimits() (RateLimitConfig, error) {
	defaults := map[string]int{
		"RAFFLE_RATE_TENANT_MULTIPLIER":     2,
		"RAFFLE_RATE_ANON_PER_MINUTE":       50,
		"RAFFLE_RATE_ANON_PER_HOUR":         200,
		"RAFFLE_RATE_FREE_PER_MINUTE":       100,
		"RAFFLE_RATE_FREE_PER_HOUR":         1000,
		"RAFFLE_RATE_BASIC_PER_MINUTE":      250,
		"RAFFLE_RATE_BASIC_PER_HOUR":        2500,
		"RAFFLE_RATE_PREMIUM_PER_MINUTE":    500,
		"RAFFLE_RATE_PREMIUM_PER_HOUR":      5000,
		"RAFFLE_RATE_ENTERPRISE_PER_MINUTE": 2000,
		"RAFFLE_RATE_ENTERPRISE_PER_HOUR":   20000,
	}

	values := make(map[string]int, len(defaults))
	for key, fallback := range defaults {
		v, err := getEnvInt(key, fallback)
		if err != nil {
			return RateLimitConfig{}, err
		}
		values[key] = v
	}

	return RateLimitConfig{
		TenantMultiplier:    values["RAFFLE_RATE_TENANT_MULTIPLIER"],
		AnonymousPerMinute:  values["RAFFLE_RATE_ANON_PER_MINUTE"],
		AnonymousPerHour:    values["RAFFLE_RATE_ANON_PER_HOUR"],
		FreePerMinute:       values["RAFFLE_RATE_FREE_PER_MINUTE"],
		FreePerHour:         values["RAFFLE_RATE_FREE_PER_HOUR"],
		BasicPerMinute:      values["RAFFLE_RATE_BASIC_PER_MINUTE"],
		BasicPerHour:        values["RAFFLE_RATE_BASIC_PER_HOUR"],
		PremiumPerMinute:    values["RAFFLE_RATE_PREMIUM_PER_MINUTE"],
		PremiumPerHour:      values["RAFFLE_RATE_PREMIUM_PER_HOUR"],
		EnterprisePerMinute: values["RAFFLE_RATE_ENTERPRISE_PER_MINUTE"],
		EnterprisePerHour:   values["RAFFLE_RATE_ENTERPRISE_PER_HOUR"],
	}, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	// JWT secret is required (no insecure default).
	if c.JWT.Secret == "" {
		return errors.New("RAFFLE_JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("RAFFLE_JWT_SECRET must be at least 32 characters")
	}

	if c.Server.BaseDomain == "" {
		return errors.New("RAFFLE_BASE_DOMAIN must not be empty")
	}
	if c.Server.OnboardingSubdomain == "" {
		return errors.New("RAFFLE_ONBOARDING_SUBDOMAIN must not be empty")
	}

	if c.Database.SSLMode == "disable" {
		log.Warn().Msg("RAFFLE_DB_SSLMODE=disable is insecure for production; set to 'require' or 'verify-full'")
	}
	if c.Billing.StripeSecretKey == "" {
		log.Warn().Msg("RAFFLE_STRIPE_SECRET_KEY is not set; billing endpoints will be disabled")
	}
	if c.Deploy.WebhookURL == "" {
		log.Warn().Msg("RAFFLE_DEPLOY_WEBHOOK_URL is not set; deployment triggers will be disabled")
	}

	// Bounds checks.
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("RAFFLE_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("RAFFLE_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}
	if c.JWT.AccessTTL <= 0 {
		return fmt.Errorf("RAFFLE_JWT_ACCESS_TTL must be positive, got %s", c.JWT.AccessTTL)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("RAFFLE_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("RAFFLE_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.Storage.MaxUploadBytes < 1 {
		return fmt.Errorf("RAFFLE_STORAGE_MAX_UPLOAD_BYTES must be >= 1, got %d", c.Storage.MaxUploadBytes)
	}
	if c.Storage.ThumbnailSize < 16 {
		return fmt.Errorf("RAFFLE_STORAGE_THUMBNAIL_SIZE must be >= 16, got %d", c.Storage.ThumbnailSize)
	}
	if c.RateLimit.TenantMultiplier < 1 {
		return fmt.Errorf("RAFFLE_RATE_TENANT_MULTIPLIER must be >= 1, got %d", c.RateLimit.TenantMultiplier)
	}
	for name, v := range map[string]int{
		"RAFFLE_RATE_ANON_PER_MINUTE":       c.RateLimit.AnonymousPerMinute,
		"RAFFLE_RATE_ANON_PER_HOUR":         c.RateLimit.AnonymousPerHour,
		"RAFFLE_RATE_FREE_PER_MINUTE":       c.RateLimit.FreePerMinute,
		"RAFFLE_RATE_FREE_PER_HOUR":         c.RateLimit.FreePerHour,
		"RAFFLE_RATE_BASIC_PER_MINUTE":      c.RateLimit.BasicPerMinute,
		"RAFFLE_RATE_BASIC_PER_HOUR":        c.RateLimit.BasicPerHour,
		"RAFFLE_RATE_PREMIUM_PER_MINUTE":    c.RateLimit.PremiumPerMinute,
		"RAFFLE_RATE_PREMIUM_PER_HOUR":      c.RateLimit.PremiumPerHour,
		"RAFFLE_RATE_ENTERPRISE_PER_MINUTE": c.RateLimit.EnterprisePerMinute,
		"RAFFLE_RATE_ENTERPRISE_PER_HOUR":   c.RateLimit.EnterprisePerHour,
	} {
		if v < 1 {
			return fmt.Errorf("%s must be >= 1, got %d", name, v)
		}
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int64: %w", key, v, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as float: %w", key, v, err)
	}
	return f, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
