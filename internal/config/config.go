package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string

	// Server ports
	APIPort int

	// Logging
	LogLevel string

	// Security
	APIKey         string
	AllowedOrigins string
	AppEnv         string

	// Rate Limiting
	RateLimitRequests float64
	RateLimitBurst    int

	// Scheduling
	TimeZone string

	// Outbound mail
	EmailHost          string
	EmailPort          int
	EmailHostUser      string
	EmailHostPassword  string
	EmailUseTLS        bool
	EmailFrom          string
	EmailSkipTLSVerify bool

	// Storage
	AvatarStoragePath string

	// Dispatch locking
	RedisURL        string
	DispatchLockTTL time.Duration

	// Development SMTP capture server
	SMTPCaptureEnabled bool
	SMTPCaptureAddr    string
}

// Load reads configuration from a .env file, if present, and environment variables
func Load() (*Config, error) {
	// A missing .env file is not an error; the environment may be set directly
	_ = godotenv.Load()

	cfg := &Config{}

	// Required: DATABASE_URL
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required but not set")
	}

	// API_PORT (default: 8080)
	port, err := getEnvInt("API_PORT", 8080)
	if err != nil {
		return nil, err
	}
	cfg.APIPort = port

	// LOG_LEVEL (default: info)
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	// Security configuration
	cfg.APIKey = os.Getenv("API_KEY")
	cfg.AllowedOrigins = os.Getenv("ALLOWED_ORIGINS")
	cfg.AppEnv = getEnvOrDefault("APP_ENV", "development")

	// Rate limiting configuration
	if rps := os.Getenv("RATE_LIMIT_REQUESTS"); rps != "" {
		if v, err := strconv.ParseFloat(rps, 64); err == nil {
			cfg.RateLimitRequests = v
		}
	} else {
		cfg.RateLimitRequests = 10.0
	}

	if burst := os.Getenv("RATE_LIMIT_BURST"); burst != "" {
		if v, err := strconv.Atoi(burst); err == nil {
			cfg.RateLimitBurst = v
		}
	} else {
		cfg.RateLimitBurst = 20
	}

	// TIME_ZONE (default: UTC) places naive scheduled times
	cfg.TimeZone = getEnvOrDefault("TIME_ZONE", "UTC")

	// Outbound mail
	cfg.EmailHost = getEnvOrDefault("EMAIL_HOST", "localhost")
	emailPort, err := getEnvInt("EMAIL_PORT", 587)
	if err != nil {
		return nil, err
	}
	cfg.EmailPort = emailPort
	cfg.EmailHostUser = os.Getenv("EMAIL_HOST_USER")
	cfg.EmailHostPassword = os.Getenv("EMAIL_HOST_PASSWORD")

	useTLS, err := getEnvBool("EMAIL_USE_TLS", true)
	if err != nil {
		return nil, err
	}
	cfg.EmailUseTLS = useTLS

	skipVerify, err := getEnvBool("EMAIL_SKIP_TLS_VERIFY", false)
	if err != nil {
		return nil, err
	}
	cfg.EmailSkipTLSVerify = skipVerify

	// EMAIL_FROM (default: EMAIL_HOST_USER)
	cfg.EmailFrom = getEnvOrDefault("EMAIL_FROM", cfg.EmailHostUser)

	// AVATAR_STORAGE_PATH (default: ./avatars)
	cfg.AvatarStoragePath = getEnvOrDefault("AVATAR_STORAGE_PATH", "./avatars")

	// Dispatch locking
	cfg.RedisURL = os.Getenv("REDIS_URL")
	if ttl := os.Getenv("DISPATCH_LOCK_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return nil, fmt.Errorf("DISPATCH_LOCK_TTL must be a valid duration: %w", err)
		}
		cfg.DispatchLockTTL = d
	} else {
		cfg.DispatchLockTTL = 10 * time.Minute
	}

	// Development SMTP capture server
	captureEnabled, err := getEnvBool("SMTP_CAPTURE_ENABLED", false)
	if err != nil {
		return nil, err
	}
	cfg.SMTPCaptureEnabled = captureEnabled
	cfg.SMTPCaptureAddr = getEnvOrDefault("SMTP_CAPTURE_ADDR", ":2525")

	return cfg, nil
}

// LoadWithValidation loads and validates configuration, failing fast on errors
func LoadWithValidation() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Production-specific validation
	if cfg.AppEnv == "production" {
		if err := cfg.ValidateProduction(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DatabaseURL cannot be empty")
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("APIPort must be between 1 and 65535")
	}
	if c.EmailPort <= 0 || c.EmailPort > 65535 {
		return fmt.Errorf("EmailPort must be between 1 and 65535")
	}
	if c.EmailFrom == "" {
		return fmt.Errorf("EMAIL_FROM or EMAIL_HOST_USER must be set")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.AvatarStoragePath == "" {
		return fmt.Errorf("AvatarStoragePath cannot be empty")
	}
	if c.DispatchLockTTL <= 0 {
		return fmt.Errorf("DispatchLockTTL must be positive")
	}
	return nil
}

// ValidateProduction performs additional validation for production environment
func (c *Config) ValidateProduction() error {
	if c.APIKey == "" {
		return fmt.Errorf("API_KEY is required in production")
	}

	if c.AllowedOrigins == "" {
		return fmt.Errorf("ALLOWED_ORIGINS is required in production")
	}

	// Check for wildcard in production
	if strings.Contains(c.AllowedOrigins, "*") {
		return fmt.Errorf("wildcard (*) origins are not allowed in production")
	}

	// Check for sslmode=disable in database URL
	if strings.Contains(c.DatabaseURL, "sslmode=disable") {
		return fmt.Errorf("sslmode=disable is not allowed in production")
	}

	if c.EmailSkipTLSVerify {
		return fmt.Errorf("EMAIL_SKIP_TLS_VERIFY is not allowed in production")
	}

	if c.SMTPCaptureEnabled {
		return fmt.Errorf("SMTP capture server must be disabled in production")
	}

	return nil
}

// Location returns the zone used for naive scheduled times
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("TIME_ZONE %q is not a valid zone: %w", c.TimeZone, err)
	}
	return loc, nil
}

// LogConfig logs configuration values (excluding secrets)
func (c *Config) LogConfig(logger *slog.Logger) {
	logger.Info("configuration loaded",
		slog.Int("api_port", c.APIPort),
		slog.String("log_level", c.LogLevel),
		slog.String("app_env", c.AppEnv),
		slog.Bool("api_key_set", c.APIKey != ""),
		slog.Bool("allowed_origins_set", c.AllowedOrigins != ""),
		slog.Float64("rate_limit_rps", c.RateLimitRequests),
		slog.Int("rate_limit_burst", c.RateLimitBurst),
		slog.String("time_zone", c.TimeZone),
		slog.String("email_host", c.EmailHost),
		slog.Int("email_port", c.EmailPort),
		slog.Bool("email_use_tls", c.EmailUseTLS),
		slog.String("email_from", c.EmailFrom),
		slog.String("avatar_storage_path", c.AvatarStoragePath),
		slog.Bool("redis_lock_enabled", c.RedisURL != ""),
		slog.Duration("dispatch_lock_ttl", c.DispatchLockTTL),
		slog.Bool("smtp_capture_enabled", c.SMTPCaptureEnabled),
	)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return v, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a valid boolean: %w", key, err)
	}
	return v, nil
}
