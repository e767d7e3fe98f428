package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Logger    LoggerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Provider  ProviderConfig
	Scheduler SchedulerConfig
	Webhook   WebhookConfig
	App       AppConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	ConnMaxLifetime time.Duration
	MaxOpenConns    int
	MaxIdleConns    int
}

// RedisConfig holds the connection settings for the shared counter store
// and the scheduler run-lock.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ProviderMode selects which biller endpoint variant the process talks to.
type ProviderMode string

const (
	ProviderModeLive    ProviderMode = "live"
	ProviderModeSandbox ProviderMode = "sandbox"
)

// ProviderConfig holds biller API configuration
type ProviderConfig struct {
	Mode       ProviderMode
	LiveURL    string
	SandboxURL string
	APIKey     string
	SecretKey  string
	Timeout    time.Duration
}

// BaseURL returns the endpoint for the configured mode.
func (c *ProviderConfig) BaseURL() string {
	if c.Mode == ProviderModeSandbox {
		return c.SandboxURL
	}
	return c.LiveURL
}

// SchedulerConfig holds reconciliation sweep configuration
type SchedulerConfig struct {
	Interval   time.Duration
	BatchSize  int
	BatchDelay time.Duration
	MaxRetries int
	AgeWindow  time.Duration
}

// WebhookConfig holds inbound webhook verification configuration
type WebhookConfig struct {
	Secret string
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	AirtimeMarkupBps int
	DataMarkupBps    int
	CableMarkupBps   int
	RateLimitBudget  int
	RateLimitWindow  time.Duration
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level string // debug, info, warn, error
}

// Load loads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", "15s"),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", "15s"),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", "60s"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "billpay"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", "5m"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Provider: ProviderConfig{
			Mode:       ProviderMode(getEnv("PROVIDER_MODE", "sandbox")),
			LiveURL:    getEnv("PROVIDER_LIVE_URL", "https://api.biller.example/api"),
			SandboxURL: getEnv("PROVIDER_SANDBOX_URL", "https://sandbox.biller.example/api"),
			APIKey:     getEnv("PROVIDER_API_KEY", ""),
			SecretKey:  getEnv("PROVIDER_SECRET_KEY", ""),
			Timeout:    getEnvAsDuration("PROVIDER_TIMEOUT", "30s"),
		},
		Scheduler: SchedulerConfig{
			Interval:   getEnvAsDuration("RECONCILE_INTERVAL", "2m"),
			BatchSize:  getEnvAsInt("RECONCILE_BATCH_SIZE", 20),
			BatchDelay: getEnvAsDuration("RECONCILE_BATCH_DELAY", "2s"),
			MaxRetries: getEnvAsInt("RECONCILE_MAX_RETRIES", 3),
			AgeWindow:  getEnvAsDuration("RECONCILE_AGE_WINDOW", "30m"),
		},
		Webhook: WebhookConfig{
			Secret: getEnv("WEBHOOK_SECRET", ""),
		},
		App: AppConfig{
			AirtimeMarkupBps: getEnvAsInt("AIRTIME_MARKUP_BPS", 0),
			DataMarkupBps:    getEnvAsInt("DATA_MARKUP_BPS", 0),
			CableMarkupBps:   getEnvAsInt("CABLE_MARKUP_BPS", 0),
			RateLimitBudget:  getEnvAsInt("RATE_LIMIT_BUDGET", 60),
			RateLimitWindow:  getEnvAsDuration("RATE_LIMIT_WINDOW", "1m"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host cannot be empty")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("database name cannot be empty")
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf("redis address cannot be empty")
	}

	switch c.Provider.Mode {
	case ProviderModeLive, ProviderModeSandbox:
	default:
		return fmt.Errorf("invalid provider mode: %s (must be live or sandbox)", c.Provider.Mode)
	}
	if c.Provider.BaseURL() == "" {
		return fmt.Errorf("provider base URL cannot be empty for mode %s", c.Provider.Mode)
	}

	// The webhook receiver rejects everything without a secret, so a live
	// deployment without one would silently drop all biller notifications.
	if c.Provider.Mode == ProviderModeLive && c.Webhook.Secret == "" {
		return fmt.Errorf("webhook secret must be set in live mode")
	}

	if c.Scheduler.BatchSize <= 0 {
		return fmt.Errorf("reconcile batch size must be positive, got %d", c.Scheduler.BatchSize)
	}
	if c.Scheduler.MaxRetries < 0 {
		return fmt.Errorf("reconcile max retries cannot be negative")
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("reconcile interval must be positive")
	}

	for _, bps := range []int{c.App.AirtimeMarkupBps, c.App.DataMarkupBps, c.App.CableMarkupBps} {
		if bps < 0 {
			return fmt.Errorf("markup basis points cannot be negative")
		}
	}

	if c.App.RateLimitBudget <= 0 {
		return fmt.Errorf("rate limit budget must be positive, got %d", c.App.RateLimitBudget)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// MarkupBps returns the configured markup for a purchase category in basis points.
func (c *AppConfig) MarkupBps(category string) int {
	switch category {
	case "data":
		return c.DataMarkupBps
	case "cable":
		return c.CableMarkupBps
	default:
		return c.AirtimeMarkupBps
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to parsing the default if provided value is invalid
		duration, err = time.ParseDuration(defaultValue)
		if err != nil {
			return 0
		}
	}
	return duration
}
