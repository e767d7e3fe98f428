package config

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080"},
		Database: DatabaseConfig{
			Host:   "localhost",
			DBName: "billpay",
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Provider: ProviderConfig{
			Mode:       ProviderModeSandbox,
			LiveURL:    "https://api.biller.example/api",
			SandboxURL: "https://sandbox.biller.example/api",
		},
		Scheduler: SchedulerConfig{
			Interval:   2 * time.Minute,
			BatchSize:  20,
			MaxRetries: 3,
		},
		App: AppConfig{
			RateLimitBudget: 60,
			RateLimitWindow: time.Minute,
		},
		Logger: LoggerConfig{Level: "info"},
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		mutate  func(*Config)
		name    string
		wantErr string
	}{
		{name: "valid sandbox config", mutate: func(*Config) {}},
		{
			name: "live mode with a webhook secret",
			mutate: func(c *Config) {
				c.Provider.Mode = ProviderModeLive
				c.Webhook.Secret = "whsec_live"
			},
		},
		{
			name: "live mode without a webhook secret",
			mutate: func(c *Config) {
				c.Provider.Mode = ProviderModeLive
			},
			wantErr: "webhook secret",
		},
		{
			name:    "unknown provider mode",
			mutate:  func(c *Config) { c.Provider.Mode = "staging" },
			wantErr: "invalid provider mode",
		},
		{
			name:    "negative markup",
			mutate:  func(c *Config) { c.App.DataMarkupBps = -1 },
			wantErr: "markup",
		},
		{
			name:    "zero batch size",
			mutate:  func(c *Config) { c.Scheduler.BatchSize = 0 },
			wantErr: "batch size",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Logger.Level = "verbose" },
			wantErr: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoggerConfigLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			c := &LoggerConfig{Level: tt.level}
			assert.Equal(t, tt.expected, c.slogLevel())
			assert.True(t, c.NewLogger().Enabled(context.Background(), tt.expected))
		})
	}
}

func TestAppConfigMarkupBps(t *testing.T) {
	app := &AppConfig{AirtimeMarkupBps: 50, DataMarkupBps: 100, CableMarkupBps: 150}

	assert.Equal(t, 50, app.MarkupBps("airtime"))
	assert.Equal(t, 100, app.MarkupBps("data"))
	assert.Equal(t, 150, app.MarkupBps("cable"))
}
