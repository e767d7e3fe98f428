package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benx421/billpay/internal/config"
	"github.com/benx421/billpay/internal/db"
	"github.com/benx421/billpay/internal/handlers"
	"github.com/benx421/billpay/internal/provider"
	"github.com/benx421/billpay/internal/scheduler"
	"github.com/benx421/billpay/internal/service"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting billpay engine",
		"port", cfg.Server.Port,
		"provider_mode", string(cfg.Provider.Mode),
		"log_level", cfg.Logger.Level,
	)

	ctx := context.Background()
	database, err := db.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	biller, err := provider.New(&cfg.Provider, logger)
	if err != nil {
		logger.Error("failed to configure biller client", "error", err)
		os.Exit(1)
	}

	router := handlers.NewRouter(database, redisClient, biller, cfg, logger)

	reconciler := service.NewReconcileService(database, biller, cfg.Scheduler, logger)
	lock := scheduler.NewRedisLock(redisClient, cfg.Scheduler.Interval+30*time.Second, logger)
	sched := scheduler.New(reconciler, lock, cfg.Scheduler.Interval, logger)

	schedCtx, stopScheduler := context.WithCancel(ctx)
	go sched.Run(schedCtx)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	stopScheduler()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}
