package handlers

import (
	"log/slog"
	"net/http"

	"github.com/benx421/billpay/internal/config"
	"github.com/benx421/billpay/internal/db"
	"github.com/benx421/billpay/internal/middleware"
	"github.com/benx421/billpay/internal/provider"
	"github.com/benx421/billpay/internal/repository"
	"github.com/benx421/billpay/internal/service"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// NewRouter creates and configures the HTTP router with all routes and middleware.
func NewRouter(
	database *db.DB,
	redisClient *redis.Client,
	biller provider.Biller,
	cfg *config.Config,
	logger *slog.Logger,
) http.Handler {
	purchaseService := service.NewPurchaseService(database, biller, &cfg.App, logger)
	webhookService := service.NewWebhookService(database, logger)
	walletRepo := repository.NewWalletRepository(database.DB)

	handler := NewHandler(purchaseService, webhookService, walletRepo, database, cfg.Webhook.Secret, logger)

	r := mux.NewRouter()
	r.HandleFunc("/health", handler.GetHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/purchases/{category}", handler.CreatePurchase).Methods(http.MethodPost)
	api.HandleFunc("/purchases/{requestId}", handler.GetPurchase).Methods(http.MethodGet)
	api.HandleFunc("/wallets/{userId}", handler.GetWallet).Methods(http.MethodGet)
	api.HandleFunc("/webhooks/biller", handler.BillerWebhook).Methods(http.MethodPost)

	var finalHandler http.Handler = r

	counter := middleware.NewRedisCounter(redisClient)
	finalHandler = middleware.RateLimit(counter, cfg.App.RateLimitBudget, cfg.App.RateLimitWindow, logger)(finalHandler)
	finalHandler = middleware.RequestLog(logger)(finalHandler)

	return finalHandler
}
