// Package handlers implements HTTP handlers for the purchase API.
package handlers

import (
	"log/slog"

	"github.com/benx421/billpay/internal/repository"
	"github.com/benx421/billpay/internal/service"
)

// Handler bundles the endpoint implementations for all routes
type Handler struct {
	purchaseService service.Purchaser
	webhookService  service.WebhookProcessor
	walletRepo      repository.WalletRepository
	healthChecker   service.HealthChecker
	webhookSecret   string
	logger          *slog.Logger
}

// NewHandler creates a new Handler with injected service dependencies.
func NewHandler(
	purchaseService service.Purchaser,
	webhookService service.WebhookProcessor,
	walletRepo repository.WalletRepository,
	healthChecker service.HealthChecker,
	webhookSecret string,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		purchaseService: purchaseService,
		webhookService:  webhookService,
		walletRepo:      walletRepo,
		healthChecker:   healthChecker,
		webhookSecret:   webhookSecret,
		logger:          logger,
	}
}
