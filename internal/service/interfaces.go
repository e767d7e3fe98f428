package service

import (
	"context"

	"github.com/benx421/billpay/internal/models"
)

// HealthChecker validates system health.
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// Purchaser handles purchase submissions and lookups
type Purchaser interface {
	Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error)
	GetPurchase(ctx context.Context, requestID string) (*models.Transaction, error)
}

// Reconciler resolves pending transactions against the biller
type Reconciler interface {
	Sweep(ctx context.Context) (SweepStats, error)
}

// WebhookProcessor applies biller push notifications
type WebhookProcessor interface {
	Process(ctx context.Context, n Notification) error
}

// Ensure concrete types implement interfaces
var (
	_ Purchaser        = (*PurchaseService)(nil)
	_ Reconciler       = (*ReconcileService)(nil)
	_ WebhookProcessor = (*WebhookService)(nil)
	_ terminalApplier  = (*txSettler)(nil)
)
