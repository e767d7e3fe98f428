package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/benx421/billpay/internal/db"
	"github.com/benx421/billpay/internal/metrics"
	"github.com/benx421/billpay/internal/models"
	"github.com/benx421/billpay/internal/outcome"
	"github.com/benx421/billpay/internal/provider"
	"github.com/benx421/billpay/internal/repository"
)

// Notification is an unsolicited biller push about a purchase, keyed by the
// biller's echo of the request id.
type Notification struct {
	RequestID           string           `json:"requestId"`
	Code                string           `json:"code"`
	ResponseDescription string           `json:"response_description"`
	Content             provider.Content `json:"content"`
	// Raw is the verbatim body, kept for the ledger's audit metadata.
	Raw json.RawMessage `json:"-"`
}

// WebhookService applies biller push notifications to the ledger using the
// same classifier and terminal-transition rule as the other two paths.
type WebhookService struct {
	txRepo  repository.TransactionRepository
	settler terminalApplier
	logger  *slog.Logger
}

// NewWebhookService creates a new WebhookService
func NewWebhookService(database *db.DB, logger *slog.Logger) *WebhookService {
	return &WebhookService{
		txRepo:  repository.NewTransactionRepository(database.DB),
		settler: newTxSettler(database, logger),
		logger:  logger,
	}
}

// Process handles one notification. Notifications for unknown request ids or
// already-terminal rows are dropped without effect; dropping terminal rows is
// the primary defense against a double refund when this path races the sweep.
func (s *WebhookService) Process(ctx context.Context, n Notification) error {
	if n.RequestID == "" {
		metrics.WebhookDroppedTotal.WithLabelValues("missing_request_id").Inc()
		s.logger.Warn("webhook notification without request id dropped")
		return nil
	}

	txn, err := s.txRepo.FindByRequestID(ctx, n.RequestID)
	if errors.Is(err, models.ErrNotFound) {
		metrics.WebhookDroppedTotal.WithLabelValues("unknown_request_id").Inc()
		s.logger.Warn("webhook for unknown request id dropped",
			"request_id", n.RequestID,
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load transaction for webhook: %w", err)
	}

	ref := n.Content.Transactions.TransactionID

	if txn.Status.IsTerminal() {
		metrics.WebhookDroppedTotal.WithLabelValues("already_terminal").Inc()
		s.logger.Info("webhook for settled transaction dropped",
			"request_id", n.RequestID,
			"status", string(txn.Status),
		)
		if err := s.txRepo.AppendMetadata(ctx, n.RequestID, "", n.Raw); err != nil {
			s.logger.Error("failed to record webhook payload",
				"request_id", n.RequestID,
				"error", err,
			)
		}
		return nil
	}

	out := outcome.Classify(n.Code, n.Content.Transactions.Status, n.ResponseDescription)

	if !out.Terminal() {
		if out == outcome.Unknown {
			s.logger.Warn("unrecognized webhook payload",
				"request_id", n.RequestID,
				"code", n.Code,
				"provider_status", n.Content.Transactions.Status,
			)
		}
		if err := s.txRepo.AppendMetadata(ctx, n.RequestID, ref, n.Raw); err != nil {
			s.logger.Error("failed to record webhook payload",
				"request_id", n.RequestID,
				"error", err,
			)
		}
		return nil
	}

	if _, err := s.settler.apply(ctx, txn, statusForOutcome(out), ref, n.Raw, sourceWebhook); err != nil {
		return fmt.Errorf("failed to settle webhook outcome: %w", err)
	}

	return nil
}
