package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/benx421/billpay/internal/config"
	"github.com/benx421/billpay/internal/db"
	"github.com/benx421/billpay/internal/ids"
	"github.com/benx421/billpay/internal/metrics"
	"github.com/benx421/billpay/internal/models"
	"github.com/benx421/billpay/internal/outcome"
	"github.com/benx421/billpay/internal/provider"
	"github.com/benx421/billpay/internal/repository"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// Reconciliation sources, used in logs and refund metrics.
const (
	sourcePay     = "pay"
	sourceRequery = "requery"
	sourceWebhook = "webhook"
)

// SubmitRequest is a purchase submission.
type SubmitRequest struct {
	UserID      uuid.UUID
	Category    models.Category
	Target      string
	AmountCents int64
	// RequestID is the caller-supplied idempotency token. Empty means the
	// engine generates one.
	RequestID string
}

// SubmitResult is the caller-visible state of a purchase after submission.
type SubmitResult struct {
	RequestID          string                   `json:"request_id"`
	Status             models.TransactionStatus `json:"status"`
	Message            string                   `json:"message"`
	ProviderReference  string                   `json:"provider_reference,omitempty"`
	ChargedAmountCents int64                    `json:"charged_amount_cents"`
	ProviderPayload    json.RawMessage          `json:"provider_payload,omitempty"`
	Replayed           bool                     `json:"replayed,omitempty"`
}

// PurchaseService is the synchronous purchase orchestrator: it holds wallet
// funds atomically with ledger creation, submits to the biller, and settles
// the outcome.
type PurchaseService struct {
	db      *db.DB
	txRepo  repository.TransactionRepository
	biller  provider.Biller
	settler terminalApplier
	app     *config.AppConfig
	logger  *slog.Logger
}

// NewPurchaseService creates a new PurchaseService
func NewPurchaseService(database *db.DB, biller provider.Biller, appCfg *config.AppConfig, logger *slog.Logger) *PurchaseService {
	return &PurchaseService{
		db:      database,
		txRepo:  repository.NewTransactionRepository(database.DB),
		biller:  biller,
		settler: newTxSettler(database, logger),
		app:     appCfg,
		logger:  logger,
	}
}

// Submit performs a utility purchase. Retrying with the same request id is
// safe: an already-resolved request replays the ledger's answer without a
// second provider call or wallet mutation.
func (s *PurchaseService) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	if err := validateSubmitRequest(req); err != nil {
		return nil, err
	}

	requestID := req.RequestID
	if requestID == "" {
		requestID = ids.NewRequestID()
	}

	existing, err := s.txRepo.FindByRequestID(ctx, requestID)
	if err == nil {
		s.logger.Info("replaying resolved request",
			"request_id", requestID,
			"status", string(existing.Status),
		)
		return replayResult(existing), nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: fmt.Sprintf("idempotency lookup failed: %v", err),
		}
	}

	charged := chargedAmountCents(req.AmountCents, s.app.MarkupBps(string(req.Category)))

	txn, err := s.holdFunds(ctx, req, requestID, charged)
	if errors.Is(err, models.ErrDuplicateRequest) {
		// Lost a race against a concurrent submission with the same token.
		existing, ferr := s.txRepo.FindByRequestID(ctx, requestID)
		if ferr != nil {
			return nil, &ServiceError{
				Code:    ErrCodeInternalError,
				Message: fmt.Sprintf("idempotency re-read failed: %v", ferr),
			}
		}
		return replayResult(existing), nil
	}
	if err != nil {
		return nil, err
	}

	return s.finishSubmit(ctx, txn)
}

// holdFunds runs the atomic hold: request-id race guard, balance check, debit
// and pending ledger insert inside one database transaction.
func (s *PurchaseService) holdFunds(ctx context.Context, req SubmitRequest, requestID string, chargedCents int64) (*models.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: fmt.Sprintf("failed to start transaction: %v", err),
		}
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback error is not critical in defer
	}()

	txn, err := s.performHold(ctx,
		repository.NewTransactionRepository(tx),
		repository.NewWalletRepository(tx),
		req, requestID, chargedCents)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: fmt.Sprintf("failed to commit transaction: %v", err),
		}
	}

	return txn, nil
}

// performHold contains the core atomic-hold business logic
func (s *PurchaseService) performHold(
	ctx context.Context,
	transactionRepo repository.TransactionRepository,
	walletRepo repository.WalletRepository,
	req SubmitRequest,
	requestID string,
	chargedCents int64,
) (*models.Transaction, error) {
	// Race guard inside the transaction; the unique constraint backs it up.
	if _, err := transactionRepo.FindByRequestID(ctx, requestID); err == nil {
		return nil, models.ErrDuplicateRequest
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: fmt.Sprintf("request id check failed: %v", err),
		}
	}

	wallet, err := walletRepo.FindByUserIDForUpdate(ctx, req.UserID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, &ServiceError{
			Code:    ErrCodeWalletNotFound,
			Message: "wallet not found",
		}
	}
	if err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: fmt.Sprintf("failed to load wallet: %v", err),
		}
	}

	if wallet.CurrentBalanceCents < chargedCents {
		return nil, &ServiceError{
			Code:    ErrCodeInsufficientFunds,
			Message: "insufficient funds",
		}
	}

	snapshot, err := walletRepo.Debit(ctx, req.UserID, chargedCents)
	if errors.Is(err, models.ErrInsufficientFunds) {
		return nil, &ServiceError{
			Code:    ErrCodeInsufficientFunds,
			Message: "insufficient funds",
		}
	}
	if err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: fmt.Sprintf("failed to debit wallet: %v", err),
		}
	}

	txn := &models.Transaction{
		RequestID:           requestID,
		UserID:              req.UserID,
		Category:            req.Category,
		Target:              req.Target,
		ProviderAmountCents: req.AmountCents,
		ChargedAmountCents:  chargedCents,
		Status:              models.TransactionStatusPending,
		BalanceBeforeCents:  snapshot.BeforeCents,
		BalanceAfterCents:   snapshot.AfterCents,
	}

	if err := transactionRepo.Create(ctx, txn); err != nil {
		if errors.Is(err, models.ErrDuplicateRequest) {
			return nil, err
		}
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: fmt.Sprintf("failed to create transaction: %v", err),
		}
	}

	return txn, nil
}

// finishSubmit calls the biller and settles the classified outcome.
func (s *PurchaseService) finishSubmit(ctx context.Context, txn *models.Transaction) (*SubmitResult, error) {
	timer := prometheus.NewTimer(metrics.ProviderRequestSeconds.WithLabelValues("pay"))
	resp, err := s.biller.Pay(ctx, provider.PayRequest{
		RequestID:   txn.RequestID,
		Category:    txn.Category,
		Target:      txn.Target,
		AmountCents: txn.ProviderAmountCents,
	})
	timer.ObserveDuration()

	if err != nil {
		// No provider reference was obtained, so the row cannot be requeried.
		// Fail and refund rather than stranding the hold. If the biller did
		// process the charge despite the transport error, the refund is a
		// liability until statements are cross-checked; the timeout counter
		// and the tagged metadata exist for exactly that audit.
		metrics.ProviderTimeoutsTotal.Inc()
		metrics.PurchasesTotal.WithLabelValues(string(txn.Category), "transport_error").Inc()

		payload, _ := json.Marshal(map[string]string{
			"source": sourcePay,
			"error":  err.Error(),
			"note":   "timeout_refund",
		})
		if _, serr := s.settler.apply(ctx, txn, models.TransactionStatusFailed, "", payload, sourcePay); serr != nil {
			s.logger.Error("failed to settle after provider error",
				"request_id", txn.RequestID,
				"error", serr,
			)
		}

		return nil, &ServiceError{
			Code:    ErrCodeProviderUnavailable,
			Message: genericFailureMessage(txn.Category),
			Err:     err,
		}
	}

	out := outcome.Classify(resp.Code, resp.Content.Transactions.Status, resp.ResponseDescription)
	metrics.PurchasesTotal.WithLabelValues(string(txn.Category), string(out)).Inc()
	ref := resp.Content.Transactions.TransactionID

	switch out {
	case outcome.Delivered:
		if _, err := s.settler.apply(ctx, txn, models.TransactionStatusSuccess, ref, resp.Raw, sourcePay); err != nil {
			return nil, &ServiceError{
				Code:    ErrCodeInternalError,
				Message: fmt.Sprintf("failed to settle delivery: %v", err),
			}
		}
		return &SubmitResult{
			RequestID:          txn.RequestID,
			Status:             models.TransactionStatusSuccess,
			Message:            "purchase delivered",
			ProviderReference:  ref,
			ChargedAmountCents: txn.ChargedAmountCents,
			ProviderPayload:    resp.Raw,
		}, nil

	case outcome.Reversed, outcome.Failed:
		if _, err := s.settler.apply(ctx, txn, models.TransactionStatusFailed, ref, resp.Raw, sourcePay); err != nil {
			// The row stays pending and the sweep will retry; the caller
			// still sees the rejection.
			s.logger.Error("failed to settle rejection",
				"request_id", txn.RequestID,
				"error", err,
			)
		}
		return nil, &ServiceError{
			Code:    ErrCodeProviderRejected,
			Message: failureMessage(txn.Category, resp.ResponseDescription),
		}

	default: // Processing or Unknown: leave pending for reconciliation
		if out == outcome.Unknown {
			s.logger.Warn("unrecognized provider response, leaving transaction pending",
				"request_id", txn.RequestID,
				"code", resp.Code,
				"provider_status", resp.Content.Transactions.Status,
			)
		}
		if err := s.txRepo.AppendMetadata(ctx, txn.RequestID, ref, resp.Raw); err != nil {
			s.logger.Error("failed to record provider payload",
				"request_id", txn.RequestID,
				"error", err,
			)
		}
		return &SubmitResult{
			RequestID:          txn.RequestID,
			Status:             models.TransactionStatusPending,
			Message:            "purchase processing",
			ProviderReference:  ref,
			ChargedAmountCents: txn.ChargedAmountCents,
			ProviderPayload:    resp.Raw,
		}, nil
	}
}

// GetPurchase retrieves a transaction by request id
func (s *PurchaseService) GetPurchase(ctx context.Context, requestID string) (*models.Transaction, error) {
	txn, err := s.txRepo.FindByRequestID(ctx, requestID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, &ServiceError{
			Code:    "purchase_not_found",
			Message: "purchase not found",
		}
	}
	if err != nil {
		return nil, &ServiceError{
			Code:    ErrCodeInternalError,
			Message: fmt.Sprintf("failed to load purchase: %v", err),
		}
	}
	return txn, nil
}

func validateSubmitRequest(req SubmitRequest) error {
	if _, err := models.ParseCategory(string(req.Category)); err != nil {
		return &ServiceError{
			Code:    ErrCodeInvalidCategory,
			Message: fmt.Sprintf("unknown category %q", req.Category),
		}
	}
	if req.AmountCents <= 0 {
		return &ServiceError{
			Code:    ErrCodeInvalidAmount,
			Message: "amount must be positive",
		}
	}
	if req.Target == "" {
		return &ServiceError{
			Code:    ErrCodeInvalidTarget,
			Message: "target cannot be empty",
		}
	}
	if req.UserID == uuid.Nil {
		return &ServiceError{
			Code:    ErrCodeWalletNotFound,
			Message: "user id cannot be empty",
		}
	}
	return nil
}

// replayResult rebuilds the caller-visible answer from the ledger row.
func replayResult(txn *models.Transaction) *SubmitResult {
	var message string
	switch txn.Status {
	case models.TransactionStatusSuccess:
		message = "purchase delivered"
	case models.TransactionStatusFailed:
		message = genericFailureMessage(txn.Category)
	default:
		message = "purchase processing"
	}

	return &SubmitResult{
		RequestID:          txn.RequestID,
		Status:             txn.Status,
		Message:            message,
		ProviderReference:  txn.ProviderReference,
		ChargedAmountCents: txn.ChargedAmountCents,
		ProviderPayload:    txn.Metadata,
		Replayed:           true,
	}
}

// chargedAmountCents applies the category markup in basis points.
func chargedAmountCents(providerCents int64, markupBps int) int64 {
	return providerCents + providerCents*int64(markupBps)/10000
}

func genericFailureMessage(category models.Category) string {
	switch category {
	case models.CategoryData:
		return "data bundle purchase failed"
	case models.CategoryCable:
		return "cable subscription failed"
	default:
		return "airtime purchase failed"
	}
}

func failureMessage(category models.Category, description string) string {
	if description != "" {
		return description
	}
	return genericFailureMessage(category)
}
