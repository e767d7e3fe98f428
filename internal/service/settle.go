package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/benx421/billpay/internal/db"
	"github.com/benx421/billpay/internal/metrics"
	"github.com/benx421/billpay/internal/models"
	"github.com/benx421/billpay/internal/outcome"
	"github.com/benx421/billpay/internal/repository"
)

// terminalApplier applies the guarded pending -> terminal transition. The
// synchronous path, the reconciliation sweep and the webhook receiver must
// all settle through the same implementation; it is the only code allowed to
// refund a wallet.
type terminalApplier interface {
	apply(ctx context.Context, txn *models.Transaction, status models.TransactionStatus, providerRef string, payload json.RawMessage, source string) (bool, error)
}

// txSettler implements terminalApplier inside a single database transaction,
// so the status write and the refund commit or roll back together.
type txSettler struct {
	db     *db.DB
	logger *slog.Logger
}

func newTxSettler(database *db.DB, logger *slog.Logger) *txSettler {
	return &txSettler{db: database, logger: logger}
}

func (s *txSettler) apply(ctx context.Context, txn *models.Transaction, status models.TransactionStatus, providerRef string, payload json.RawMessage, source string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return false, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback error is not critical in defer
	}()

	applied, err := performSettle(ctx,
		repository.NewTransactionRepository(tx),
		repository.NewWalletRepository(tx),
		txn, status, providerRef, payload, source, s.logger)
	if err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit settlement: %w", err)
	}

	return applied, nil
}

// performSettle contains the core terminal-transition logic. The conditional
// MarkTerminal decides the race: whichever caller gets true owns the
// transition and, for failures, issues the single refund. A false return
// means another path settled the row first and nothing further happens.
func performSettle(
	ctx context.Context,
	transactionRepo repository.TransactionRepository,
	walletRepo repository.WalletRepository,
	txn *models.Transaction,
	status models.TransactionStatus,
	providerRef string,
	payload json.RawMessage,
	source string,
	logger *slog.Logger,
) (bool, error) {
	applied, err := transactionRepo.MarkTerminal(ctx, txn.RequestID, status, providerRef, payload)
	if err != nil {
		return false, fmt.Errorf("failed to settle transaction: %w", err)
	}

	if !applied {
		logger.Info("transaction already settled by another path",
			"request_id", txn.RequestID,
			"source", source,
		)
		return false, nil
	}

	if status == models.TransactionStatusFailed {
		newBalance, err := walletRepo.Credit(ctx, txn.UserID, txn.ChargedAmountCents)
		if err != nil {
			// The surrounding transaction rolls back, leaving the row pending
			// for a later sweep. Counted so the gap is visible.
			metrics.RefundFailuresTotal.Inc()
			logger.Error("refund failed",
				"request_id", txn.RequestID,
				"user_id", txn.UserID.String(),
				"amount_cents", txn.ChargedAmountCents,
				"source", source,
				"error", err,
			)
			return false, fmt.Errorf("failed to refund wallet: %w", err)
		}

		metrics.RefundsTotal.WithLabelValues(source).Inc()
		logger.Info("wallet refunded",
			"request_id", txn.RequestID,
			"user_id", txn.UserID.String(),
			"amount_cents", txn.ChargedAmountCents,
			"balance_after_cents", newBalance,
			"source", source,
		)
	}

	logger.Info("transaction settled",
		"request_id", txn.RequestID,
		"status", string(status),
		"source", source,
	)

	return true, nil
}

// statusForOutcome maps a terminal classification to the ledger status.
func statusForOutcome(out outcome.Outcome) models.TransactionStatus {
	if out == outcome.Delivered {
		return models.TransactionStatusSuccess
	}
	return models.TransactionStatusFailed
}
