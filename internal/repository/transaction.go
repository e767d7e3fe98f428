// Package repository provides data access for the purchase ledger and wallets.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/benx421/billpay/internal/db"
	"github.com/benx421/billpay/internal/models"
	"github.com/lib/pq"
)

// TransactionRepository defines the interface for ledger data access
type TransactionRepository interface {
	Create(ctx context.Context, txn *models.Transaction) error
	FindByRequestID(ctx context.Context, requestID string) (*models.Transaction, error)

	// MarkTerminal moves a pending transaction to a terminal status in one
	// conditional update, appending the raw provider payload to the metadata
	// log. It returns false when the row was no longer pending, which is the
	// guard every reconciliation path relies on: only the caller that sees
	// true may apply the financial effect (refund) of the transition.
	MarkTerminal(ctx context.Context, requestID string, status models.TransactionStatus, providerRef string, payload json.RawMessage) (bool, error)

	// AppendMetadata records a raw provider payload on the audit log without
	// touching status, setting the provider reference if newly known.
	AppendMetadata(ctx context.Context, requestID, providerRef string, payload json.RawMessage) error
	IncrementRetry(ctx context.Context, requestID string) error
	ListPendingForRequery(ctx context.Context, createdAfter time.Time, maxRetries, limit int) ([]*models.Transaction, error)
	CountStuckPending(ctx context.Context, createdAfter time.Time, maxRetries int) (int64, error)
}

// transactionRepository implements TransactionRepository
type transactionRepository struct {
	q db.Querier
}

// NewTransactionRepository creates a TransactionRepository bound to the pool
// or to an open transaction.
func NewTransactionRepository(q db.Querier) TransactionRepository {
	return &transactionRepository{q: q}
}

const transactionColumns = `
	request_id, user_id, category, target,
	provider_amount_cents, charged_amount_cents, status,
	balance_before_cents, balance_after_cents,
	provider_reference, retry_count, metadata,
	created_at, updated_at
`

// Create inserts a new pending ledger row. A request_id collision maps to
// models.ErrDuplicateRequest so callers can treat it as an idempotent replay.
func (r *transactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	metadata := txn.Metadata
	if len(metadata) == 0 {
		metadata = json.RawMessage(`[]`)
	}

	query := `
		INSERT INTO transactions (
			request_id, user_id, category, target,
			provider_amount_cents, charged_amount_cents, status,
			balance_before_cents, balance_after_cents, metadata
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	err := r.q.QueryRowContext(ctx, query,
		txn.RequestID,
		txn.UserID,
		txn.Category,
		txn.Target,
		txn.ProviderAmountCents,
		txn.ChargedAmountCents,
		txn.Status,
		txn.BalanceBeforeCents,
		txn.BalanceAfterCents,
		metadata,
	).Scan(&txn.CreatedAt, &txn.UpdatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return models.ErrDuplicateRequest
	}
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

// FindByRequestID retrieves a transaction by its idempotency token
func (r *transactionRepository) FindByRequestID(ctx context.Context, requestID string) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE request_id = $1`

	txn, err := scanTransaction(r.q.QueryRowContext(ctx, query, requestID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction by request id: %w", err)
	}

	return txn, nil
}

// MarkTerminal applies the guarded status transition. The WHERE clause on
// status = 'pending' is what closes the race between the synchronous path,
// the reconciliation sweep and the webhook receiver.
func (r *transactionRepository) MarkTerminal(ctx context.Context, requestID string, status models.TransactionStatus, providerRef string, payload json.RawMessage) (bool, error) {
	if !status.IsTerminal() {
		return false, fmt.Errorf("status %q is not terminal", status)
	}
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}

	query := `
		UPDATE transactions
		SET status = $2,
		    provider_reference = CASE WHEN $3 = '' THEN provider_reference ELSE $3 END,
		    metadata = metadata || $4::jsonb,
		    updated_at = NOW()
		WHERE request_id = $1 AND status = 'pending'
	`

	result, err := r.q.ExecContext(ctx, query, requestID, status, providerRef, string(payload))
	if err != nil {
		return false, fmt.Errorf("failed to mark transaction terminal: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected == 1, nil
}

// AppendMetadata records a raw provider payload on the audit log. Used for
// processing responses that leave the row pending and for payloads arriving
// after the row is already terminal.
func (r *transactionRepository) AppendMetadata(ctx context.Context, requestID, providerRef string, payload json.RawMessage) error {
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}

	query := `
		UPDATE transactions
		SET metadata = metadata || $2::jsonb,
		    provider_reference = CASE WHEN $3 = '' THEN provider_reference ELSE $3 END,
		    updated_at = NOW()
		WHERE request_id = $1
	`

	result, err := r.q.ExecContext(ctx, query, requestID, string(payload), providerRef)
	if err != nil {
		return fmt.Errorf("failed to append transaction metadata: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return models.ErrNotFound
	}

	return nil
}

// IncrementRetry bumps the reconciliation attempt counter
func (r *transactionRepository) IncrementRetry(ctx context.Context, requestID string) error {
	query := `
		UPDATE transactions
		SET retry_count = retry_count + 1,
		    updated_at = NOW()
		WHERE request_id = $1
	`

	result, err := r.q.ExecContext(ctx, query, requestID)
	if err != nil {
		return fmt.Errorf("failed to increment retry count: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return models.ErrNotFound
	}

	return nil
}

// ListPendingForRequery selects transactions still eligible for the
// reconciliation sweep: pending, under the retry ceiling, and created after
// the age-window cutoff. Older or exhausted rows are left for the stuck
// counter and manual intervention.
func (r *transactionRepository) ListPendingForRequery(ctx context.Context, createdAfter time.Time, maxRetries, limit int) ([]*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE status = 'pending'
		  AND retry_count < $1
		  AND created_at > $2
		ORDER BY created_at
		LIMIT $3
	`

	rows, err := r.q.QueryContext(ctx, query, maxRetries, createdAfter, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending transactions: %w", err)
	}
	defer rows.Close()

	var txns []*models.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending transaction: %w", err)
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pending transactions: %w", err)
	}

	return txns, nil
}

// CountStuckPending counts pending rows past the retry ceiling or outside the
// age window. These are never touched automatically; the count feeds the
// reconciliation-exhausted alert.
func (r *transactionRepository) CountStuckPending(ctx context.Context, createdAfter time.Time, maxRetries int) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM transactions
		WHERE status = 'pending'
		  AND (retry_count >= $1 OR created_at <= $2)
	`

	var count int64
	if err := r.q.QueryRowContext(ctx, query, maxRetries, createdAfter).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count stuck transactions: %w", err)
	}

	return count, nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanTransaction
type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (*models.Transaction, error) {
	var txn models.Transaction
	err := s.Scan(
		&txn.RequestID,
		&txn.UserID,
		&txn.Category,
		&txn.Target,
		&txn.ProviderAmountCents,
		&txn.ChargedAmountCents,
		&txn.Status,
		&txn.BalanceBeforeCents,
		&txn.BalanceAfterCents,
		&txn.ProviderReference,
		&txn.RetryCount,
		&txn.Metadata,
		&txn.CreatedAt,
		&txn.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &txn, nil
}
