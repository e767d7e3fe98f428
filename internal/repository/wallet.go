package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/benx421/billpay/internal/db"
	"github.com/benx421/billpay/internal/models"
	"github.com/google/uuid"
)

// WalletRepository defines the interface for wallet data access
type WalletRepository interface {
	Create(ctx context.Context, userID uuid.UUID, openingBalanceCents int64) error
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	FindByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)

	// Debit withdraws from the wallet, refusing to take the balance negative,
	// and returns the before/after snapshot recorded on the ledger row.
	Debit(ctx context.Context, userID uuid.UUID, amountCents int64) (*models.BalanceSnapshot, error)

	// Credit returns funds to the wallet and reports the new balance.
	Credit(ctx context.Context, userID uuid.UUID, amountCents int64) (int64, error)
}

// walletRepository implements WalletRepository
type walletRepository struct {
	q db.Querier
}

// NewWalletRepository creates a WalletRepository bound to the pool or to an
// open transaction.
func NewWalletRepository(q db.Querier) WalletRepository {
	return &walletRepository{q: q}
}

// Create inserts a wallet with an opening balance
func (r *walletRepository) Create(ctx context.Context, userID uuid.UUID, openingBalanceCents int64) error {
	query := `
		INSERT INTO wallets (user_id, current_balance_cents)
		VALUES ($1, $2)
	`

	if _, err := r.q.ExecContext(ctx, query, userID, openingBalanceCents); err != nil {
		return fmt.Errorf("failed to create wallet: %w", err)
	}

	return nil
}

// FindByUserID retrieves a wallet
func (r *walletRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	return r.find(ctx, userID, false)
}

// FindByUserIDForUpdate retrieves a wallet and locks its row for the duration
// of the surrounding transaction.
func (r *walletRepository) FindByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	return r.find(ctx, userID, true)
}

func (r *walletRepository) find(ctx context.Context, userID uuid.UUID, forUpdate bool) (*models.Wallet, error) {
	query := `
		SELECT user_id, current_balance_cents, created_at, updated_at
		FROM wallets
		WHERE user_id = $1
	`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var wallet models.Wallet
	err := r.q.QueryRowContext(ctx, query, userID).Scan(
		&wallet.UserID,
		&wallet.CurrentBalanceCents,
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find wallet: %w", err)
	}

	return &wallet, nil
}

// Debit withdraws amountCents, guarded in SQL so the balance can never go
// negative even if two debits race past the caller's own balance check.
func (r *walletRepository) Debit(ctx context.Context, userID uuid.UUID, amountCents int64) (*models.BalanceSnapshot, error) {
	query := `
		UPDATE wallets
		SET current_balance_cents = current_balance_cents - $2,
		    updated_at = NOW()
		WHERE user_id = $1 AND current_balance_cents >= $2
		RETURNING current_balance_cents
	`

	var after int64
	err := r.q.QueryRowContext(ctx, query, userID, amountCents).Scan(&after)
	if errors.Is(err, sql.ErrNoRows) {
		// Distinguish a missing wallet from an uncovered debit
		if _, findErr := r.FindByUserID(ctx, userID); findErr != nil {
			return nil, findErr
		}
		return nil, models.ErrInsufficientFunds
	}
	if err != nil {
		return nil, fmt.Errorf("failed to debit wallet: %w", err)
	}

	return &models.BalanceSnapshot{
		BeforeCents: after + amountCents,
		AfterCents:  after,
	}, nil
}

// Credit returns amountCents to the wallet and reports the new balance
func (r *walletRepository) Credit(ctx context.Context, userID uuid.UUID, amountCents int64) (int64, error) {
	query := `
		UPDATE wallets
		SET current_balance_cents = current_balance_cents + $2,
		    updated_at = NOW()
		WHERE user_id = $1
		RETURNING current_balance_cents
	`

	var after int64
	err := r.q.QueryRowContext(ctx, query, userID, amountCents).Scan(&after)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, models.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to credit wallet: %w", err)
	}

	return after, nil
}
