package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/benx421/billpay/internal/models"
	"github.com/benx421/billpay/internal/repository/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerformSettle(t *testing.T) {
	payload := json.RawMessage(`{"code":"000"}`)

	t.Run("delivered settles without wallet mutation", func(t *testing.T) {
		mockTxRepo := mocks.NewMockTransactionRepository(t)
		mockWalletRepo := mocks.NewMockWalletRepository(t)
		ctx := context.Background()

		txn := &models.Transaction{
			RequestID:          "req-1",
			UserID:             uuid.New(),
			ChargedAmountCents: 50000,
			Status:             models.TransactionStatusPending,
		}

		mockTxRepo.On("MarkTerminal", ctx, "req-1", models.TransactionStatusSuccess, "prov-1", payload).Return(true, nil)

		applied, err := performSettle(ctx, mockTxRepo, mockWalletRepo, txn, models.TransactionStatusSuccess, "prov-1", payload, sourcePay, testLogger())

		assert.NoError(t, err)
		assert.True(t, applied)
		// No Credit expectation on the wallet mock: a success must never
		// touch the wallet, the funds are already held.
	})

	t.Run("failed settles with exactly one refund", func(t *testing.T) {
		mockTxRepo := mocks.NewMockTransactionRepository(t)
		mockWalletRepo := mocks.NewMockWalletRepository(t)
		ctx := context.Background()

		userID := uuid.New()
		txn := &models.Transaction{
			RequestID:          "req-2",
			UserID:             userID,
			ChargedAmountCents: 50000,
			Status:             models.TransactionStatusPending,
		}

		mockTxRepo.On("MarkTerminal", ctx, "req-2", models.TransactionStatusFailed, "", payload).Return(true, nil)
		mockWalletRepo.On("Credit", ctx, userID, int64(50000)).Return(int64(100000), nil)

		applied, err := performSettle(ctx, mockTxRepo, mockWalletRepo, txn, models.TransactionStatusFailed, "", payload, sourceWebhook, testLogger())

		assert.NoError(t, err)
		assert.True(t, applied)
	})

	t.Run("losing the terminal race skips the refund", func(t *testing.T) {
		// This is the webhook/scheduler race: whichever path loses the
		// conditional update must not credit the wallet a second time.
		mockTxRepo := mocks.NewMockTransactionRepository(t)
		mockWalletRepo := mocks.NewMockWalletRepository(t)
		ctx := context.Background()

		txn := &models.Transaction{
			RequestID:          "req-3",
			UserID:             uuid.New(),
			ChargedAmountCents: 50000,
			Status:             models.TransactionStatusPending,
		}

		mockTxRepo.On("MarkTerminal", ctx, "req-3", models.TransactionStatusFailed, "", payload).Return(false, nil)

		applied, err := performSettle(ctx, mockTxRepo, mockWalletRepo, txn, models.TransactionStatusFailed, "", payload, sourceRequery, testLogger())

		assert.NoError(t, err)
		assert.False(t, applied)
	})

	t.Run("refund error propagates", func(t *testing.T) {
		mockTxRepo := mocks.NewMockTransactionRepository(t)
		mockWalletRepo := mocks.NewMockWalletRepository(t)
		ctx := context.Background()

		userID := uuid.New()
		txn := &models.Transaction{
			RequestID:          "req-4",
			UserID:             userID,
			ChargedAmountCents: 25000,
			Status:             models.TransactionStatusPending,
		}

		mockTxRepo.On("MarkTerminal", ctx, "req-4", models.TransactionStatusFailed, "", payload).Return(true, nil)
		mockWalletRepo.On("Credit", ctx, userID, int64(25000)).Return(int64(0), errors.New("connection reset"))

		applied, err := performSettle(ctx, mockTxRepo, mockWalletRepo, txn, models.TransactionStatusFailed, "", payload, sourcePay, testLogger())

		assert.Error(t, err)
		assert.False(t, applied)
	})
}

func TestDoubleRefundRace(t *testing.T) {
	// Scheduler and webhook observe the same pending transaction with a
	// reversed outcome. Against the shared in-memory ledger the conditional
	// transition lets exactly one of them refund.
	ctx := context.Background()
	userID := uuid.New()

	wallets := newMemWallets()
	require.NoError(t, wallets.Create(ctx, userID, 50000))

	ledger := newMemLedger()
	txn := &models.Transaction{
		RequestID:          "req-race",
		UserID:             userID,
		Category:           models.CategoryData,
		ChargedAmountCents: 50000,
		Status:             models.TransactionStatusPending,
	}
	require.NoError(t, ledger.Create(ctx, txn))

	payload := json.RawMessage(`{"code":"040"}`)

	first, err := performSettle(ctx, ledger, wallets, txn, models.TransactionStatusFailed, "", payload, sourceRequery, testLogger())
	assert.NoError(t, err)
	assert.True(t, first)

	second, err := performSettle(ctx, ledger, wallets, txn, models.TransactionStatusFailed, "", payload, sourceWebhook, testLogger())
	assert.NoError(t, err)
	assert.False(t, second)

	balance, err := wallets.FindByUserID(ctx, userID)
	assert.NoError(t, err)
	assert.Equal(t, int64(100000), balance.CurrentBalanceCents)

	settled, err := ledger.FindByRequestID(ctx, "req-race")
	assert.NoError(t, err)
	assert.Equal(t, models.TransactionStatusFailed, settled.Status)
}

func TestDoubleRefundRaceConcurrent(t *testing.T) {
	// All three reconciliation paths observe the same reversal at the same
	// instant. Whatever the interleaving, exactly one settle wins and the
	// wallet is refunded exactly once.
	ctx := context.Background()
	userID := uuid.New()

	wallets := newMemWallets()
	require.NoError(t, wallets.Create(ctx, userID, 50000))

	ledger := newMemLedger()
	txn := &models.Transaction{
		RequestID:          "req-race-conc",
		UserID:             userID,
		Category:           models.CategoryAirtime,
		ChargedAmountCents: 50000,
		Status:             models.TransactionStatusPending,
	}
	require.NoError(t, ledger.Create(ctx, txn))

	payload := json.RawMessage(`{"code":"040"}`)
	sources := []string{sourcePay, sourceRequery, sourceWebhook}

	var wg sync.WaitGroup
	wins := make(chan bool, len(sources))
	for _, source := range sources {
		wg.Add(1)
		go func(source string) {
			defer wg.Done()
			applied, err := performSettle(ctx, ledger, wallets, txn, models.TransactionStatusFailed, "", payload, source, testLogger())
			assert.NoError(t, err)
			wins <- applied
		}(source)
	}
	wg.Wait()
	close(wins)

	var winners int
	for applied := range wins {
		if applied {
			winners++
		}
	}
	assert.Equal(t, 1, winners, "exactly one path may own the terminal transition")

	balance, err := wallets.FindByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(100000), balance.CurrentBalanceCents, "the hold must be refunded exactly once")
}
