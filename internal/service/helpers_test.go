package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/benx421/billpay/internal/models"
	"github.com/google/uuid"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSettler records terminal transitions instead of touching a database.
type settleCall struct {
	requestID string
	status    models.TransactionStatus
	ref       string
	source    string
}

type fakeSettler struct {
	mu      sync.Mutex
	applied bool
	err     error
	calls   []settleCall
}

func (f *fakeSettler) apply(_ context.Context, txn *models.Transaction, status models.TransactionStatus, providerRef string, _ json.RawMessage, source string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, settleCall{
		requestID: txn.RequestID,
		status:    status,
		ref:       providerRef,
		source:    source,
	})
	return f.applied, f.err
}

// memWallets is an in-memory WalletRepository for replay-style tests. The
// mutex stands in for the database's row locking so race tests stay valid.
type memWallets struct {
	mu       sync.Mutex
	balances map[uuid.UUID]int64
}

func newMemWallets() *memWallets {
	return &memWallets{balances: make(map[uuid.UUID]int64)}
}

func (m *memWallets) Create(_ context.Context, userID uuid.UUID, openingBalanceCents int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[userID] = openingBalanceCents
	return nil
}

func (m *memWallets) FindByUserID(_ context.Context, userID uuid.UUID) (*models.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	balance, ok := m.balances[userID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &models.Wallet{UserID: userID, CurrentBalanceCents: balance}, nil
}

func (m *memWallets) FindByUserIDForUpdate(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	return m.FindByUserID(ctx, userID)
}

func (m *memWallets) Debit(_ context.Context, userID uuid.UUID, amountCents int64) (*models.BalanceSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	balance, ok := m.balances[userID]
	if !ok {
		return nil, models.ErrNotFound
	}
	if balance < amountCents {
		return nil, models.ErrInsufficientFunds
	}
	m.balances[userID] = balance - amountCents
	return &models.BalanceSnapshot{BeforeCents: balance, AfterCents: balance - amountCents}, nil
}

func (m *memWallets) Credit(_ context.Context, userID uuid.UUID, amountCents int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	balance, ok := m.balances[userID]
	if !ok {
		return 0, models.ErrNotFound
	}
	m.balances[userID] = balance + amountCents
	return m.balances[userID], nil
}

// memLedger is an in-memory TransactionRepository for replay-style tests.
// MarkTerminal holds the mutex across the check-and-set, mirroring the
// atomicity of the SQL conditional update.
type memLedger struct {
	mu   sync.Mutex
	rows map[string]*models.Transaction
}

func newMemLedger() *memLedger {
	return &memLedger{rows: make(map[string]*models.Transaction)}
}

func (m *memLedger) Create(_ context.Context, txn *models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.rows[txn.RequestID]; exists {
		return models.ErrDuplicateRequest
	}
	clone := *txn
	m.rows[txn.RequestID] = &clone
	return nil
}

func (m *memLedger) FindByRequestID(_ context.Context, requestID string) (*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	txn, ok := m.rows[requestID]
	if !ok {
		return nil, models.ErrNotFound
	}
	clone := *txn
	return &clone, nil
}

func (m *memLedger) MarkTerminal(_ context.Context, requestID string, status models.TransactionStatus, providerRef string, _ json.RawMessage) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	txn, ok := m.rows[requestID]
	if !ok || txn.Status != models.TransactionStatusPending {
		return false, nil
	}
	txn.Status = status
	if providerRef != "" {
		txn.ProviderReference = providerRef
	}
	return true, nil
}

func (m *memLedger) AppendMetadata(_ context.Context, requestID, providerRef string, _ json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	txn, ok := m.rows[requestID]
	if !ok {
		return models.ErrNotFound
	}
	if providerRef != "" {
		txn.ProviderReference = providerRef
	}
	return nil
}

func (m *memLedger) IncrementRetry(_ context.Context, requestID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	txn, ok := m.rows[requestID]
	if !ok {
		return models.ErrNotFound
	}
	txn.RetryCount++
	return nil
}

func (m *memLedger) ListPendingForRequery(_ context.Context, createdAfter time.Time, maxRetries, limit int) ([]*models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var txns []*models.Transaction
	for _, txn := range m.rows {
		if txn.Status == models.TransactionStatusPending && txn.RetryCount < maxRetries && txn.CreatedAt.After(createdAfter) {
			clone := *txn
			txns = append(txns, &clone)
			if len(txns) == limit {
				break
			}
		}
	}
	return txns, nil
}

func (m *memLedger) CountStuckPending(_ context.Context, createdAfter time.Time, maxRetries int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, txn := range m.rows {
		if txn.Status == models.TransactionStatusPending && (txn.RetryCount >= maxRetries || !txn.CreatedAt.After(createdAfter)) {
			count++
		}
	}
	return count, nil
}
