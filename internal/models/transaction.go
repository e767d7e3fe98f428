package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Category represents the utility vertical a purchase belongs to
type Category string

const (
	CategoryAirtime Category = "airtime"
	CategoryData    Category = "data"
	CategoryCable   Category = "cable"
)

// ParseCategory converts a raw string into a known Category
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryAirtime, CategoryData, CategoryCable:
		return Category(s), nil
	default:
		return "", ErrInvalidCategory
	}
}

// TransactionStatus represents the status of a purchase transaction
type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "pending"
	TransactionStatusSuccess TransactionStatus = "success"
	TransactionStatusFailed  TransactionStatus = "failed"
)

// IsTerminal reports whether the status can never change again
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusSuccess || s == TransactionStatusFailed
}

// Transaction is the permanent ledger record of a utility purchase.
//
// A row is created in the same database transaction as the wallet debit and
// is never deleted. Status moves pending -> {success|failed} exactly once;
// Metadata accumulates every raw provider payload seen for the request.
type Transaction struct {
	CreatedAt           time.Time         `db:"created_at"`
	UpdatedAt           time.Time         `db:"updated_at"`
	RequestID           string            `db:"request_id"`
	Target              string            `db:"target"`
	ProviderReference   string            `db:"provider_reference"`
	Category            Category          `db:"category"`
	Status              TransactionStatus `db:"status"`
	Metadata            json.RawMessage   `db:"metadata"`
	ProviderAmountCents int64             `db:"provider_amount_cents"`
	ChargedAmountCents  int64             `db:"charged_amount_cents"`
	BalanceBeforeCents  int64             `db:"balance_before_cents"`
	BalanceAfterCents   int64             `db:"balance_after_cents"`
	RetryCount          int               `db:"retry_count"`
	UserID              uuid.UUID         `db:"user_id"`
}
