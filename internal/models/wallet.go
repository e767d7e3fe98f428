package models

import (
	"time"

	"github.com/google/uuid"
)

// Wallet holds a user's spendable balance. One wallet per user.
type Wallet struct {
	CreatedAt           time.Time `db:"created_at"`
	UpdatedAt           time.Time `db:"updated_at"`
	CurrentBalanceCents int64     `db:"current_balance_cents"`
	UserID              uuid.UUID `db:"user_id"`
}

// BalanceSnapshot captures the wallet balance around a debit, recorded on
// the ledger row at debit time and never recomputed.
type BalanceSnapshot struct {
	BeforeCents int64
	AfterCents  int64
}
