// Package provider implements the client for the external utility biller
// (airtime, data bundles, cable subscriptions).
package provider

import (
	"context"
	"encoding/json"

	"github.com/benx421/billpay/internal/models"
)

// PayRequest carries everything the biller needs to fulfil a purchase. The
// RequestID doubles as the biller-side idempotency key.
type PayRequest struct {
	RequestID   string          `json:"request_id"`
	Category    models.Category `json:"category"`
	Target      string          `json:"target"`
	AmountCents int64           `json:"amount_cents"`
}

// TransactionDetail is the biller's view of a single transaction.
type TransactionDetail struct {
	Status        string  `json:"status"`
	TransactionID string  `json:"transactionId"`
	Commission    float64 `json:"commission"`
}

// Content wraps the transaction detail in the biller's envelope.
type Content struct {
	Transactions TransactionDetail `json:"transactions"`
}

// Response is the biller's envelope, shared by pay, requery and webhook
// payloads. Raw holds the undecoded body for the ledger's audit metadata.
type Response struct {
	Code                string          `json:"code"`
	ResponseDescription string          `json:"response_description"`
	Content             Content         `json:"content"`
	Raw                 json.RawMessage `json:"-"`
}

// Biller is the capability contract for the external utility provider.
// The concrete variant (live or sandbox endpoint) is fixed at startup.
type Biller interface {
	// Pay submits a purchase. The request id is forwarded so the biller can
	// de-duplicate on its side too.
	Pay(ctx context.Context, req PayRequest) (*Response, error)

	// Requery fetches the current state of a previously submitted purchase.
	Requery(ctx context.Context, requestID string) (*Response, error)
}
