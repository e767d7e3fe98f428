// Package outcome classifies biller responses into the engine's five
// canonical outcomes. The synchronous pay path, the reconciliation sweep,
// and the webhook receiver all share this single classifier; the terminal
// transition each of them applies is only as safe as the three of them
// agreeing on what a response means.
package outcome

import "strings"

// Outcome is the canonical interpretation of a biller response.
type Outcome string

const (
	Delivered  Outcome = "delivered"
	Reversed   Outcome = "reversed"
	Failed     Outcome = "failed"
	Processing Outcome = "processing"
	Unknown    Outcome = "unknown"
)

// Biller response codes observed across pay, requery and webhook payloads.
const (
	CodeOK         = "000"
	CodeFailure    = "016"
	CodeReversal   = "040"
	CodeProcessing = "099"
)

// Terminal reports whether the outcome ends the transaction's lifecycle.
// Processing and Unknown both leave the row pending and eligible for a
// later requery; Unknown additionally warrants a warning log at the caller.
func (o Outcome) Terminal() bool {
	return o == Delivered || o == Reversed || o == Failed
}

// Classify maps a biller response (code, transaction status string, free-text
// description) to an Outcome. Rules apply in priority order and match
// case-insensitively on whichever fields the biller populated.
func Classify(code, status, description string) Outcome {
	c := strings.TrimSpace(code)
	s := strings.ToLower(strings.TrimSpace(status))
	d := strings.ToUpper(description)

	switch {
	case c == CodeOK && s == "delivered":
		return Delivered
	case c == CodeReversal || s == "reversed":
		return Reversed
	case c == CodeFailure || (c == CodeOK && s == "failed"):
		return Failed
	case c == CodeOK && (s == "pending" || s == "initiated"),
		c == CodeProcessing,
		strings.Contains(d, "PROCESSING"),
		strings.Contains(d, "PENDING"):
		return Processing
	default:
		return Unknown
	}
}
