package service

import "fmt"

// ServiceError represents a business logic error with a code
type ServiceError struct {
	Err     error
	Message string
	Code    string
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeInvalidCategory     = "invalid_category"
	ErrCodeInvalidAmount       = "invalid_amount"
	ErrCodeInvalidTarget       = "invalid_target"
	ErrCodeInsufficientFunds   = "insufficient_funds"
	ErrCodeWalletNotFound      = "wallet_not_found"
	ErrCodeProviderUnavailable = "provider_unavailable"
	ErrCodeProviderRejected    = "provider_rejected"
	ErrCodeInternalError       = "internal_error"
)
