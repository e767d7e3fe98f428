package models

import "errors"

// Domain errors that can be returned by repositories
var (
	// ErrDuplicateRequest indicates a transaction with the same request_id already exists
	ErrDuplicateRequest = errors.New("duplicate request")

	// ErrNotFound indicates the requested entity was not found
	ErrNotFound = errors.New("not found")

	// ErrInsufficientFunds indicates the wallet balance cannot cover a debit
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidCategory indicates an unrecognized purchase category
	ErrInvalidCategory = errors.New("invalid category")
)
