package domain

import (
	"context"
	"errors"
)

// Service keeps per-user balances consistent across concurrent
// reservation, deduction and refund requests.
type Service interface {
	// GetBalance returns the account row for a user.
	GetBalance(ctx context.Context, userID string) (*Account, error)

	// Grant creates the account if needed and adds spendable credits.
	Grant(ctx context.Context, userID string, amount int64, reason string) error

	// Reserve atomically checks and decrements the balance. It returns
	// false, without mutating anything, when the balance is insufficient.
	Reserve(ctx context.Context, userID string, amount int64, jobID string) (bool, error)

	// Deduct finalizes an already-reserved amount as spent. The balance
	// was already decremented at reservation time; this records the
	// settled usage in the transaction log.
	Deduct(ctx context.Context, userID string, amount int64, jobID string) error

	// Refund returns credits to the balance and lowers lifetime_used.
	Refund(ctx context.Context, userID string, amount int64, jobID string, reason string) error

	// ListTransactions returns the newest ledger entries for a user.
	ListTransactions(ctx context.Context, userID string, limit int) ([]Transaction, error)
}

var (
	ErrAccountNotFound  = errors.New("credit_account_not_found")
	ErrInvalidUser      = errors.New("invalid_user")
	ErrInvalidAmount    = errors.New("invalid_amount")
	ErrStoreUnavailable = errors.New("credit_store_unavailable")
	ErrRefundFailed     = errors.New("credit_refund_failed")
)
