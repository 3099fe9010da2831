package engine

import "context"

// AccountStore is the persistence contract of the transfer core. Any backend
// with at least read-committed isolation and atomic multi-key commit can
// satisfy it.
type AccountStore interface {
	// Get returns the committed balance of an account.
	//
	// Common errors:
	// - ErrNotFound - unknown account
	// - other errors
	Get(ctx context.Context, accountID string) (int64, error)

	// Begin opens a transaction scope. Reads and writes made through the
	// returned StoreTx are isolated from other concurrent transactions and
	// take effect only on Commit.
	Begin(ctx context.Context) (StoreTx, error)
}

// StoreTx is one open transaction against an AccountStore.
type StoreTx interface {
	// Balance reads an account balance within the transaction scope,
	// observing deltas already applied under this transaction.
	//
	// Common errors:
	// - ErrNotFound - unknown account
	Balance(accountID string) (int64, error)

	// ApplyDelta adjusts an account balance by a signed amount within the
	// transaction scope.
	//
	// Common errors:
	// - ErrNotFound - unknown account
	// - ErrTxConflict - a concurrent committed transaction invalidated this one
	ApplyDelta(accountID string, delta int64) error

	// Commit finalizes all deltas as a single all-or-nothing unit.
	//
	// Common errors:
	// - ErrTxConflict - write-write conflict detected, safe to retry
	// - ErrInsufficientFunds - a resulting balance would be negative
	Commit() error

	// Rollback discards the transaction. Safe to call after Commit.
	Rollback() error
}
