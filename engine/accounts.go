package engine

import "time"

//go:generate reform

//reform:accounts
type Account struct {
	// AccountID opaque unique identifier, immutable for the account's lifetime.
	AccountID string `reform:"account_id,pk"`

	// HolderID identifier of the account holder this account belongs to.
	HolderID string `reform:"holder_id"`

	// Balance in minor units. Never negative in committed state.
	Balance int64 `reform:"balance"`

	UpdatedAt time.Time `reform:"updated_at"`
	CreatedAt time.Time `reform:"created_at"`
}
