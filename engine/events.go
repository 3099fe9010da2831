package engine

import "time"

// BalanceChange describes one side of a committed transfer.
type BalanceChange struct {
	AccountID      string    `json:"account_id"`
	CounterpartyID string    `json:"counterparty_id"`
	Delta          int64     `json:"delta"`
	Balance        int64     `json:"balance"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Publisher receives both sides of every committed transfer. Publishing is
// best-effort and happens after commit; it must not block the money path for
// long.
type Publisher interface {
	PublishBalanceChange(change BalanceChange)
}
