package engine

import (
	"context"
	"sync"
)

var _ AccountStore = (*MemoryStore)(nil)

// NewMemoryStore returns an in-memory AccountStore with optimistic
// concurrency control: every account carries a version counter, a
// transaction records the versions it observed, and Commit fails with
// ErrTxConflict when any observed account was committed to in the meantime.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[string]*memAccount)}
}

type MemoryStore struct {
	mu       sync.Mutex
	accounts map[string]*memAccount
}

type memAccount struct {
	balance int64
	version uint64
}

// Provision creates an account with an initial balance. Provisioning is an
// external concern for the transfer core, kept here so local and test setups
// can seed state.
func (s *MemoryStore) Provision(accountID string, balance int64) error {
	if balance < 0 {
		return ErrInsufficientFunds
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[accountID]; ok {
		return ErrAccountExists
	}
	s.accounts[accountID] = &memAccount{balance: balance}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, accountID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[accountID]
	if !ok {
		return 0, ErrNotFound
	}
	return acc.balance, nil
}

func (s *MemoryStore) Begin(ctx context.Context) (StoreTx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &memTx{
		ctx:    ctx,
		store:  s,
		reads:  make(map[string]uint64),
		deltas: make(map[string]int64),
	}, nil
}

type memTx struct {
	ctx    context.Context
	store  *MemoryStore
	reads  map[string]uint64
	deltas map[string]int64
	closed bool
}

// observe records the version of an account the first time the transaction
// touches it. Later commits of other transactions bump the version and
// invalidate this one.
func (t *memTx) observe(accountID string) (*memAccount, error) {
	acc, ok := t.store.accounts[accountID]
	if !ok {
		return nil, ErrNotFound
	}
	if _, seen := t.reads[accountID]; !seen {
		t.reads[accountID] = acc.version
	}
	return acc, nil
}

func (t *memTx) Balance(accountID string) (int64, error) {
	if err := t.ctx.Err(); err != nil {
		return 0, err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if t.closed {
		return 0, ErrTxClosed
	}
	acc, err := t.observe(accountID)
	if err != nil {
		return 0, err
	}
	// reads see this transaction's own uncommitted deltas
	return acc.balance + t.deltas[accountID], nil
}

func (t *memTx) ApplyDelta(accountID string, delta int64) error {
	if err := t.ctx.Err(); err != nil {
		return err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if t.closed {
		return ErrTxClosed
	}
	if _, err := t.observe(accountID); err != nil {
		return err
	}
	t.deltas[accountID] += delta
	return nil
}

func (t *memTx) Commit() error {
	if err := t.ctx.Err(); err != nil {
		return err
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if t.closed {
		return ErrTxClosed
	}
	t.closed = true

	for accountID, version := range t.reads {
		acc, ok := t.store.accounts[accountID]
		if !ok || acc.version != version {
			return ErrTxConflict
		}
	}
	for accountID, delta := range t.deltas {
		if t.store.accounts[accountID].balance+delta < 0 {
			return ErrInsufficientFunds
		}
	}
	for accountID, delta := range t.deltas {
		acc := t.store.accounts[accountID]
		acc.balance += delta
		acc.version++
	}
	return nil
}

func (t *memTx) Rollback() error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.closed = true
	return nil
}
