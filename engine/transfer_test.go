package engine

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCoordinator(t *testing.T, balances map[string]int64) (*Coordinator, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	for id, balance := range balances {
		require.NoError(t, store.Provision(id, balance))
	}
	return NewCoordinator(store, NewOrderedGuard(), nil), store
}

func balanceOf(t *testing.T, store *MemoryStore, id string) int64 {
	t.Helper()
	balance, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	return balance
}

func TestTransfer_Committed(t *testing.T) {
	c, store := newTestCoordinator(t, map[string]int64{"a": 100, "b": 50})

	out, err := c.Transfer(context.Background(), "a", "b", 30)
	require.NoError(t, err)
	assert.Equal(t, StatusCommitted, out.Status)

	assert.EqualValues(t, 70, balanceOf(t, store, "a"))
	assert.EqualValues(t, 80, balanceOf(t, store, "b"))
}

func TestTransfer_InsufficientFunds(t *testing.T) {
	c, store := newTestCoordinator(t, map[string]int64{"a": 10, "b": 0})

	out, err := c.Transfer(context.Background(), "a", "b", 50)
	require.NoError(t, err)
	assert.Equal(t, StatusInsufficientFunds, out.Status)

	assert.EqualValues(t, 10, balanceOf(t, store, "a"))
	assert.EqualValues(t, 0, balanceOf(t, store, "b"))
}

func TestTransfer_AccountNotFound(t *testing.T) {
	c, store := newTestCoordinator(t, map[string]int64{"a": 100})

	out, err := c.Transfer(context.Background(), "a", "ghost", 5)
	require.NoError(t, err)
	assert.Equal(t, StatusAccountNotFound, out.Status)
	assert.EqualValues(t, 100, balanceOf(t, store, "a"))

	out, err = c.Transfer(context.Background(), "ghost", "a", 5)
	require.NoError(t, err)
	assert.Equal(t, StatusAccountNotFound, out.Status)
	assert.EqualValues(t, 100, balanceOf(t, store, "a"))
}

func TestTransfer_InvalidRequest(t *testing.T) {
	c, store := newTestCoordinator(t, map[string]int64{"a": 100, "b": 50})

	tests := []struct {
		name     string
		sourceID string
		destID   string
		amount   int64
	}{
		{"same account", "a", "a", 10},
		{"zero amount", "a", "b", 0},
		{"negative amount", "a", "b", -5},
		{"empty source", "", "b", 10},
		{"empty destination", "a", "", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := c.Transfer(context.Background(), tt.sourceID, tt.destID, tt.amount)
			require.NoError(t, err)
			assert.Equal(t, StatusInvalidRequest, out.Status)
		})
	}

	assert.EqualValues(t, 100, balanceOf(t, store, "a"))
	assert.EqualValues(t, 50, balanceOf(t, store, "b"))
}

func TestTransfer_OppositeDirectionsNoDeadlock(t *testing.T) {
	c, store := newTestCoordinator(t, map[string]int64{"a": 100, "b": 100})

	const rounds = 200
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			_, err := c.Transfer(context.Background(), "a", "b", 60)
			assert.NoError(t, err)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			_, err := c.Transfer(context.Background(), "b", "a", 60)
			assert.NoError(t, err)
		}
	}()

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("transfers deadlocked")
	}

	a := balanceOf(t, store, "a")
	b := balanceOf(t, store, "b")
	assert.EqualValues(t, 200, a+b, "total must be conserved")
	assert.GreaterOrEqual(t, a, int64(0))
	assert.GreaterOrEqual(t, b, int64(0))
}

func TestTransfer_ConservationUnderLoad(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	balances := make(map[string]int64, len(ids))
	var total int64
	for _, id := range ids {
		balances[id] = 1000
		total += 1000
	}
	c, store := newTestCoordinator(t, balances)

	const workers = 16
	const perWorker = 200
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rnd := rand.New(rand.NewSource(seed))
			for i := 0; i < perWorker; i++ {
				src := ids[rnd.Intn(len(ids))]
				dst := ids[rnd.Intn(len(ids))]
				amount := int64(1 + rnd.Intn(200))
				_, err := c.Transfer(context.Background(), src, dst, amount)
				assert.NoError(t, err)
			}
		}(int64(w))
	}
	wg.Wait()

	var sum int64
	for _, id := range ids {
		balance := balanceOf(t, store, id)
		assert.GreaterOrEqual(t, balance, int64(0), "account %s went negative", id)
		sum += balance
	}
	assert.EqualValues(t, total, sum, "total must be conserved")
}

func TestTransfer_OptimisticGuardConservation(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Provision("a", 1000))
	require.NoError(t, store.Provision("b", 1000))
	c := NewCoordinator(store, OptimisticGuard{}, nil)

	const workers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	var committed, aborted int
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				out, err := c.Transfer(context.Background(), "a", "b", 1)
				assert.NoError(t, err)
				mu.Lock()
				switch out.Status {
				case StatusCommitted:
					committed++
				case StatusAborted:
					aborted++
				default:
					t.Errorf("unexpected outcome %q", out.Status)
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	a := balanceOf(t, store, "a")
	b := balanceOf(t, store, "b")
	assert.EqualValues(t, 2000, a+b)
	assert.EqualValues(t, 1000-int64(committed), a, "every committed transfer moved exactly its amount")
	t.Logf("committed=%d aborted=%d", committed, aborted)
}

// conflictStore wraps a store and forces the first n commits to fail with a
// write-write conflict.
type conflictStore struct {
	*MemoryStore
	mu        sync.Mutex
	conflicts int
}

func (s *conflictStore) Begin(ctx context.Context) (StoreTx, error) {
	tx, err := s.MemoryStore.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &conflictTx{StoreTx: tx, store: s}, nil
}

type conflictTx struct {
	StoreTx
	store *conflictStore
}

func (t *conflictTx) Commit() error {
	t.store.mu.Lock()
	if t.store.conflicts != 0 {
		t.store.conflicts--
		t.store.mu.Unlock()
		t.StoreTx.Rollback()
		return ErrTxConflict
	}
	t.store.mu.Unlock()
	return t.StoreTx.Commit()
}

func TestTransfer_RetriesOnConflict(t *testing.T) {
	store := &conflictStore{MemoryStore: NewMemoryStore(), conflicts: 3}
	require.NoError(t, store.Provision("a", 100))
	require.NoError(t, store.Provision("b", 0))
	c := NewCoordinator(store, NewOrderedGuard(), nil)

	out, err := c.Transfer(context.Background(), "a", "b", 40)
	require.NoError(t, err)
	assert.Equal(t, StatusCommitted, out.Status)
	assert.EqualValues(t, 60, balanceOf(t, store.MemoryStore, "a"))
	assert.EqualValues(t, 40, balanceOf(t, store.MemoryStore, "b"))
}

func TestTransfer_AbortsAfterRetryBudget(t *testing.T) {
	store := &conflictStore{MemoryStore: NewMemoryStore(), conflicts: -1} // never stops conflicting
	require.NoError(t, store.Provision("a", 100))
	require.NoError(t, store.Provision("b", 0))
	c := NewCoordinator(store, NewOrderedGuard(), nil)

	out, err := c.Transfer(context.Background(), "a", "b", 40)
	require.NoError(t, err)
	assert.Equal(t, StatusAborted, out.Status)
	assert.Equal(t, "conflict", out.Reason)
	assert.EqualValues(t, 100, balanceOf(t, store.MemoryStore, "a"))
	assert.EqualValues(t, 0, balanceOf(t, store.MemoryStore, "b"))
}

func TestTransfer_AbortsOnLockTimeout(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Provision("a", 100))
	require.NoError(t, store.Provision("b", 0))
	guard := NewOrderedGuard()
	c := NewCoordinator(store, guard, nil)

	release, err := guard.Acquire(context.Background(), "a", "b")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	out, err := c.Transfer(ctx, "a", "b", 10)
	require.NoError(t, err)
	assert.Equal(t, StatusAborted, out.Status)
	assert.EqualValues(t, 100, balanceOf(t, store, "a"))
}

type capturePublisher struct {
	mu      sync.Mutex
	changes []BalanceChange
}

func (p *capturePublisher) PublishBalanceChange(change BalanceChange) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, change)
}

func TestTransfer_PublishesBothSides(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Provision("a", 100))
	require.NoError(t, store.Provision("b", 50))
	pub := &capturePublisher{}
	c := NewCoordinator(store, NewOrderedGuard(), pub)

	out, err := c.Transfer(context.Background(), "a", "b", 30)
	require.NoError(t, err)
	require.Equal(t, StatusCommitted, out.Status)

	require.Len(t, pub.changes, 2)
	debit, credit := pub.changes[0], pub.changes[1]
	assert.Equal(t, "a", debit.AccountID)
	assert.Equal(t, "b", debit.CounterpartyID)
	assert.EqualValues(t, -30, debit.Delta)
	assert.EqualValues(t, 70, debit.Balance)
	assert.Equal(t, "b", credit.AccountID)
	assert.EqualValues(t, 30, credit.Delta)
	assert.EqualValues(t, 80, credit.Balance)
}

func TestTransfer_RejectionsPublishNothing(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Provision("a", 10))
	require.NoError(t, store.Provision("b", 0))
	pub := &capturePublisher{}
	c := NewCoordinator(store, NewOrderedGuard(), pub)

	out, err := c.Transfer(context.Background(), "a", "b", 50)
	require.NoError(t, err)
	require.Equal(t, StatusInsufficientFunds, out.Status)
	assert.Empty(t, pub.changes)
}

func TestGetBalance(t *testing.T) {
	c, _ := newTestCoordinator(t, map[string]int64{"a": 100})

	balance, err := c.GetBalance(context.Background(), "a")
	require.NoError(t, err)
	assert.EqualValues(t, 100, balance)

	_, err = c.GetBalance(context.Background(), "ghost")
	assert.Equal(t, ErrNotFound, err)
}
