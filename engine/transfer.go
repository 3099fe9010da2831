package engine

import (
	"context"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	// DefaultMaxAttempts bounds commit retries after write-write conflicts.
	DefaultMaxAttempts = 5

	// DefaultTimeout is applied per transfer when the caller's context
	// carries no deadline. A transfer that cannot acquire its locks or
	// commit within it aborts instead of hanging.
	DefaultTimeout = 5 * time.Second
)

// NewCoordinator builds the transfer engine over a store and a guard.
// events may be nil when nobody listens for balance changes.
func NewCoordinator(store AccountStore, guard ConsistencyGuard, events Publisher) *Coordinator {
	return &Coordinator{
		store:       store,
		guard:       guard,
		events:      events,
		maxAttempts: DefaultMaxAttempts,
		timeout:     DefaultTimeout,
		logger:      zap.L().Named("coordinator"),
	}
}

// Coordinator orchestrates a single transfer: validates inputs, acquires
// ordered access to both accounts, applies the debit/credit pair inside one
// store transaction and commits or aborts as a unit. All balance mutation
// passes through here; the conservation invariant cannot be bypassed.
type Coordinator struct {
	store       AccountStore
	guard       ConsistencyGuard
	events      Publisher
	maxAttempts int
	timeout     time.Duration
	logger      *zap.Logger
}

// Transfer moves amount (minor units) from sourceID to destID.
//
// Validation failures and business-rule rejections come back as typed
// outcomes with a nil error and no side effects. A non-nil error means the
// storage backend failed; no partial state is observable either way.
func (c *Coordinator) Transfer(ctx context.Context, sourceID, destID string, amount int64) (Outcome, error) {
	start := time.Now()
	out, err := c.transfer(ctx, sourceID, destID, amount)
	transferDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		transfersTotal.WithLabelValues("storage_error").Inc()
		return out, err
	}
	transfersTotal.WithLabelValues(string(out.Status)).Inc()
	return out, nil
}

func (c *Coordinator) transfer(ctx context.Context, sourceID, destID string, amount int64) (Outcome, error) {
	if amount <= 0 {
		return InvalidRequest("amount must be positive"), nil
	}
	if sourceID == "" || destID == "" {
		return InvalidRequest("empty account id"), nil
	}
	if sourceID == destID {
		return InvalidRequest("source and destination are the same account"), nil
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	release, err := c.guard.Acquire(ctx, sourceID, destID)
	if err != nil {
		c.logger.Warn("Failed to acquire account locks.",
			zap.Error(err),
			zap.String("source_id", sourceID),
			zap.String("dest_id", destID),
		)
		return Aborted("lock acquisition timed out"), nil
	}
	defer release()

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		out, err := c.attempt(ctx, sourceID, destID, amount)
		if err == nil {
			return out, nil
		}
		if cause := errors.Cause(err); cause == context.DeadlineExceeded || cause == context.Canceled {
			return Aborted("timed out"), nil
		}
		if errors.Cause(err) != ErrTxConflict {
			c.logger.Error("Transfer failed.",
				zap.Error(err),
				zap.String("source_id", sourceID),
				zap.String("dest_id", destID),
				zap.Int64("amount", amount),
			)
			return Outcome{}, err
		}
		transferRetries.Inc()
		c.logger.Debug("Commit conflict, retrying.",
			zap.Int("attempt", attempt),
			zap.String("source_id", sourceID),
			zap.String("dest_id", destID),
		)
		if !sleepJitter(ctx, attempt) {
			return Aborted("conflict"), nil
		}
	}
	return Aborted("conflict"), nil
}

// attempt runs one full check-then-act cycle inside a single isolated store
// transaction. Returning ErrTxConflict asks the caller to retry.
func (c *Coordinator) attempt(ctx context.Context, sourceID, destID string, amount int64) (Outcome, error) {
	tx, err := c.store.Begin(ctx)
	if err != nil {
		return Outcome{}, errors.Wrap(err, "failed to begin transfer transaction")
	}
	defer tx.Rollback()

	sourceBalance, err := tx.Balance(sourceID)
	if err != nil {
		if err == ErrNotFound {
			return AccountNotFound("source account"), nil
		}
		return Outcome{}, err
	}
	destBalance, err := tx.Balance(destID)
	if err != nil {
		if err == ErrNotFound {
			return AccountNotFound("destination account"), nil
		}
		return Outcome{}, err
	}

	// funds are re-validated on every attempt: a concurrent drain may have
	// taken the amount since the previous try
	if sourceBalance < amount {
		return InsufficientFunds(), nil
	}

	if err := tx.ApplyDelta(sourceID, -amount); err != nil {
		return c.applyOutcome(err)
	}
	if err := tx.ApplyDelta(destID, amount); err != nil {
		return c.applyOutcome(err)
	}

	if err := tx.Commit(); err != nil {
		if err == ErrTxConflict || err == ErrInsufficientFunds {
			return c.applyOutcome(err)
		}
		return Outcome{}, errors.Wrap(err, "failed to commit transfer")
	}

	c.publish(sourceID, destID, amount, sourceBalance-amount, destBalance+amount)
	return Committed(), nil
}

// applyOutcome folds delta/commit errors into the retry loop: conflicts
// propagate for retry, a store-level negative-balance rejection becomes
// InsufficientFunds, anything else is an infrastructure failure.
func (c *Coordinator) applyOutcome(err error) (Outcome, error) {
	switch err {
	case ErrTxConflict:
		return Outcome{}, err
	case ErrInsufficientFunds:
		return InsufficientFunds(), nil
	case ErrNotFound:
		return AccountNotFound(""), nil
	default:
		return Outcome{}, errors.Wrap(err, "failed to apply balance delta")
	}
}

// GetBalance returns the committed balance of an account in minor units.
//
// Common errors:
// - ErrNotFound - unknown account
func (c *Coordinator) GetBalance(ctx context.Context, accountID string) (int64, error) {
	return c.store.Get(ctx, accountID)
}

func (c *Coordinator) publish(sourceID, destID string, amount, sourceBalance, destBalance int64) {
	if c.events == nil {
		return
	}
	now := time.Now()
	c.events.PublishBalanceChange(BalanceChange{
		AccountID:      sourceID,
		CounterpartyID: destID,
		Delta:          -amount,
		Balance:        sourceBalance,
		OccurredAt:     now,
	})
	c.events.PublishBalanceChange(BalanceChange{
		AccountID:      destID,
		CounterpartyID: sourceID,
		Delta:          amount,
		Balance:        destBalance,
		OccurredAt:     now,
	})
}

// sleepJitter waits a small randomized backoff between attempts. Returns
// false when ctx expired first.
func sleepJitter(ctx context.Context, attempt int) bool {
	d := time.Duration(attempt)*time.Millisecond + time.Duration(rand.Intn(3))*time.Millisecond
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
