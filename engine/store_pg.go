package engine

import (
	"context"
	"database/sql"
	"sync/atomic"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var _ AccountStore = (*PostgresStore)(nil)

// NewPostgresStore wraps an open Postgres connection pool. The accounts table
// carries a CHECK (balance >= 0) constraint, so a negative balance can never
// become durable even if a caller bypasses the coordinator's validation.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: zap.L().Named("pg_store"),
	}
}

type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

func (s *PostgresStore) Get(ctx context.Context, accountID string) (int64, error) {
	var balance int64
	err := s.db.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE account_id = $1`, accountID).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		s.logger.Error("Failed to read balance.", zap.Error(err), zap.String("account_id", accountID))
		return 0, errors.Wrap(err, "failed to read balance")
	}
	return balance, nil
}

func (s *PostgresStore) Begin(ctx context.Context) (StoreTx, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	return &pgTx{ctx: ctx, tx: tx, logger: s.logger}, nil
}

type pgTx struct {
	ctx    context.Context
	tx     *sql.Tx
	logger *zap.Logger
	closed uint32
}

func (t *pgTx) Balance(accountID string) (int64, error) {
	if atomic.LoadUint32(&t.closed) > 0 {
		return 0, ErrTxClosed
	}
	var balance int64
	err := t.tx.QueryRowContext(t.ctx, `SELECT balance FROM accounts WHERE account_id = $1`, accountID).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, mapPgError(err, "failed to read balance in transaction")
	}
	return balance, nil
}

func (t *pgTx) ApplyDelta(accountID string, delta int64) error {
	if atomic.LoadUint32(&t.closed) > 0 {
		return ErrTxClosed
	}
	res, err := t.tx.ExecContext(t.ctx,
		`UPDATE accounts SET balance = balance + $1, updated_at = now() WHERE account_id = $2`,
		delta, accountID,
	)
	if err != nil {
		return mapPgError(err, "failed to apply balance delta")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to get affected rows")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *pgTx) Commit() error {
	if !atomic.CompareAndSwapUint32(&t.closed, 0, 1) {
		return ErrTxClosed
	}
	if err := t.tx.Commit(); err != nil {
		return mapPgError(err, "failed to commit transaction")
	}
	return nil
}

func (t *pgTx) Rollback() error {
	if !atomic.CompareAndSwapUint32(&t.closed, 0, 1) {
		return nil
	}
	if err := t.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return errors.Wrap(err, "failed to rollback transaction")
	}
	return nil
}

// Postgres error codes of interest under repeatable read.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgCheckViolation       = "23514"
)

func mapPgError(err error, msg string) error {
	if pqErr, ok := err.(*pq.Error); ok {
		switch string(pqErr.Code) {
		case pgSerializationFailure, pgDeadlockDetected:
			return ErrTxConflict
		case pgCheckViolation:
			return ErrInsufficientFunds
		}
	}
	return errors.Wrap(err, msg)
}
