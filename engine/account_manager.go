package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/reform.v1"
)

// NewAccountManager builds the provisioning-side account CRUD. The transfer
// engine itself never creates accounts; this manager is how the external
// provisioning collaborator seeds them.
func NewAccountManager(db *reform.DB) *AccountManager {
	return &AccountManager{
		db:     db,
		logger: zap.L().Named("account_manager"),
	}
}

type AccountManager struct {
	db     *reform.DB
	logger *zap.Logger
}

// CreateAccount creates a new account for a holder with an initial balance.
//
// Common errors:
// - ErrAccountExists - the holder already has an account
// - other errors
func (m *AccountManager) CreateAccount(holderID string, initialBalance int64) (*Account, error) {
	if initialBalance < 0 {
		return nil, errors.New("initial balance must not be negative")
	}

	existing := &Account{}
	err := m.db.SelectOneTo(existing, "WHERE holder_id = $1", holderID)
	if err == nil {
		return nil, ErrAccountExists
	}
	if err != reform.ErrNoRows {
		m.logger.Error("Failed to find account by holder.",
			zap.Error(err),
			zap.String("holder_id", holderID),
		)
		return nil, errors.Wrap(err, "failed to find account")
	}

	now := time.Now()
	newAccount := &Account{
		AccountID: uuid.NewString(),
		HolderID:  holderID,
		Balance:   initialBalance,
		UpdatedAt: now,
		CreatedAt: now,
	}
	if err := m.db.Insert(newAccount); err != nil {
		return nil, errors.Wrap(err, "failed to create account")
	}
	return newAccount, nil
}

// FindAccount returns an account by id.
//
// Common errors:
// - ErrNotFound - unknown account
// - other errors
func (m *AccountManager) FindAccount(accountID string) (*Account, error) {
	found := &Account{}
	if err := m.db.FindByPrimaryKeyTo(found, accountID); err != nil {
		if err == reform.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to find account")
	}
	return found, nil
}

// FindAccountByHolder returns the account owned by a holder.
//
// Common errors:
// - ErrNotFound - the holder has no account
// - other errors
func (m *AccountManager) FindAccountByHolder(holderID string) (*Account, error) {
	found := &Account{}
	if err := m.db.SelectOneTo(found, "WHERE holder_id = $1", holderID); err != nil {
		if err == reform.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to find account by holder")
	}
	return found, nil
}
