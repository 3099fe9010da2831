package users

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/reform.v1"

	"github.com/corebank/transferd/engine"
)

var (
	ErrUserExists         = errors.New("user exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// NewService wires identity management with account provisioning: every
// signed-up user gets one account seeded with a starting balance.
func NewService(db *reform.DB, accounts *engine.AccountManager) *Service {
	return &Service{
		db:       db,
		accounts: accounts,
		logger:   zap.L().Named("users"),
	}
}

type Service struct {
	db       *reform.DB
	accounts *engine.AccountManager
	logger   *zap.Logger
}

// Signup registers a user and provisions their account. Returns the new
// user id.
//
// Common errors:
// - ErrUserExists - username already taken
// - other errors
func (s *Service) Signup(username, password, firstName, lastName string) (string, error) {
	existing := &User{}
	err := s.db.SelectOneTo(existing, "WHERE username = $1", username)
	if err == nil {
		return "", ErrUserExists
	}
	if err != reform.ErrNoRows {
		s.logger.Error("Failed to find user by username.",
			zap.Error(err),
			zap.String("username", username),
		)
		return "", errors.Wrap(err, "failed to find user")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "failed to hash password")
	}

	newUser := &User{
		UserID:       uuid.NewString(),
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := s.db.Insert(newUser); err != nil {
		return "", errors.Wrap(err, "failed to create user")
	}

	account, err := s.accounts.CreateAccount(newUser.UserID, initialBalance())
	if err != nil {
		return "", errors.Wrap(err, "failed to provision account")
	}
	s.logger.Info("User signed up.",
		zap.String("user_id", newUser.UserID),
		zap.String("account_id", account.AccountID),
	)
	return newUser.UserID, nil
}

// Signin checks credentials and returns the user id.
//
// Common errors:
// - ErrInvalidCredentials - unknown username or wrong password
// - other errors
func (s *Service) Signin(username, password string) (string, error) {
	user := &User{}
	if err := s.db.SelectOneTo(user, "WHERE username = $1", username); err != nil {
		if err == reform.ErrNoRows {
			return "", ErrInvalidCredentials
		}
		return "", errors.Wrap(err, "failed to find user")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}
	return user.UserID, nil
}

// Update re-hashes the password and replaces the user's names.
//
// Common errors:
// - ErrUserNotFound - unknown user
// - other errors
func (s *Service) Update(userID, password, firstName, lastName string) error {
	user := &User{}
	if err := s.db.FindByPrimaryKeyTo(user, userID); err != nil {
		if err == reform.ErrNoRows {
			return ErrUserNotFound
		}
		return errors.Wrap(err, "failed to find user")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "failed to hash password")
	}

	user.PasswordHash = string(hash)
	user.FirstName = firstName
	user.LastName = lastName
	if err := s.db.Save(user); err != nil {
		return errors.Wrap(err, "failed to update user")
	}
	return nil
}

// Search returns users whose first or last name contains filter, the
// recipient-discovery surface: callers look a counterparty up by name
// before transferring.
func (s *Service) Search(filter string) ([]*User, error) {
	pattern := "%" + filter + "%"
	structs, err := s.db.SelectAllFrom(UserTable,
		"WHERE first_name ILIKE $1 OR last_name ILIKE $1 ORDER BY username", pattern)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search users")
	}
	found := make([]*User, len(structs))
	for i, str := range structs {
		found[i] = str.(*User)
	}
	return found, nil
}

// initialBalance is provisioning policy, not part of the transfer engine:
// a random starting balance between 1 and 10000 whole units, in minor units.
func initialBalance() int64 {
	return (1 + rand.Int63n(10000)) * 100
}
