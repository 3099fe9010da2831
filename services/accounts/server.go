package accounts

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/corebank/transferd/engine"
	"github.com/corebank/transferd/services/auth"
)

// Directory resolves the authenticated holder to their account. Implemented
// by engine.AccountManager.
type Directory interface {
	FindAccountByHolder(holderID string) (*engine.Account, error)
}

// Transferer is the one mutation surface of the core. Implemented by
// engine.Coordinator.
type Transferer interface {
	Transfer(ctx context.Context, sourceID, destID string, amount int64) (engine.Outcome, error)
	GetBalance(ctx context.Context, accountID string) (int64, error)
}

func NewServer(transferer Transferer, directory Directory) *Server {
	return &Server{
		transferer: transferer,
		directory:  directory,
		l:          zap.L().Named("accounts_server"),
	}
}

type Server struct {
	transferer Transferer
	directory  Directory
	l          *zap.Logger
}

// Register mounts the handlers behind the auth middleware; every request
// carries a verified holder id.
func (s *Server) Register(r fiber.Router) {
	r.Get("/balance", s.Balance)
	r.Post("/transfer", s.Transfer)
}

func (s *Server) Balance(c *fiber.Ctx) error {
	account, err := s.directory.FindAccountByHolder(auth.HolderID(c))
	if err != nil {
		if err == engine.ErrNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "account not found"})
		}
		s.l.Error("Failed to resolve account.", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"message": "storage unavailable"})
	}

	balance, err := s.transferer.GetBalance(c.Context(), account.AccountID)
	if err != nil {
		if err == engine.ErrNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "account not found"})
		}
		s.l.Error("Failed to read balance.", zap.Error(err), zap.String("account_id", account.AccountID))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"message": "storage unavailable"})
	}

	return c.JSON(fiber.Map{
		"account_id": account.AccountID,
		"balance":    minorToDecimal(balance),
	})
}

type transferRequest struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

func (s *Server) Transfer(c *fiber.Ctx) error {
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid body"})
	}

	amount, ok := parseAmount(req.Amount)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid amount"})
	}

	source, err := s.directory.FindAccountByHolder(auth.HolderID(c))
	if err != nil {
		if err == engine.ErrNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "account not found"})
		}
		s.l.Error("Failed to resolve source account.", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"message": "storage unavailable"})
	}

	out, err := s.transferer.Transfer(c.Context(), source.AccountID, req.To, amount)
	if err != nil {
		s.l.Error("Transfer failed.",
			zap.Error(err),
			zap.String("source_id", source.AccountID),
			zap.String("dest_id", req.To),
		)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"message": "storage unavailable"})
	}

	switch out.Status {
	case engine.StatusCommitted:
		return c.JSON(fiber.Map{"message": "transfer successful"})
	case engine.StatusInvalidRequest:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": out.Reason})
	case engine.StatusAccountNotFound:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "account not found"})
	case engine.StatusInsufficientFunds:
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "insufficient balance"})
	case engine.StatusAborted:
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "transfer aborted, retry later"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "internal error"})
	}
}

// parseAmount converts a decimal major-unit string ("12.34") to int64 minor
// units. Anything finer than two fractional digits is rejected.
func parseAmount(raw string) (int64, bool) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, false
	}
	minor := d.Mul(decimal.NewFromInt(100))
	if !minor.IsInteger() {
		return 0, false
	}
	if !minor.BigInt().IsInt64() {
		return 0, false
	}
	return minor.IntPart(), true
}

func minorToDecimal(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}
