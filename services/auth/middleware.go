package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const holderIDKey = "holder_id"

// Middleware verifies "Authorization: Bearer <token>" and stores the trusted
// holder id on the request. Handlers behind it never authenticate again.
func Middleware(tokens *TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(header, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "missing bearer token",
			})
		}
		holderID, err := tokens.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "invalid token",
			})
		}
		c.Locals(holderIDKey, holderID)
		return c.Next()
	}
}

// HolderID returns the authenticated holder id set by Middleware.
func HolderID(c *fiber.Ctx) string {
	id, _ := c.Locals(holderIDKey).(string)
	return id
}
