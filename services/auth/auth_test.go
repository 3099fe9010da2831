package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_Roundtrip(t *testing.T) {
	m := NewTokenManager("secret", time.Minute)

	token, err := m.Issue("holder-1")
	require.NoError(t, err)

	holderID, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "holder-1", holderID)
}

func TestTokenManager_Expired(t *testing.T) {
	m := &TokenManager{secret: []byte("secret"), ttl: -time.Minute}

	token, err := m.Issue("holder-1")
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.Equal(t, ErrInvalidToken, err)
}

func TestTokenManager_WrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret-a", time.Minute).Issue("holder-1")
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b", time.Minute).Verify(token)
	assert.Equal(t, ErrInvalidToken, err)
}

func TestTokenManager_Garbage(t *testing.T) {
	m := NewTokenManager("secret", time.Minute)
	_, err := m.Verify("not-a-token")
	assert.Equal(t, ErrInvalidToken, err)
}

func newAuthedApp(m *TokenManager) *fiber.App {
	app := fiber.New()
	app.Get("/whoami", Middleware(m), func(c *fiber.Ctx) error {
		return c.SendString(HolderID(c))
	})
	return app
}

func TestMiddleware_MissingToken(t *testing.T) {
	app := newAuthedApp(NewTokenManager("secret", time.Minute))

	resp, err := app.Test(httptest.NewRequest("GET", "/whoami", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestMiddleware_InvalidToken(t *testing.T) {
	app := newAuthedApp(NewTokenManager("secret", time.Minute))

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer bogus")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestMiddleware_ValidToken(t *testing.T) {
	m := NewTokenManager("secret", time.Minute)
	app := newAuthedApp(m)

	token, err := m.Issue("holder-42")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := make([]byte, 64)
	n, _ := resp.Body.Read(body)
	assert.Equal(t, "holder-42", string(body[:n]))
}
