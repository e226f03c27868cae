package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"cost-sage/internal/models"
	"cost-sage/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubAuthenticator struct {
	identity *models.Identity
	err      error
	gotToken string
}

func (s *stubAuthenticator) Authenticate(_ context.Context, token string) (*models.Identity, error) {
	s.gotToken = token
	if s.err != nil {
		return nil, s.err
	}
	return s.identity, nil
}

func newAuthApp(authn Authenticator) *fiber.App {
	app := fiber.New()
	app.Get("/me", AuthMiddleware(authn, zap.NewNop()), func(c *fiber.Ctx) error {
		return c.SendString(IdentityFrom(c).Email)
	})
	return app
}

func decodeBody(t *testing.T, body interface{ Read([]byte) (int, error) }) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&m))
	return m
}

func TestAuthMiddleware_Success(t *testing.T) {
	authn := &stubAuthenticator{identity: &models.Identity{UserID: uuid.New(), Email: "a@example.com"}}
	app := newAuthApp(authn)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer tok-123")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "tok-123", authn.gotToken)
}

func TestAuthMiddleware_Failures(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"missing", service.ErrMissingToken, fiber.StatusUnauthorized, "No token provided"},
		{"user gone", service.ErrSessionUserNotFound, fiber.StatusUnauthorized, "User not found"},
		{"stale", service.ErrStaleToken, fiber.StatusUnauthorized, "Token has been invalidated. Please login again."},
		{"invalid", service.ErrInvalidToken, fiber.StatusForbidden, "Invalid token"},
		{"store down", errors.New("db down"), fiber.StatusInternalServerError, "Server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newAuthApp(&stubAuthenticator{err: tt.err})

			resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			body := decodeBody(t, resp.Body)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.wantMsg, body["message"])
		})
	}
}

func TestRateLimiter_PerClient(t *testing.T) {
	limiter := NewRateLimiter(1, 2, zap.NewNop())
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	ids := map[string]*models.Identity{
		"alice": {UserID: uuid.New()},
		"bob":   {UserID: uuid.New()},
	}

	app := fiber.New()
	app.Post("/llm", func(c *fiber.Ctx) error {
		c.Locals(identityKey, ids[c.Get("X-User")])
		return c.Next()
	}, limiter.Handler(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	call := func(user string) int {
		req := httptest.NewRequest("POST", "/llm", nil)
		req.Header.Set("X-User", user)
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusOK, call("alice"))
	assert.Equal(t, fiber.StatusOK, call("alice"))
	assert.Equal(t, fiber.StatusTooManyRequests, call("alice"))
	assert.Equal(t, fiber.StatusOK, call("bob"))

	now = now.Add(time.Second)
	assert.Equal(t, fiber.StatusOK, call("alice"))
}

func TestRateLimiter_EvictsIdleClients(t *testing.T) {
	limiter := NewRateLimiter(1, 1, zap.NewNop())
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.allow("a"))
	now = now.Add(2 * limiterIdleTTL)
	assert.True(t, limiter.allow("b"))

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.NotContains(t, limiter.clients, "a")
	assert.Contains(t, limiter.clients, "b")
}

func TestRequestLogger_KeepsHandlerStatus(t *testing.T) {
	app := fiber.New()
	app.Use(requestid.New())
	app.Use(RequestLogger(zap.NewNop()))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusAccepted) })
	app.Get("/boom", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "short and stout") })

	resp, err := app.Test(httptest.NewRequest("GET", "/ok", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))

	resp, err = app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)
}
