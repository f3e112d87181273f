package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/amirphl/planeit/app/services"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "middleware-test-secret-key-32-chars!"

func newTokens(t *testing.T, ttl time.Duration) services.TokenService {
	t.Helper()
	tokens, err := services.NewTokenService(ttl, "planeit", "planeit-api", false, "", "", testSecret)
	require.NoError(t, err)
	return tokens
}

func whoami(c fiber.Ctx) error {
	email, name, ok := GetTravellerFromContext(c)
	if !ok {
		return c.SendString("anonymous")
	}
	return c.SendString(email + "|" + name)
}

func call(t *testing.T, app *fiber.App, authHeader string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestAuthenticate(t *testing.T) {
	tokens := newTokens(t, time.Hour)
	app := fiber.New()
	app.Get("/me", NewAuthMiddleware(tokens).Authenticate(), whoami)

	token, err := tokens.GenerateToken("alice@example.com", "Alice")
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		status, body := call(t, app, "Bearer "+token)
		assert.Equal(t, fiber.StatusOK, status)
		assert.Equal(t, "alice@example.com|Alice", body)
	})

	t.Run("missing header", func(t *testing.T) {
		status, body := call(t, app, "")
		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Contains(t, body, "MISSING_AUTHORIZATION_HEADER")
	})

	t.Run("wrong scheme", func(t *testing.T) {
		status, _ := call(t, app, "Basic "+token)
		assert.Equal(t, fiber.StatusUnauthorized, status)
	})

	t.Run("tampered token", func(t *testing.T) {
		status, body := call(t, app, "Bearer "+token+"x")
		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.True(t, strings.Contains(body, "TOKEN_INVALID") || strings.Contains(body, "TOKEN_VALIDATION_FAILED"))
	})

	t.Run("expired token", func(t *testing.T) {
		expired := newTokens(t, -time.Minute)
		old, err := expired.GenerateToken("alice@example.com", "Alice")
		require.NoError(t, err)
		status, body := call(t, app, "Bearer "+old)
		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Contains(t, body, "TOKEN_EXPIRED")
	})
}

func TestOptionalAuth(t *testing.T) {
	tokens := newTokens(t, time.Hour)
	app := fiber.New()
	app.Get("/me", NewAuthMiddleware(tokens).OptionalAuth(), whoami)

	status, body := call(t, app, "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "anonymous", body)

	status, body = call(t, app, "Bearer garbage")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "anonymous", body)

	token, err := tokens.GenerateToken("bob@example.com", "Bob")
	require.NoError(t, err)
	_, body = call(t, app, "Bearer "+token)
	assert.Equal(t, "bob@example.com|Bob", body)
}

func TestMetricsMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(Metrics("/metrics"))
	app.Get("/metrics", MetricsHandler())
	app.Get("/plans/:code", func(c fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/plans/ABC123", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `http_requests_total{method="GET",route="/plans/:code",status="204"}`)
	assert.NotContains(t, string(body), `route="/metrics"`)
}
