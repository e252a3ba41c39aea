package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"murmur/internal/config"
	"murmur/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOrigin = "http://localhost:5173"

func (e *testEnv) fromOrigin(method, path, origin string) *http.Response {
	e.t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Origin", origin)
	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	return resp
}

func TestCORS_Origins(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		origin     string
		wantAllow  string
	}{
		{"configured origin", testOrigin, testOrigin, testOrigin},
		{"unknown origin", testOrigin, "https://evil.example", ""},
		{"defaults when unset", "", "http://localhost:3000", "http://localhost:3000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			e.srv.config.AllowedOrigins = tt.configured
			e.srv.app = nil
			e.app = e.srv.App()

			resp := e.fromOrigin(http.MethodGet, "/api/posts", tt.origin)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.wantAllow, resp.Header.Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestLimiter_RateLimitedResponseKeepsCORSHeaders(t *testing.T) {
	e := newTestEnv(t)

	for i := 0; i < 100; i++ {
		resp := e.fromOrigin(http.MethodGet, "/api/posts", testOrigin)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, "request %d", i)
		_ = resp.Body.Close()
	}

	resp := e.fromOrigin(http.MethodGet, "/api/posts", testOrigin)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, testOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
	var body models.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "RATE_LIMITED", body.Code)
}

func TestLimiter_PreflightIsNeverLimited(t *testing.T) {
	e := newTestEnv(t)

	for i := 0; i < 101; i++ {
		resp := e.fromOrigin(http.MethodGet, "/api/posts", testOrigin)
		_ = resp.Body.Close()
	}

	req := httptest.NewRequest(http.MethodOptions, "/api/posts/1/like", nil)
	req.Header.Set("Origin", testOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "authorization,content-type")
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, testOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestSetupMiddleware_BareServer(t *testing.T) {
	srv := &Server{config: &config.Config{AllowedOrigins: testOrigin}}
	app := fiber.New()
	srv.SetupMiddleware(app)
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ping", nil), -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
}
