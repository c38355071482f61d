package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"mix/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func signToken(t *testing.T, userID uint, role string, exp time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"exp": time.Now().Add(exp).Unix(),
	}
	if role != "" {
		claims["role"] = role
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func TestAuthRequired(t *testing.T) {
	app := fiber.New()
	InitMiddleware(&config.Config{JWTSecret: testSecret})

	app.Get("/test", AuthRequired, func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"userID": c.Locals("userID")})
	})

	tests := []struct {
		name           string
		authHeader     func(t *testing.T) string
		expectedStatus int
		expectedUserID uint
	}{
		{
			name:           "valid token",
			authHeader:     func(t *testing.T) string { return "Bearer " + signToken(t, 123, "member", time.Hour) },
			expectedStatus: http.StatusOK,
			expectedUserID: 123,
		},
		{
			name:           "missing header",
			authHeader:     func(t *testing.T) string { return "" },
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "wrong scheme",
			authHeader:     func(t *testing.T) string { return "Basic dXNlcjpwYXNz" },
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "malformed token",
			authHeader:     func(t *testing.T) string { return "Bearer malformed.token.here" },
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "expired token",
			authHeader:     func(t *testing.T) string { return "Bearer " + signToken(t, 123, "member", -time.Hour) },
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if h := tt.authHeader(t); h != "" {
				req.Header.Set("Authorization", h)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var body map[string]interface{}
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, float64(tt.expectedUserID), body["userID"])
			}
		})
	}
}

func TestWebSocketAuthRequired(t *testing.T) {
	app := fiber.New()
	InitMiddleware(&config.Config{JWTSecret: testSecret})

	app.Get("/ws-test", WebSocketAuthRequired, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	tests := []struct {
		name           string
		tokenParam     func(t *testing.T) string
		authHeader     func(t *testing.T) string
		expectedStatus int
	}{
		{
			name:           "token via query param",
			tokenParam:     func(t *testing.T) string { return signToken(t, 1, "member", time.Hour) },
			expectedStatus: http.StatusOK,
		},
		{
			name:           "token via header",
			authHeader:     func(t *testing.T) string { return "Bearer " + signToken(t, 1, "member", time.Hour) },
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing token",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "invalid token",
			tokenParam:     func(t *testing.T) string { return "invalid-token" },
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			path := "/ws-test"
			if tt.tokenParam != nil {
				path += "?token=" + tt.tokenParam(t)
			}
			req := httptest.NewRequest(http.MethodGet, path, nil)
			if tt.authHeader != nil {
				req.Header.Set("Authorization", tt.authHeader(t))
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestAdminRequired(t *testing.T) {
	app := fiber.New()
	InitMiddleware(&config.Config{JWTSecret: testSecret})

	app.Get("/admin", AuthRequired, AdminRequired, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	t.Run("admin role passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, 1, "admin", time.Hour))
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("member role is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, 2, "member", time.Hour))
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}
