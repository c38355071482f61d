// Package middleware provides authentication, logging, and rate limiting middleware.
package middleware

import (
	"strconv"
	"strings"

	"mix/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var cfg *config.Config

// InitMiddleware initializes authentication middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": msg,
	})
}

// parseUserToken validates the token string and returns the user ID and role claim.
func parseUserToken(tokenString string) (uint, string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, "", fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
	}

	// User ID travels in the "sub" claim (RFC 7519 subject).
	subClaim, ok := claims["sub"]
	if !ok {
		return 0, "", fiber.NewError(fiber.StatusUnauthorized, "Missing token subject")
	}
	subStr, ok := subClaim.(string)
	if !ok {
		return 0, "", fiber.NewError(fiber.StatusUnauthorized, "Invalid token subject type")
	}
	userID, err := strconv.ParseUint(subStr, 10, 32)
	if err != nil {
		return 0, "", fiber.NewError(fiber.StatusUnauthorized, "Invalid user ID in token")
	}

	role, _ := claims["role"].(string)
	return uint(userID), role, nil
}

func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Authorization header required")
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Invalid authorization header format")
	}
	return parts[1], nil
}

// AuthRequired enforces authentication for protected routes and stores the
// user ID and role in the request locals.
func AuthRequired(c *fiber.Ctx) error {
	tokenString, err := bearerToken(c)
	if err != nil {
		return unauthorized(c, err.Error())
	}

	userID, role, err := parseUserToken(tokenString)
	if err != nil {
		return unauthorized(c, err.Error())
	}

	c.Locals("userID", userID)
	c.Locals("userRole", role)
	return c.Next()
}

// WebSocketAuthRequired validates JWT tokens from the `token` query parameter,
// falling back to the Authorization header. Browser WebSocket clients cannot
// set custom headers during the HTTP upgrade.
func WebSocketAuthRequired(c *fiber.Ctx) error {
	tokenString := c.Query("token")
	if tokenString == "" {
		var err error
		tokenString, err = bearerToken(c)
		if err != nil {
			return unauthorized(c, "Token required")
		}
	}

	userID, role, err := parseUserToken(tokenString)
	if err != nil {
		return unauthorized(c, err.Error())
	}

	c.Locals("userID", userID)
	c.Locals("userRole", role)
	return c.Next()
}

// AdminRequired enforces that the authenticated user carries the admin role.
// It must run after AuthRequired.
func AdminRequired(c *fiber.Ctx) error {
	role, _ := c.Locals("userRole").(string)
	if role != "admin" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Admin access required",
		})
	}
	return c.Next()
}
