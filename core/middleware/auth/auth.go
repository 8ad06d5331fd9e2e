// Package auth provides API key authentication middleware.
package auth

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// Config holds the settings for the auth middleware.
type Config struct {
	// ApiKey is the expected key. When empty, authentication is disabled
	// (local development).
	ApiKey string
}

// New returns a middleware that validates the X-API-Key header (or the
// api_key query parameter, for dashboard polling via plain GET).
func New(cfg Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.ApiKey == "" {
			return c.Next()
		}

		key := c.Get("X-API-Key")
		if key == "" {
			key = c.Query("api_key")
		}

		if subtle.ConstantTimeCompare([]byte(key), []byte(cfg.ApiKey)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid or missing API key",
			})
		}

		return c.Next()
	}
}
