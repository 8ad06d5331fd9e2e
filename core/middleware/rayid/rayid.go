// Package rayid provides request tracing middleware.
package rayid

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// HeaderName is the response header carrying the generated request id.
const HeaderName = "X-Ray-ID"

// New returns a middleware that assigns a unique RayID to every request.
// The id is stored in Locals under "ray_id" and echoed in the response header.
// An incoming X-Ray-ID header is honored so upstream proxies can correlate.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := c.Get(HeaderName)
		if rid == "" {
			rid = uuid.NewString()
		}

		c.Locals("ray_id", rid)
		c.Set(HeaderName, rid)

		return c.Next()
	}
}
