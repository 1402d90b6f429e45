package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// DeprecatedRoute marks an endpoint as deprecated with a sunset date.
type DeprecatedRoute struct {
	Path        string    // Registered route pattern, e.g. /v1/recommend/:id
	SunsetDate  time.Time // Date when the endpoint will be removed
	Alternative string    // Recommended replacement endpoint (optional)
}

// DeprecationMiddleware adds Deprecation, Sunset, and Link headers to
// deprecated endpoints so clients can migrate before removal.
func DeprecationMiddleware(deprecated []DeprecatedRoute) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		// Route().Path is the registered pattern, so param routes match too.
		pattern := c.Route().Path
		for _, d := range deprecated {
			if pattern != d.Path && c.Path() != d.Path {
				continue
			}

			// RFC 8594 Deprecation and Sunset headers
			c.Set("Deprecation", "true")
			c.Set("Sunset", d.SunsetDate.UTC().Format(time.RFC1123))

			if d.Alternative != "" {
				c.Set("Link", fmt.Sprintf(`<%s>; rel="successor-version"`, d.Alternative))
			}

			days := time.Until(d.SunsetDate).Hours() / 24
			c.Set("Warning", fmt.Sprintf(`299 - "Deprecated API, will sunset in %.0f days"`, days))
			break
		}

		return err
	}
}
