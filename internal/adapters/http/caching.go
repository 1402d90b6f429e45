package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers on GET responses based on
// endpoint. Handlers that already set the header win.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != "GET" {
			return err
		}

		if existing := c.Get("Cache-Control"); existing != "" {
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/healthz" || path == "/readyz":
			ttl = "public, max-age=10" // Very short for system checks

		case strings.HasPrefix(path, "/v1/crops"):
			ttl = "public, max-age=3600" // Rotation rules change on reseed only

		case path == "/metrics":
			ttl = "no-cache" // Metrics are real-time

		case path == "/graphql":
			ttl = "private, max-age=0" // GraphQL varies wildly

		case strings.HasPrefix(path, "/v1/fields/nearby"):
			ttl = "public, max-age=300" // 5 min for location queries

		case strings.HasPrefix(path, "/v1/fields/search"):
			ttl = "public, max-age=300" // 5 min for search results

		case strings.HasPrefix(path, "/v1/market"):
			ttl = "public, max-age=60" // Prices move within the hour

		case strings.HasPrefix(path, "/v1/weather"):
			ttl = "public, max-age=600" // Matches the service-side weather TTL

		case strings.HasPrefix(path, "/v1/sketch"):
			ttl = "no-store" // Live drawing state, never cache

		case strings.HasPrefix(path, "/v1/overview"):
			ttl = "public, max-age=300" // 5 min for the map overview

		case strings.Contains(path, "/fields/") && strings.Contains(path, "/"):
			ttl = "public, max-age=600" // 10 min for single-field reads

		case strings.HasPrefix(path, "/v1/"):
			ttl = "public, max-age=300" // 5 min default for API endpoints
		}

		if ttl != "" {
			c.Set("Cache-Control", ttl)
		}

		return err
	}
}
