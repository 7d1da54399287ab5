package httpapi

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"archon/internal/archonerr"
	"archon/internal/ratelimit"
)

// rateLimitMiddleware enforces the sliding-window limiter (C14) per client
// key, returning 429 with Retry-After on the client key's offending request
// (§7). A nil limiter (disabled in config) is a no-op.
func rateLimitMiddleware(limiter *ratelimit.Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if limiter == nil {
				return next(c)
			}
			req := c.Request()
			key := ratelimit.ClientKey(req.Header.Get("X-Forwarded-For"), req.RemoteAddr)
			result := limiter.Allow(req.Context(), key)
			if !result.Allowed {
				c.Response().Header().Set("Retry-After", fmt.Sprintf("%.0f", result.RetryAfter.Seconds()))
				return archonerr.RateLimited("rate limit exceeded, retry later")
			}
			return next(c)
		}
	}
}
