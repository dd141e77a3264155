// ratelimit.go implements a per-IP rate limiter using a fixed window
// counter stored in Redis, so the limit holds across replicas. Designed
// for the credential-guessing surface: login, registration and
// password-recovery endpoints.
package middleware

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/magictales/backend/internal/apperror"
)

// RateLimit returns middleware that limits requests per IP and route to
// maxRequests within the given window. Returns 429 when exceeded. Redis
// outages fail open and the request is allowed through.
func RateLimit(rdb *redis.Client, maxRequests int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			key := fmt.Sprintf("ratelimit:%s:%s", c.Path(), c.RealIP())

			count, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				slog.Warn("rate limiter unavailable, allowing request",
					slog.String("key", key),
					slog.Any("error", err),
				)
				return next(c)
			}

			// First hit in this window owns the expiry.
			if count == 1 {
				if err := rdb.Expire(ctx, key, window).Err(); err != nil {
					slog.Warn("setting rate limit window failed",
						slog.String("key", key),
						slog.Any("error", err),
					)
				}
			}

			if count > int64(maxRequests) {
				retryAfter := window
				if ttl, err := rdb.TTL(ctx, key).Result(); err == nil && ttl > 0 {
					retryAfter = ttl
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
				return apperror.NewTooManyRequests("Rate limit exceeded. Please try again later.")
			}

			return next(c)
		}
	}
}
