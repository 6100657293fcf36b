// Package middleware provides request logging, metrics, tracing and rate limiting for the API.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"blog/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

var errNoLimiterStore = errors.New("rate limit store not configured")

// rateLimitEnabled reports whether counters are kept. Limits are off in
// development and test.
func rateLimitEnabled() bool {
	switch os.Getenv("APP_ENV") {
	case "", "development", "test":
		return false
	}
	return true
}

func rateLimitKey(resource, id string) string {
	return fmt.Sprintf("rl:%s:%s", resource, id)
}

// CheckRateLimit counts one call for id against resource and reports whether
// it fits within limit for the current window.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	if !rateLimitEnabled() {
		return true, nil
	}
	if rdb == nil {
		return false, errNoLimiterStore
	}

	key := rateLimitKey(resource, id)
	cnt, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		rdb.Expire(ctx, key, window)
	}
	return cnt <= int64(limit), nil
}

// ReleaseRateLimit returns a slot taken by CheckRateLimit, for calls that
// failed and should not count against the caller.
func ReleaseRateLimit(ctx context.Context, rdb *redis.Client, resource, id string) error {
	if !rateLimitEnabled() {
		return nil
	}
	if rdb == nil {
		return errNoLimiterStore
	}

	key := rateLimitKey(resource, id)
	cnt, err := rdb.Decr(ctx, key).Result()
	if err != nil {
		return err
	}
	// the window expired in between; don't leave a counter without a TTL
	if cnt <= 0 {
		return rdb.Del(ctx, key).Err()
	}
	return nil
}

// RateLimit allows limit requests per window for each caller, keyed by
// c.Locals("userID") when signed in and by remote IP otherwise. Requests pass
// through when Redis is unavailable.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, resource string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := "ip:" + c.IP()
		if uid := c.Locals("userID"); uid != nil {
			id = fmt.Sprintf("user:%v", uid)
		}

		allowed, err := CheckRateLimit(c.UserContext(), rdb, resource, id, limit, window)
		if err != nil {
			Logger.WarnContext(c.UserContext(), "rate limit store unavailable, allowing request",
				slog.String("resource", resource),
				slog.String("error", err.Error()))
			return c.Next()
		}
		if !allowed {
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				models.NewRateLimitedError("Too many requests, please try again later."))
		}
		return c.Next()
	}
}
