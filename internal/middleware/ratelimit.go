package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/travel-booking/internal/config"
)

// NewRateLimit returns a Redis fixed-window rate limiter.  Each
// (ip, user, route) key gets cfg.Limit requests per cfg.Window; the
// counter is INCRed atomically and expires with the window, so a burst
// of concurrent requests over the limit is rejected rather than
// queued.  When the limiter is disabled or Redis is unavailable the
// middleware is a pass-through.
func NewRateLimit(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(cfg.Prefix, c)
			ctx := c.Request().Context()

			n, err := rdb.Incr(ctx, key).Result()
			if err != nil {
				// Redis trouble must not take the API down; let the
				// request through and rely on the next window.
				return next(c)
			}
			if n == 1 {
				_ = rdb.Expire(ctx, key, cfg.Window).Err()
			}
			if n > int64(cfg.Limit) {
				ttl, _ := rdb.TTL(ctx, key).Result()
				if ttl < 0 {
					ttl = cfg.Window
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(ttl/time.Second)+1))
				return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "rate limit exceeded"})
			}
			return next(c)
		}
	}
}

// rateKey builds the limiter key from client IP, authenticated user
// and route.
func rateKey(prefix string, c echo.Context) string {
	user := "guest"
	if v := c.Get("user_id"); v != nil {
		user = fmt.Sprint(v)
	}
	return fmt.Sprintf("%s:%s:%s:%s", prefix, c.RealIP(), user, c.Path())
}
