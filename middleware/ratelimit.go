package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/ariebrainware/measurement-gateway/config"
	"github.com/ariebrainware/measurement-gateway/util"
	"github.com/gin-gonic/gin"
)

const (
	// Rate limiting defaults
	defaultRateLimit  = 5                // 5 attempts
	defaultRateWindow = 15 * time.Minute // per 15 minutes
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
}

// RateLimiter counts requests per client IP and endpoint in Redis. Without a
// Redis client every request is allowed.
func RateLimiter(config RateLimitConfig) gin.HandlerFunc {
	if config.Limit == 0 {
		config.Limit = defaultRateLimit
	}
	if config.Window == 0 {
		config.Window = defaultRateWindow
	}

	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		endpoint := c.Request.URL.Path
		key := rateLimitKey(endpoint, clientIP)

		allowed, err := checkRateLimit(c.Request.Context(), key, config.Limit, config.Window)
		if err != nil {
			// Redis trouble must not lock callers out.
			util.LogSecurityEvent(util.SecurityEvent{
				EventType: util.EventSuspiciousActivity,
				IP:        clientIP,
				Message:   fmt.Sprintf("Rate limit check failed: %v", err),
			})
			c.Next()
			return
		}

		if !allowed {
			email, _ := GetPrincipal(c)
			util.LogRateLimitExceeded(email, clientIP, endpoint)
			util.CallAppError(c, "Too many requests. Please try again later.", util.ErrRateLimited)
			c.Abort()
			return
		}

		c.Next()
	}
}

func rateLimitKey(endpoint, clientIP string) string {
	return fmt.Sprintf("ratelimit:%s:%s", endpoint, clientIP)
}

// checkRateLimit returns true while the counter for key is within limit.
// The window starts with the first request and is not extended by later ones.
func checkRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	rdb := config.GetRedisClient()
	if rdb == nil {
		return true, nil
	}

	count, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}
	if count == 1 {
		if err := rdb.Expire(ctx, key, window).Err(); err != nil {
			// a counter without TTL would never reset
			_ = rdb.Del(ctx, key).Err()
			return false, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	return count <= int64(limit), nil
}

// ResetRateLimit clears the counter of a client on an endpoint. It is a no-op
// without Redis.
func ResetRateLimit(ctx context.Context, clientIP, endpoint string) error {
	rdb := config.GetRedisClient()
	if rdb == nil {
		return nil
	}
	return rdb.Del(ctx, rateLimitKey(endpoint, clientIP)).Err()
}
