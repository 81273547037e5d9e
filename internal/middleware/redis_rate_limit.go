package middleware

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/unsaid-app/backend/internal/cache"
	"github.com/unsaid-app/backend/internal/logger"
	"go.uber.org/zap"
)

// RateLimiterConfig holds rate limiting configuration
type RateLimiterConfig struct {
	MaxRequests int
	Window      time.Duration
}

// RedisRateLimitMiddleware creates a distributed rate limiter using Redis
// This works across multiple instances and provides fair access control.
// Without a Redis client it degrades to a per-process token bucket.
func RedisRateLimitMiddleware(maxRequests int, window time.Duration) gin.HandlerFunc {
	fallback := newMemoryLimiter(maxRequests, window)

	return func(c *gin.Context) {
		clientIP := getClientIP(c.Request.RemoteAddr)

		redisClient := cache.GetRedisClient()
		if redisClient == nil {
			allowed, retryAfter := fallback.allow(clientIP)
			if !allowed {
				RecordRateLimitExceeded(c.FullPath(), c.Request.Method)
				c.Header("Retry-After", strconv.Itoa(retryAfter))
				c.JSON(429, gin.H{
					"error":       "rate limit exceeded",
					"retry_after": retryAfter,
				})
				c.Abort()
				return
			}
			c.Next()
			return
		}
		key := fmt.Sprintf("rate_limit:%s", clientIP)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		val, err := redisClient.GetInt(ctx, key)
		if err != nil && err.Error() != "redis: nil" {
			// On Redis error, reject request to maintain security
			logger.Log.Error("Rate limit check failed - rejecting request",
				zap.String("client_ip", clientIP),
				zap.Error(err),
			)
			c.JSON(503, gin.H{"error": "Service temporarily unavailable"})
			c.Abort()
			return
		}

		if val >= int64(maxRequests) {
			RecordRateLimitExceeded(c.FullPath(), c.Request.Method)
			logger.Log.Warn("Rate limit exceeded",
				logger.WithIP(clientIP),
				zap.Int("max_requests", maxRequests),
				zap.Int64("current_requests", val),
			)
			c.JSON(429, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": window.Seconds(),
			})
			c.Abort()
			return
		}

		newVal, err := redisClient.IncrBy(ctx, key, 1)
		if err != nil {
			logger.Log.Error("Rate limit increment failed - rejecting request",
				zap.String("client_ip", clientIP),
				zap.Error(err),
			)
			c.JSON(503, gin.H{"error": "Service temporarily unavailable"})
			c.Abort()
			return
		}

		// Set expiration on first request in this window
		if newVal == 1 {
			if err := redisClient.Expire(ctx, key, window); err != nil {
				logger.Log.Warn("Failed to set rate limit expiration",
					zap.String("client_ip", clientIP),
					zap.Error(err),
				)
			}
		}

		c.Next()
	}
}

// getClientIP extracts the client IP from RemoteAddr
func getClientIP(remoteAddr string) string {
	if ip, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return ip
	}
	return remoteAddr
}
