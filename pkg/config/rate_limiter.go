package config

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/lutheralien/to-do-api/internal/core/model/response"
	"github.com/lutheralien/to-do-api/internal/core/telemetry"
)

const (
	defaultRateLimitKey = "default"
	unmatchedPath       = "unmatched"
)

type RateLimiter struct {
	cache   *cache.Cache
	config  map[string]RateLimitConfig
	logger  *zap.Logger
	metrics *telemetry.AppMetrics
	mutex   sync.Mutex
}

type RateLimitEntry struct {
	Count     int
	ResetTime time.Time
}

// NewRateLimiter builds a per-client fixed window limiter. Limits are keyed by
// "METHOD /route" with a "default" fallback. Clients are told apart by
// gin's ClientIP, so forwarding headers only count from trusted proxies.
func NewRateLimiter(logger *zap.Logger, metrics *telemetry.AppMetrics, limits map[string]RateLimitConfig) *RateLimiter {
	configs := make(map[string]RateLimitConfig, len(limits)+1)

	for route, limit := range limits {
		configs[route] = limit
	}

	if _, ok := configs[defaultRateLimitKey]; !ok {
		configs[defaultRateLimitKey] = RateLimitConfig{
			Requests: 60,
			Window:   time.Minute,
		}
	}

	return &RateLimiter{
		cache:   cache.New(5*time.Minute, 10*time.Minute),
		config:  configs,
		logger:  logger,
		metrics: metrics,
	}
}

func (rl *RateLimiter) RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Unmatched URLs share one bucket so varying the path buys no quota.
		path := c.FullPath()
		if path == "" {
			path = unmatchedPath
		}

		methodPath := c.Request.Method + " " + path
		config := rl.lookup(methodPath)
		key := generateKey(methodPath, c.ClientIP())

		allowed, remaining, resetTime := rl.checkRateLimit(key, config)

		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Requests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if !allowed {
			if rl.metrics != nil {
				rl.metrics.RecordRateLimitHit(c.Request.Context(), path)
			}

			rl.logger.Warn("Rate limit exceeded",
				zap.String("key", key),
				zap.String("path", path),
				zap.Int("limit", config.Requests),
				zap.Duration("window", config.Window))

			c.Header("Retry-After", strconv.Itoa(int(time.Until(resetTime).Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, response.NewEnvelope(
				false,
				nil,
				http.StatusTooManyRequests,
				fmt.Sprintf("Too many requests. Limit: %d per %v", config.Requests, config.Window),
			))
			return
		}

		if rl.metrics != nil {
			rl.metrics.RecordRateLimitAllowed(c.Request.Context(), path)
		}

		c.Next()
	}
}

func (rl *RateLimiter) lookup(methodPath string) RateLimitConfig {
	if config, ok := rl.config[methodPath]; ok {
		return config
	}

	return rl.config[defaultRateLimitKey]
}

func (rl *RateLimiter) checkRateLimit(key string, config RateLimitConfig) (bool, int, time.Time) {
	now := time.Now()

	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	if entry, found := rl.cache.Get(key); found {
		rateLimitEntry := entry.(RateLimitEntry)

		if now.After(rateLimitEntry.ResetTime) {
			return rl.startWindow(key, config, now)
		}

		if rateLimitEntry.Count >= config.Requests {
			return false, 0, rateLimitEntry.ResetTime
		}

		rateLimitEntry.Count++
		rl.cache.Set(key, rateLimitEntry, time.Until(rateLimitEntry.ResetTime))

		return true, config.Requests - rateLimitEntry.Count, rateLimitEntry.ResetTime
	}

	return rl.startWindow(key, config, now)
}

func (rl *RateLimiter) startWindow(key string, config RateLimitConfig, now time.Time) (bool, int, time.Time) {
	resetTime := now.Add(config.Window)

	rl.cache.Set(key, RateLimitEntry{
		Count:     1,
		ResetTime: resetTime,
	}, config.Window)

	return true, config.Requests - 1, resetTime
}

func generateKey(methodPath, clientIP string) string {
	return fmt.Sprintf("rate_limit:%s:%s", methodPath, clientIP)
}
