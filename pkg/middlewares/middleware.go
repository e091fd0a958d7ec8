package middlewares

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/lutheralien/to-do-api/internal/adapter/http/middleware"
	"github.com/lutheralien/to-do-api/internal/core/port"
	"github.com/lutheralien/to-do-api/internal/core/telemetry"
	. "github.com/lutheralien/to-do-api/pkg/config"
	. "github.com/lutheralien/to-do-api/pkg/response"
)

func MetricsMiddleware(metrics *telemetry.AppMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		metrics.IncrementActiveConnections(c.Request.Context())
		defer metrics.DecrementActiveConnections(c.Request.Context())

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		metrics.RecordRequest(
			c.Request.Context(),
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
		)
	}
}

func CorsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, X-Request-ID")
		c.Header("Access-Control-Expose-Headers", "X-Request-ID, X-Cache, X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// SetupGinMiddlewareWithConfig installs the shared middleware chain. cache may
// be nil, in which case response caching is skipped regardless of config.
func SetupGinMiddlewareWithConfig(router *gin.Engine, metrics *telemetry.AppMetrics, logger *LokiLogger, config *AppConfig, cache port.CacheRepository) {
	if err := router.SetTrustedProxies(config.TrustedProxies); err != nil {
		logger.Logger.Warn("Ignoring invalid trusted proxies", zap.Error(err))
		_ = router.SetTrustedProxies(nil)
	}

	httpsEnforcer := NewHTTPSEnforcer(config.EnforceHTTPS, logger.Logger.Logger)
	router.Use(httpsEnforcer.HTTPSMiddleware())

	router.Use(CorsMiddleware())
	router.Use(middleware.CurrentMiddleware())
	router.Use(otelgin.Middleware(config.ServiceName))
	router.Use(LoggingMiddleware(logger))

	if metrics != nil {
		router.Use(MetricsMiddleware(metrics))
	}

	if config.RateLimitEnabled {
		rateLimiter := NewRateLimiter(logger.Logger.Logger, metrics, config.RateLimitConfigs)
		router.Use(rateLimiter.RateLimitMiddleware())
	}

	if config.CacheEnabled && cache != nil {
		responseCache := NewResponseCache(cache, config.CacheTTL, logger.Logger.Logger, metrics)
		router.Use(responseCache.CacheMiddleware())
	}
}
