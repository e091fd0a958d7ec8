package response

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/lutheralien/to-do-api/internal/core/port"
	"github.com/lutheralien/to-do-api/internal/core/telemetry"
	. "github.com/lutheralien/to-do-api/pkg/tracing"
)

const cacheKeyPrefix = "cache:"

// ResponseCacheConfig configuration for response cache
type ResponseCacheConfig struct {
	TTL     time.Duration
	Enabled bool
}

// ResponseCache serves repeated GETs from a CacheRepository and drops the
// cached entries of a resource after any successful write to it.
//
// Each resource root carries a generation that successful writes bump. A GET
// only stores its response when the generation it started under is still
// current, so a read that raced a write never repopulates the cache with
// pre-write data. Generations are per process; other replicas sharing a
// Redis cache are bounded by the TTL.
type ResponseCache struct {
	store   port.CacheRepository
	config  map[string]ResponseCacheConfig
	logger  *zap.Logger
	metrics *telemetry.AppMetrics

	mutex       sync.Mutex
	generations map[string]uint64
}

type CachedResponse struct {
	StatusCode int       `json:"status_code"`
	Body       []byte    `json:"body"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewResponseCache(store port.CacheRepository, ttl time.Duration, logger *zap.Logger, metrics *telemetry.AppMetrics) *ResponseCache {
	configs := map[string]ResponseCacheConfig{
		"/todos": {
			TTL:     ttl,
			Enabled: true,
		},
		"/todos/:id": {
			TTL:     ttl,
			Enabled: true,
		},
		"/health": {
			Enabled: false,
		},
		"default": {
			Enabled: false,
		},
	}

	return &ResponseCache{
		store:       store,
		config:      configs,
		logger:      logger,
		metrics:     metrics,
		generations: make(map[string]uint64),
	}
}

func (rc *ResponseCache) CacheMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			rc.invalidateAfterWrite(c)
			return
		}

		path := c.FullPath()
		if path == "" {
			c.Next()
			return
		}

		config, exists := rc.config[path]
		if !exists {
			config = rc.config["default"]
		}

		if !config.Enabled {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		cacheKey := generateCacheKey(c.Request.URL.RequestURI())
		root := resourceRoot(c.Request.URL.Path)
		generation := rc.generation(root)

		if cached, ok := rc.lookup(ctx, cacheKey); ok {
			_, span := CreateChildSpan(ctx, "cache.response.hit", []attribute.KeyValue{
				attribute.String("cache.key", cacheKey),
				attribute.String("cache.path", path),
				attribute.String("cache.age", time.Since(cached.Timestamp).String()),
			})
			defer span.End()

			if rc.metrics != nil {
				rc.metrics.RecordCacheHit(ctx, path)
			}

			c.Header("X-Cache", "HIT")
			c.Data(cached.StatusCode, "application/json; charset=utf-8", cached.Body)
			c.Abort()
			return
		}

		ctx, span := CreateChildSpan(ctx, "cache.response.miss", []attribute.KeyValue{
			attribute.String("cache.key", cacheKey),
			attribute.String("cache.path", path),
		})
		defer span.End()

		if rc.metrics != nil {
			rc.metrics.RecordCacheMiss(ctx, path)
		}

		writer := &responseWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = writer
		c.Header("X-Cache", "MISS")

		c.Next()

		if writer.Status() != http.StatusOK {
			return
		}

		payload, err := json.Marshal(CachedResponse{
			StatusCode: writer.Status(),
			Body:       writer.body.Bytes(),
			Timestamp:  time.Now(),
		})
		if err != nil {
			return
		}

		rc.storeIfCurrent(ctx, root, generation, cacheKey, payload, config.TTL)
	}
}

func (rc *ResponseCache) generation(root string) uint64 {
	rc.mutex.Lock()
	defer rc.mutex.Unlock()

	return rc.generations[root]
}

// storeIfCurrent writes the entry unless a write to root finished since the
// request began. It holds the same lock as invalidation, so an entry can not
// land between a write's bump and its prefix delete.
func (rc *ResponseCache) storeIfCurrent(ctx context.Context, root string, generation uint64, cacheKey string, payload []byte, ttl time.Duration) {
	rc.mutex.Lock()
	defer rc.mutex.Unlock()

	if rc.generations[root] != generation {
		rc.logger.Debug("Skipping cache store after concurrent write", zap.String("cache_key", cacheKey))
		return
	}

	if err := rc.store.Set(ctx, cacheKey, payload, ttl); err != nil {
		rc.logger.Warn("Failed to store cached response",
			zap.String("cache_key", cacheKey),
			zap.Error(err))
	}
}

func (rc *ResponseCache) lookup(ctx context.Context, cacheKey string) (CachedResponse, bool) {
	var cached CachedResponse

	payload, err := rc.store.Get(ctx, cacheKey)
	if err != nil {
		if !errors.Is(err, port.ErrCacheMiss) {
			rc.logger.Warn("Failed to read cached response",
				zap.String("cache_key", cacheKey),
				zap.Error(err))
		}
		return cached, false
	}

	if err := json.Unmarshal(payload, &cached); err != nil {
		return cached, false
	}

	return cached, true
}

func (rc *ResponseCache) invalidateAfterWrite(c *gin.Context) {
	status := c.Writer.Status()
	if status < 200 || status >= 300 {
		return
	}

	root := resourceRoot(c.Request.URL.Path)
	prefix := generateCacheKey(root)

	rc.mutex.Lock()
	defer rc.mutex.Unlock()

	rc.generations[root]++

	if err := rc.store.DeleteByPrefix(c.Request.Context(), prefix); err != nil {
		rc.logger.Warn("Failed to invalidate cached responses",
			zap.String("prefix", prefix),
			zap.Error(err))
		return
	}

	rc.logger.Debug("Cache invalidated", zap.String("prefix", prefix))
}

func generateCacheKey(uri string) string {
	return cacheKeyPrefix + uri
}

// resourceRoot returns the first path segment, "/todos/abc" -> "/todos".
func resourceRoot(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if i := strings.Index(trimmed, "/"); i >= 0 {
		trimmed = trimmed[:i]
	}

	return "/" + trimmed
}

type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
