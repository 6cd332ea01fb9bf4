package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	pkglogger "github.com/modulbox/leadform-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const cacheOpTimeout = 500 * time.Millisecond

// CacheConfig configures the cache middleware
type CacheConfig struct {
	TTL       time.Duration
	KeyPrefix string
}

// AdminCacheConfig caches admin lead views briefly. Submissions invalidate it.
func AdminCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:       30 * time.Second,
		KeyPrefix: "intake:cache:admin:",
	}
}

type cachedResponse struct {
	Status  int               `json:"status"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body"`
}

// Cache returns a gin middleware that caches GET responses in Redis.
// Redis errors fall through to the handler.
func Cache(redisClient *redis.Client, cfg CacheConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || redisClient == nil {
			c.Next()
			return
		}

		key := cfg.KeyPrefix + cacheKey(c.Request.URL.Path, c.Request.URL.RawQuery)

		ctx, cancel := context.WithTimeout(c.Request.Context(), cacheOpTimeout)
		val, err := redisClient.Get(ctx, key).Bytes()
		cancel()
		if err == nil {
			var cached cachedResponse
			if json.Unmarshal(val, &cached) == nil {
				for k, v := range cached.Headers {
					c.Header(k, v)
				}
				c.Header("X-Cache", "HIT")
				c.Data(cached.Status, "application/json", []byte(cached.Body))
				c.Abort()
				return
			}
		}

		c.Header("X-Cache", "MISS")
		w := &responseWriter{ResponseWriter: c.Writer, body: make([]byte, 0, 1024)}
		c.Writer = w

		c.Next()

		if w.status < 200 || w.status >= 300 {
			return
		}
		data, err := json.Marshal(cachedResponse{
			Status:  w.status,
			Headers: map[string]string{"Content-Type": w.Header().Get("Content-Type")},
			Body:    string(w.body),
		})
		if err != nil {
			return
		}
		ctx, cancel = context.WithTimeout(context.Background(), cacheOpTimeout)
		defer cancel()
		if err := redisClient.Set(ctx, key, data, cfg.TTL).Err(); err != nil {
			pkglogger.GetLogger().Warn().Err(err).Msg("response cache write failed")
		}
	}
}

// InvalidateOnSuccess clears every cache entry under prefix after a 2xx response
func InvalidateOnSuccess(redisClient *redis.Client, prefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if status := c.Writer.Status(); status >= 200 && status < 300 {
			InvalidateCache(redisClient, prefix)
		}
	}
}

// InvalidateCache deletes cache entries matching a prefix pattern
func InvalidateCache(redisClient *redis.Client, prefix string) {
	if redisClient == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), cacheOpTimeout)
	defer cancel()
	iter := redisClient.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		redisClient.Del(ctx, iter.Val())
	}
	if err := iter.Err(); err != nil {
		pkglogger.GetLogger().Warn().Err(err).Str("prefix", prefix).Msg("cache invalidation failed")
	}
}

func cacheKey(path, query string) string {
	raw := path
	if query != "" {
		raw += "?" + query
	}
	return fmt.Sprintf("%x", sha256.Sum256([]byte(raw)))
}

// responseWriter captures the response body
type responseWriter struct {
	gin.ResponseWriter
	body   []byte
	status int
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	w.body = append(w.body, b...)
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	w.body = append(w.body, []byte(s)...)
	return w.ResponseWriter.WriteString(s)
}
