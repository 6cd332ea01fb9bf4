package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func serveLimited(client *redis.Client) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(client, SubmitRateLimitConfig()))
	r.POST("/api/v1/leads", func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/v1/leads", nil)
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimit_NilClientPassesThrough(t *testing.T) {
	w := serveLimited(nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
}

func TestRateLimit_FailsOpenWhenRedisIsDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	defer client.Close()

	w := serveLimited(client)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestRateLimitConfigs(t *testing.T) {
	assert.Less(t, SubmitRateLimitConfig().RequestsPerMinute, UploadRateLimitConfig().RequestsPerMinute)
	assert.NotEqual(t, SubmitRateLimitConfig().KeyPrefix, UploadRateLimitConfig().KeyPrefix)
}
