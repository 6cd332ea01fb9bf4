package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/modulbox/leadform-backend/internal/budget"
	"github.com/modulbox/leadform-backend/internal/common"
	"github.com/modulbox/leadform-backend/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestRequestLogger_SetsRequestIDAndLogs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	prev := *logger.GetLogger()
	logger.SetLogger(zerolog.New(&buf))
	defer logger.SetLogger(prev)

	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/api/v1/drafts/:id/budget", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/drafts/abc/budget", nil)
	req.Header.Set("X-Request-ID", "req-1")
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-1", w.Header().Get("X-Request-ID"))
	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"request_id":"req-1"`)
	assert.Contains(t, out, `"resource_id":"abc"`)
	assert.Contains(t, out, `"status":404`)
}

func TestRequestLogger_LogsRejectionCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	prev := *logger.GetLogger()
	logger.SetLogger(zerolog.New(&buf))
	defer logger.SetLogger(prev)

	r := gin.New()
	r.Use(RequestLogger())
	r.PUT("/api/v1/drafts/:id/slots/:entity/:row/:slot", func(c *gin.Context) {
		common.RejectionResponse(c, &budget.UnsupportedTypeError{ContentType: "application/pdf"})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/api/v1/drafts/d1/slots/logo/0/0", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	out := buf.String()
	assert.Contains(t, out, `"rejection":"unsupported_type"`)
	assert.Contains(t, out, `"route":"/api/v1/drafts/:id/slots/:entity/:row/:slot"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
