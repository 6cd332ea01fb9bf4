package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/modulbox/leadform-backend/internal/budget"
	"github.com/modulbox/leadform-backend/internal/domain"
	"github.com/modulbox/leadform-backend/internal/middleware"
	"github.com/modulbox/leadform-backend/internal/repository"
	"github.com/modulbox/leadform-backend/internal/service"
	"github.com/modulbox/leadform-backend/pkg/storage"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testAdminKey = "test-admin-key"

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&domain.Draft{}, &domain.DraftSlot{}, &domain.Lead{}, &domain.LeadImage{}))

	staging, err := storage.NewLocalStorage(t.TempDir(), "")
	require.NoError(t, err)
	local, err := storage.NewLocalStorage(t.TempDir(), "http://files.test")
	require.NoError(t, err)

	compressor := budget.NewCompressor(nil)
	validator := service.NewFormValidator()
	drafts := service.NewDraftService(repository.NewDraftRepository(db), staging, compressor, service.NewDraftQueue(), 72*time.Hour)
	leads := service.NewLeadService(repository.NewLeadRepository(db), drafts, storage.NewFallbackStore(nil, local), validator, compressor, nil)

	draftHandler := NewDraftHandler(drafts, leads)
	leadHandler := NewLeadHandler(leads, validator)
	adminHandler := NewAdminHandler(leads)

	r := gin.New()
	api := r.Group("/api/v1")
	api.POST("/drafts", draftHandler.Create)
	api.GET("/drafts/:id", draftHandler.Get)
	api.GET("/drafts/:id/budget", draftHandler.Budget)
	api.PUT("/drafts/:id/slots/:entity/:row/:slot", draftHandler.AttachImage)
	api.DELETE("/drafts/:id/slots/:entity/:row/:slot", draftHandler.ClearSlot)
	api.DELETE("/drafts/:id/rows/:entity/:row", draftHandler.RemoveRow)
	api.POST("/drafts/:id/submit", draftHandler.Submit)
	api.POST("/steps/:step/validate", leadHandler.ValidateStep)
	api.POST("/leads", leadHandler.Submit)
	admin := api.Group("/admin", middleware.RequireAdminKey(testAdminKey))
	admin.GET("/leads", adminHandler.ListLeads)
	admin.GET("/leads/:id", adminHandler.GetLead)
	return r
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code           string            `json:"code"`
		Message        string            `json:"message"`
		RemainingBytes *int64            `json:"remaining_bytes"`
		Fields         map[string]string `json:"fields"`
	} `json:"error"`
	Meta *struct {
		Total int64 `json:"total"`
	} `json:"meta"`
}

func do(t *testing.T, r *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func jsonRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(method, url, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	return req
}

type filePart struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

func multipartRequest(t *testing.T, url, method string, fields map[string]string, files []filePart) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.filename+`"`)
		h.Set("Content-Type", f.contentType)
		w, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = w.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func createDraft(t *testing.T, r *gin.Engine) string {
	t.Helper()
	req, _ := http.NewRequest("POST", "/api/v1/drafts", nil)
	w, env := do(t, r, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var draft domain.DraftResponse
	require.NoError(t, json.Unmarshal(env.Data, &draft))
	return draft.ID
}

func validFormJSON() map[string]interface{} {
	return map[string]interface{}{
		"company": map[string]interface{}{
			"company_name": "Box Homes Ltd",
			"contact_name": "Sam Doe",
			"email":        "sam@boxhomes.example",
			"phone":        "+44 20 7946 0000",
			"country":      "UK",
			"city":         "Leeds",
		},
		"portfolio": map[string]interface{}{
			"models": []map[string]interface{}{
				{"name": "Studio 20", "size_label": "20ft", "area_sqm": 14.5, "bedrooms": 0},
			},
		},
		"pricing": map[string]interface{}{
			"currency":        "GBP",
			"price_from":      20000,
			"price_to":        30000,
			"lead_time_weeks": 6,
		},
	}
}
