package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/modulbox/leadform-backend/internal/budget"
	"github.com/modulbox/leadform-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payloadJSON(t *testing.T, form map[string]interface{}) string {
	t.Helper()
	data, err := json.Marshal(form)
	require.NoError(t, err)
	return string(data)
}

func TestLeadHandler_ValidateStep(t *testing.T) {
	r := newTestRouter(t)

	company := validFormJSON()["company"]
	w, env := do(t, r, jsonRequest(t, "POST", "/api/v1/steps/company/validate", company))
	require.Equal(t, http.StatusOK, w.Code)
	var resp domain.StepValidationResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.True(t, resp.Valid)

	w, env = do(t, r, jsonRequest(t, "POST", "/api/v1/steps/company/validate", map[string]string{"email": "nope"}))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.False(t, resp.Valid)
	assert.Contains(t, resp.Errors, "email")

	w, _ = do(t, r, jsonRequest(t, "POST", "/api/v1/steps/shipping/validate", map[string]string{}))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLeadHandler_SubmitOneShot(t *testing.T) {
	r := newTestRouter(t)

	req := multipartRequest(t, "/api/v1/leads", "POST",
		map[string]string{"payload": payloadJSON(t, validFormJSON())},
		[]filePart{
			{field: "logo", filename: "logo.png", contentType: "image/png", data: []byte("logo")},
			{field: "models[0].images[1]", filename: "a.jpg", contentType: "application/octet-stream", data: []byte{0xFF, 0xD8, 0xFF, 0xE0, 1, 2, 3}},
		})
	w, env := do(t, r, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp domain.LeadSubmitResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, 2, resp.ImageCount)
	require.Len(t, resp.Images, 2)
	assert.Equal(t, "logo", resp.Images[0].Field)
	assert.Equal(t, "models[0].images[1]", resp.Images[1].Field)
	assert.Equal(t, "image/jpeg", resp.Images[1].ContentType)
}

func TestLeadHandler_SubmitOneShotRejections(t *testing.T) {
	r := newTestRouter(t)
	payload := map[string]string{"payload": payloadJSON(t, validFormJSON())}

	w, _ := do(t, r, multipartRequest(t, "/api/v1/leads", "POST", nil,
		[]filePart{{field: "logo", filename: "logo.png", contentType: "image/png", data: []byte("x")}}))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := do(t, r, multipartRequest(t, "/api/v1/leads", "POST", payload,
		[]filePart{{field: "logo", filename: "logo.svg", contentType: "image/svg+xml", data: []byte("<svg/>")}}))
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, budget.CodeUnsupportedType, env.Error.Code)

	// an image for a model row the form does not have
	w, _ = do(t, r, multipartRequest(t, "/api/v1/leads", "POST", payload,
		[]filePart{{field: "models[3].images[0]", filename: "a.jpg", contentType: "image/jpeg", data: []byte("x")}}))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, r, multipartRequest(t, "/api/v1/leads", "POST", payload,
		[]filePart{{field: "brochure", filename: "a.jpg", contentType: "image/jpeg", data: []byte("x")}}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLeadHandler_SubmitRequiresMultipart(t *testing.T) {
	r := newTestRouter(t)

	w, _ := do(t, r, jsonRequest(t, "POST", "/api/v1/leads", validFormJSON()))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLeadHandler_SubmitBodyTooLarge(t *testing.T) {
	r := newTestRouter(t)

	files := make([]filePart, 0, 6)
	for i := 0; i < 4; i++ {
		files = append(files, filePart{
			field: "models[0].images[" + string(rune('0'+i)) + "]", filename: "a.jpg", contentType: "image/jpeg",
			data: bytes.Repeat([]byte{0xAB}, int(10*budget.MiB)),
		})
	}
	files = append(files, filePart{field: "logo", filename: "logo.png", contentType: "image/png", data: bytes.Repeat([]byte{0xCD}, int(7*budget.MiB))})

	w, env := do(t, r, multipartRequest(t, "/api/v1/leads", "POST",
		map[string]string{"payload": payloadJSON(t, validFormJSON())}, files))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	require.NotNil(t, env.Error)
}

func TestCleanFileName(t *testing.T) {
	assert.Equal(t, "logo.png", cleanFileName("logo.png"))
	assert.Equal(t, "logo.png", cleanFileName(`C:\Users\me\Desktop\logo.png`))
	assert.Equal(t, "passwd", cleanFileName("../../etc/passwd"))
	assert.Equal(t, "", cleanFileName(""))

	long := cleanFileName(strings.Repeat("a", 400) + ".jpeg")
	assert.Len(t, long, maxFileNameBytes)
	assert.True(t, strings.HasSuffix(long, ".jpeg"))

	multi := cleanFileName(strings.Repeat("日", 100) + ".jpg")
	assert.LessOrEqual(t, len(multi), maxFileNameBytes)
	assert.True(t, utf8.ValidString(multi))
	assert.True(t, strings.HasSuffix(multi, ".jpg"))
}
