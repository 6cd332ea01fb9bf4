package common

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/modulbox/leadform-backend/internal/budget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errorBody struct {
	Error ErrorInfo `json:"error"`
}

func TestRejectionResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name          string
		err           error
		wantStatus    int
		wantCode      string
		wantRemaining *int64
	}{
		{"unsupported type", &budget.UnsupportedTypeError{ContentType: "application/pdf"}, http.StatusUnsupportedMediaType, budget.CodeUnsupportedType, nil},
		{"file too large", &budget.FileTooLargeError{Size: 11 * budget.MiB, Limit: budget.MaxFileBytes}, http.StatusRequestEntityTooLarge, budget.CodeFileTooLarge, nil},
		{"over budget", &budget.PayloadBudgetExceededError{Size: budget.MiB, Current: 44 * budget.MiB, Remaining: budget.MiB / 2, Limit: budget.MaxAggregateBytes}, http.StatusRequestEntityTooLarge, budget.CodePayloadBudgetExceeded, int64Ptr(budget.MiB / 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			require.True(t, RejectionResponse(c, tt.err))
			assert.Equal(t, tt.wantStatus, w.Code)

			var body errorBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.Equal(t, tt.wantRemaining, body.Error.RemainingBytes)
			assert.NotEmpty(t, body.Error.Message)
		})
	}
}

func TestRejectionResponse_OtherError(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	assert.False(t, RejectionResponse(c, errors.New("boom")))
	assert.False(t, c.Writer.Written())
}

func TestErrorResponse_HidesInternalDetails(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	ErrorResponse(c, http.StatusInternalServerError, "failed", errors.New("db password wrong"))

	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "INTERNAL_SERVER_ERROR", body.Error.Code)
	assert.Empty(t, body.Error.Details)
}

func int64Ptr(v int64) *int64 { return &v }
