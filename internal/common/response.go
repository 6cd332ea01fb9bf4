package common

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/modulbox/leadform-backend/internal/budget"
)

// APIResponse standard API response structure
type APIResponse struct {
	Data  interface{} `json:"data"`
	Meta  *Meta       `json:"meta,omitempty"`
	Error *ErrorInfo  `json:"error,omitempty"`
}

// Meta pagination and additional metadata
type Meta struct {
	Page  int   `json:"page,omitempty"`
	Limit int   `json:"limit,omitempty"`
	Total int64 `json:"total,omitempty"`
}

// ErrorInfo error details
type ErrorInfo struct {
	Code           string            `json:"code"`
	Message        string            `json:"message"`
	Details        string            `json:"details,omitempty"`
	RemainingBytes *int64            `json:"remaining_bytes,omitempty"`
	Fields         map[string]string `json:"fields,omitempty"`
}

// SuccessResponse returns a successful JSON response
func SuccessResponse(c *gin.Context, data interface{}, meta *Meta) {
	c.JSON(http.StatusOK, APIResponse{
		Data: data,
		Meta: meta,
	})
}

// CreatedResponse returns a 201 JSON response
func CreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Data: data})
}

// ErrorResponse returns an error JSON response
func ErrorResponse(c *gin.Context, status int, message string, err error) {
	errInfo := &ErrorInfo{
		Code:    getErrorCode(status),
		Message: message,
	}
	if err != nil && status < http.StatusInternalServerError {
		errInfo.Details = err.Error()
	}

	c.JSON(status, gin.H{
		"error": errInfo,
	})
}

// ValidationErrorResponse returns a 422 response listing invalid fields
func ValidationErrorResponse(c *gin.Context, fields map[string]string) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"error": &ErrorInfo{
			Code:    "VALIDATION_FAILED",
			Message: "some fields are invalid",
			Fields:  fields,
		},
	})
}

// RejectionCodeKey is the gin context key holding the rejection code of a
// refused upload, for request logging
const RejectionCodeKey = "rejection_code"

// RejectionResponse writes an upload rejection. It returns false when err is
// not an upload rejection.
func RejectionResponse(c *gin.Context, err error) bool {
	var (
		typeErr   *budget.UnsupportedTypeError
		sizeErr   *budget.FileTooLargeError
		budgetErr *budget.PayloadBudgetExceededError
	)

	var status int
	info := &ErrorInfo{Message: err.Error()}
	switch {
	case errors.As(err, &typeErr):
		status = http.StatusUnsupportedMediaType
		info.Code = typeErr.Code()
	case errors.As(err, &sizeErr):
		status = http.StatusRequestEntityTooLarge
		info.Code = sizeErr.Code()
	case errors.As(err, &budgetErr):
		status = http.StatusRequestEntityTooLarge
		info.Code = budgetErr.Code()
		remaining := budgetErr.Remaining
		info.RemainingBytes = &remaining
	default:
		return false
	}

	c.Set(RejectionCodeKey, info.Code)
	c.JSON(status, gin.H{"error": info})
	return true
}

// getErrorCode generates error code from HTTP status
func getErrorCode(status int) string {
	switch status {
	case 400:
		return "BAD_REQUEST"
	case 401:
		return "UNAUTHORIZED"
	case 403:
		return "FORBIDDEN"
	case 404:
		return "NOT_FOUND"
	case 409:
		return "CONFLICT"
	case 413:
		return "PAYLOAD_TOO_LARGE"
	case 422:
		return "UNPROCESSABLE_ENTITY"
	case 500:
		return "INTERNAL_SERVER_ERROR"
	default:
		return "ERROR"
	}
}
