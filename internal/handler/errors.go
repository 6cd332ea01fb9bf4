package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/modulbox/leadform-backend/internal/common"
	"github.com/modulbox/leadform-backend/internal/service"
	pkglogger "github.com/modulbox/leadform-backend/pkg/logger"
)

// writeError maps service errors to HTTP responses
func writeError(c *gin.Context, err error) {
	if common.RejectionResponse(c, err) {
		return
	}

	var verr *service.ValidationError
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &verr):
		common.ValidationErrorResponse(c, verr.Fields)
	case errors.As(err, &maxBytesErr):
		common.ErrorResponse(c, http.StatusRequestEntityTooLarge, "Request body too large", common.ErrPayloadTooBig)
	case errors.Is(err, common.ErrDraftNotFound):
		common.ErrorResponse(c, http.StatusNotFound, "Draft not found", err)
	case errors.Is(err, common.ErrLeadNotFound):
		common.ErrorResponse(c, http.StatusNotFound, "Lead not found", err)
	case errors.Is(err, common.ErrUnknownStep):
		common.ErrorResponse(c, http.StatusNotFound, "Unknown step", err)
	case errors.Is(err, common.ErrDraftClosed):
		common.ErrorResponse(c, http.StatusConflict, "Draft can no longer be changed", err)
	case errors.Is(err, common.ErrInvalidSlot),
		errors.Is(err, common.ErrOrphanedImage),
		errors.Is(err, common.ErrMissingPayload),
		errors.Is(err, common.ErrInvalidInput):
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request", err)
	default:
		pkglogger.GetLogger().Error().
			Err(err).
			Str("path", c.FullPath()).
			Msg("request failed")
		common.ErrorResponse(c, http.StatusInternalServerError, "Internal server error", err)
	}
}
