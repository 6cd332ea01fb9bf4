package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/modulbox/leadform-backend/internal/common"
	"github.com/modulbox/leadform-backend/internal/service"
	"github.com/modulbox/leadform-backend/pkg/ginutil"
)

// AdminHandler exposes submitted leads to the sales team
type AdminHandler struct {
	leads *service.LeadService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(leads *service.LeadService) *AdminHandler {
	return &AdminHandler{leads: leads}
}

// ListLeads returns leads, newest first
// GET /api/v1/admin/leads?page=1&limit=20
func (h *AdminHandler) ListLeads(c *gin.Context) {
	page := ginutil.QueryInt(c, "page", 1)
	limit := ginutil.QueryIntRange(c, "limit", 20, 1, 100)

	resp, err := h.leads.ListLeads(c.Request.Context(), page, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	common.SuccessResponse(c, resp.Items, &common.Meta{
		Page:  resp.Page,
		Limit: resp.Limit,
		Total: resp.Total,
	})
}

// GetLead returns one lead with its images
// GET /api/v1/admin/leads/:id
func (h *AdminHandler) GetLead(c *gin.Context) {
	id, err := ginutil.ParamInt64(c, "id")
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid lead id", fmt.Errorf("%w: %v", common.ErrInvalidInput, err))
		return
	}

	lead, err := h.leads.GetLead(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	common.SuccessResponse(c, lead, nil)
}
