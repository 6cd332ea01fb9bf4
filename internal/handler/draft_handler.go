package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/modulbox/leadform-backend/internal/budget"
	"github.com/modulbox/leadform-backend/internal/common"
	"github.com/modulbox/leadform-backend/internal/domain"
	"github.com/modulbox/leadform-backend/internal/service"
)

// DraftHandler handles wizard draft and attachment slot endpoints
type DraftHandler struct {
	drafts *service.DraftService
	leads  *service.LeadService
}

// NewDraftHandler creates a new DraftHandler
func NewDraftHandler(drafts *service.DraftService, leads *service.LeadService) *DraftHandler {
	return &DraftHandler{drafts: drafts, leads: leads}
}

// Create starts a new draft
// POST /api/v1/drafts
func (h *DraftHandler) Create(c *gin.Context) {
	draft, err := h.drafts.Create(c.Request.Context(), c.ClientIP())
	if err != nil {
		writeError(c, err)
		return
	}
	common.CreatedResponse(c, draft)
}

// Get returns a draft with its slots
// GET /api/v1/drafts/:id
func (h *DraftHandler) Get(c *gin.Context) {
	draft, err := h.drafts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	common.SuccessResponse(c, draft, nil)
}

// Budget returns the draft's attachment budget
// GET /api/v1/drafts/:id/budget
func (h *DraftHandler) Budget(c *gin.Context) {
	b, err := h.drafts.Budget(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	common.SuccessResponse(c, b, nil)
}

// AttachImage uploads an image into one slot
// PUT /api/v1/drafts/:id/slots/:entity/:row/:slot
func (h *DraftHandler) AttachImage(c *gin.Context) {
	key, err := slotKeyParam(c)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, budget.MaxFileBytes+budget.MiB)
	file, err := readSlotFile(c)
	if err != nil {
		writeError(c, err)
		return
	}

	resp, err := h.drafts.AttachImage(c.Request.Context(), c.Param("id"), key, file)
	if err != nil {
		writeError(c, err)
		return
	}
	common.SuccessResponse(c, resp, nil)
}

// ClearSlot empties one slot
// DELETE /api/v1/drafts/:id/slots/:entity/:row/:slot
func (h *DraftHandler) ClearSlot(c *gin.Context) {
	key, err := slotKeyParam(c)
	if err != nil {
		writeError(c, err)
		return
	}

	b, err := h.drafts.ClearSlot(c.Request.Context(), c.Param("id"), key)
	if err != nil {
		writeError(c, err)
		return
	}
	common.SuccessResponse(c, b, nil)
}

// RemoveRow clears every slot of one entity row
// DELETE /api/v1/drafts/:id/rows/:entity/:row
func (h *DraftHandler) RemoveRow(c *gin.Context) {
	entity, err := budget.ParseEntity(c.Param("entity"))
	if err != nil {
		writeError(c, fmt.Errorf("%w: %v", common.ErrInvalidSlot, err))
		return
	}
	row, err := strconv.Atoi(c.Param("row"))
	if err != nil {
		writeError(c, fmt.Errorf("%w: row must be a number", common.ErrInvalidSlot))
		return
	}

	b, err := h.drafts.RemoveRow(c.Request.Context(), c.Param("id"), entity, row)
	if err != nil {
		writeError(c, err)
		return
	}
	common.SuccessResponse(c, b, nil)
}

// Submit validates the form and submits it with the draft's images
// POST /api/v1/drafts/:id/submit
func (h *DraftHandler) Submit(c *gin.Context) {
	var form domain.LeadForm
	if err := c.ShouldBindJSON(&form); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid form payload", err)
		return
	}

	resp, err := h.leads.SubmitDraft(c.Request.Context(), c.Param("id"), &form, c.ClientIP())
	if err != nil {
		writeError(c, err)
		return
	}
	common.CreatedResponse(c, resp)
}

func slotKeyParam(c *gin.Context) (budget.SlotKey, error) {
	entity, err := budget.ParseEntity(c.Param("entity"))
	if err != nil {
		return budget.SlotKey{}, fmt.Errorf("%w: %v", common.ErrInvalidSlot, err)
	}
	row, err := strconv.Atoi(c.Param("row"))
	if err != nil {
		return budget.SlotKey{}, fmt.Errorf("%w: row must be a number", common.ErrInvalidSlot)
	}
	pos, err := strconv.Atoi(c.Param("slot"))
	if err != nil {
		return budget.SlotKey{}, fmt.Errorf("%w: slot must be a number", common.ErrInvalidSlot)
	}
	return budget.SlotKey{Entity: entity, Row: row, Position: pos}, nil
}

// readSlotFile streams the request body up to the "file" part and reads it.
// Other fields are skipped.
func readSlotFile(c *gin.Context) (budget.IncomingFile, error) {
	reader, err := c.Request.MultipartReader()
	if err != nil {
		return budget.IncomingFile{}, fmt.Errorf("%w: multipart body required", common.ErrInvalidInput)
	}
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return budget.IncomingFile{}, fmt.Errorf("%w: file is required", common.ErrInvalidInput)
		}
		if err != nil {
			return budget.IncomingFile{}, wrapBodyErr(err)
		}
		if part.FormName() != "file" || part.FileName() == "" {
			_ = part.Close()
			continue
		}
		file, err := readFilePart(part)
		_ = part.Close()
		return file, err
	}
}
