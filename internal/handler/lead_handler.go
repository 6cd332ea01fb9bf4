package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/modulbox/leadform-backend/internal/budget"
	"github.com/modulbox/leadform-backend/internal/common"
	"github.com/modulbox/leadform-backend/internal/domain"
	"github.com/modulbox/leadform-backend/internal/service"
)

const payloadField = "payload"

// maxFileNameBytes leaves room under the 255 byte file_name column for an
// extension swap after re-encoding.
const maxFileNameBytes = 200

// LeadHandler handles step validation and one-shot lead submission
type LeadHandler struct {
	leads     *service.LeadService
	validator *service.FormValidator
}

// NewLeadHandler creates a new LeadHandler
func NewLeadHandler(leads *service.LeadService, validator *service.FormValidator) *LeadHandler {
	return &LeadHandler{leads: leads, validator: validator}
}

// ValidateStep validates one wizard step
// POST /api/v1/steps/:step/validate
func (h *LeadHandler) ValidateStep(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, budget.MiB))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	resp, err := h.validator.ValidateStep(c.Param("step"), raw)
	if err != nil {
		writeError(c, err)
		return
	}
	common.SuccessResponse(c, resp, nil)
}

// Submit accepts the form and its images as one multipart request: a JSON
// "payload" field plus file fields named after their slots.
// POST /api/v1/leads
func (h *LeadHandler) Submit(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, budget.MaxAggregateBytes+budget.MiB)

	reader, err := c.Request.MultipartReader()
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Multipart body required", err)
		return
	}

	var (
		form  *domain.LeadForm
		parts []service.FilePart
	)
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			writeError(c, wrapBodyErr(err))
			return
		}

		field := part.FormName()
		if part.FileName() == "" {
			if field == payloadField {
				form = &domain.LeadForm{}
				if err := json.NewDecoder(io.LimitReader(part, budget.MiB)).Decode(form); err != nil {
					writeError(c, wrapBodyErr(err))
					return
				}
			}
			_ = part.Close()
			continue
		}

		file, err := readFilePart(part)
		_ = part.Close()
		if err != nil {
			writeError(c, err)
			return
		}
		parts = append(parts, service.FilePart{Field: field, File: file})
	}

	if form == nil {
		writeError(c, common.ErrMissingPayload)
		return
	}

	resp, err := h.leads.SubmitOneShot(c.Request.Context(), form, parts, c.ClientIP())
	if err != nil {
		writeError(c, err)
		return
	}
	common.CreatedResponse(c, resp)
}

// readFilePart reads an uploaded file, stopping one byte past the per-file
// cap. A file cut short by the cap or by the body limit comes back marked
// Truncated, so the compressor still checks its type before its size.
func readFilePart(part *multipart.Part) (budget.IncomingFile, error) {
	data, err := io.ReadAll(io.LimitReader(part, budget.MaxFileBytes+1))
	if err != nil && !isMaxBytes(err) {
		return budget.IncomingFile{}, wrapBodyErr(err)
	}
	return budget.IncomingFile{
		Name:        cleanFileName(part.FileName()),
		ContentType: partContentType(part.Header.Get("Content-Type")),
		Data:        data,
		Truncated:   err != nil || int64(len(data)) > budget.MaxFileBytes,
	}, nil
}

// cleanFileName drops any client-side directory and shortens the name to
// maxFileNameBytes, keeping a short extension.
func cleanFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	if len(name) <= maxFileNameBytes {
		return name
	}
	ext := path.Ext(name)
	if len(ext) > 10 {
		ext = ""
	}
	cut := maxFileNameBytes - len(ext)
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return name[:cut] + ext
}

func partContentType(ct string) string {
	if ct == "application/octet-stream" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(ct); err == nil && mt == "application/octet-stream" {
		return ""
	}
	return ct
}

// wrapBodyErr keeps body-size errors intact and marks everything else as bad input
func wrapBodyErr(err error) error {
	if isMaxBytes(err) {
		return err
	}
	return fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
}

func isMaxBytes(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr)
}
