package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/modulbox/leadform-backend/internal/budget"
	"github.com/modulbox/leadform-backend/internal/common"
	"github.com/modulbox/leadform-backend/internal/domain"
	"github.com/modulbox/leadform-backend/internal/repository"
	pkglogger "github.com/modulbox/leadform-backend/pkg/logger"
	"github.com/modulbox/leadform-backend/pkg/storage"
	"gorm.io/gorm"
)

// cleanupTimeout bounds deleting the images of a failed submission
const cleanupTimeout = 30 * time.Second

// Submission paths, used as metric labels
const (
	submitPathDraft   = "draft"
	submitPathOneShot = "one_shot"
)

// MediaStore receives submitted images. *storage.FallbackStore implements it.
type MediaStore interface {
	UploadBytes(ctx context.Context, key string, data []byte, contentType string) (*storage.UploadResult, error)
	Remove(ctx context.Context, result *storage.UploadResult) error
}

// FilePart is one file field of a one-shot multipart submission
type FilePart struct {
	Field string
	File  budget.IncomingFile
}

// LeadService turns a completed wizard into a stored lead
type LeadService struct {
	leads      repository.LeadRepository
	drafts     *DraftService
	media      MediaStore
	validator  *FormValidator
	compressor *budget.Compressor
	notifier   Notifier
}

// NewLeadService creates a new LeadService. notifier may be nil.
func NewLeadService(
	leads repository.LeadRepository,
	drafts *DraftService,
	media MediaStore,
	validator *FormValidator,
	compressor *budget.Compressor,
	notifier Notifier,
) *LeadService {
	return &LeadService{
		leads:      leads,
		drafts:     drafts,
		media:      media,
		validator:  validator,
		compressor: compressor,
		notifier:   notifier,
	}
}

// SubmitDraft submits form together with the images attached to draftID
func (s *LeadService) SubmitDraft(ctx context.Context, draftID string, form *domain.LeadForm, clientIP string) (*domain.LeadSubmitResponse, error) {
	if err := s.validator.ValidateForm(form); err != nil {
		return nil, err
	}

	var resp *domain.LeadSubmitResponse
	err := s.drafts.Finalize(ctx, draftID, func(ctx context.Context, images []StagedImage) (int64, error) {
		if err := checkOrphans(form, images); err != nil {
			return 0, err
		}
		var err error
		resp, err = s.store(ctx, submitPathDraft, draftID, form, images, clientIP)
		if err != nil {
			return 0, err
		}
		return resp.LeadID, nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// SubmitOneShot submits a form and its files in one request. Every file passes
// the compressor against the total of the files accepted before it.
func (s *LeadService) SubmitOneShot(ctx context.Context, form *domain.LeadForm, parts []FilePart, clientIP string) (*domain.LeadSubmitResponse, error) {
	if err := s.validator.ValidateForm(form); err != nil {
		return nil, err
	}

	accepted := make(map[budget.SlotKey]*budget.AcceptedFile, len(parts))
	for _, part := range parts {
		key, err := budget.ParseFieldName(part.Field)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrInvalidSlot, err)
		}

		// a repeated field replaces the earlier file
		delete(accepted, key)
		current := budget.ComputeBudget(acceptedSlots(accepted))

		file, err := s.compressor.ProcessIncomingImage(ctx, part.File, current)
		if err != nil {
			recordRejected(err)
			return nil, fmt.Errorf("%s: %w", part.Field, err)
		}
		recordAccepted(file)
		accepted[key] = file
	}

	images := make([]StagedImage, 0, len(accepted))
	for key, file := range accepted {
		images = append(images, StagedImage{
			Key:         key,
			FileName:    file.Name,
			ContentType: file.ContentType,
			Data:        file.Data,
		})
	}
	sortImages(images)

	if err := checkOrphans(form, images); err != nil {
		return nil, err
	}
	return s.store(ctx, submitPathOneShot, "", form, images, clientIP)
}

// GetLead returns one stored lead with its images
func (s *LeadService) GetLead(ctx context.Context, id int64) (*domain.Lead, error) {
	lead, err := s.leads.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrLeadNotFound
	}
	return lead, err
}

// ListLeads returns a page of leads, newest first
func (s *LeadService) ListLeads(ctx context.Context, page, limit int) (*domain.LeadListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	leads, total, err := s.leads.List((page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	if leads == nil {
		leads = []domain.Lead{}
	}
	return &domain.LeadListResponse{Items: leads, Total: total, Page: page, Limit: limit}, nil
}

func (s *LeadService) store(ctx context.Context, path, draftID string, form *domain.LeadForm, images []StagedImage, clientIP string) (*domain.LeadSubmitResponse, error) {
	formJSON, err := json.Marshal(form)
	if err != nil {
		return nil, err
	}

	lead := &domain.Lead{
		DraftID:     draftID,
		CompanyName: form.Company.CompanyName,
		ContactName: form.Company.ContactName,
		Email:       form.Company.Email,
		Phone:       form.Company.Phone,
		Country:     form.Company.Country,
		City:        form.Company.City,
		Currency:    form.Pricing.Currency,
		PriceFrom:   form.Pricing.PriceFrom,
		PriceTo:     form.Pricing.PriceTo,
		ModelCount:  len(form.Portfolio.Models),
		FormJSON:    string(formJSON),
		ClientIP:    clientIP,
		Images:      make([]domain.LeadImage, 0, len(images)),
	}

	uploaded := make([]*storage.UploadResult, 0, len(images))
	for _, img := range images {
		key := storage.GenerateKey("leads", img.FileName)
		result, err := s.media.UploadBytes(ctx, key, img.Data, img.ContentType)
		if err != nil {
			s.removeUploaded(uploaded)
			return nil, fmt.Errorf("failed to upload %s: %w", img.Key.FieldName(), err)
		}
		uploaded = append(uploaded, result)
		if result.Storage == "local" {
			imageStorageFallbacks.Inc()
		}

		lead.Images = append(lead.Images, domain.LeadImage{
			Field:       img.Key.FieldName(),
			Storage:     result.Storage,
			Key:         result.Key,
			URL:         result.URL,
			ContentType: img.ContentType,
			Size:        int64(len(img.Data)),
		})
		lead.ImageCount++
		lead.ImageBytes += int64(len(img.Data))
	}

	if err := s.leads.Create(lead); err != nil {
		s.removeUploaded(uploaded)
		return nil, fmt.Errorf("failed to save lead: %w", err)
	}
	leadsSubmitted.WithLabelValues(path).Inc()

	pkglogger.GetLogger().Info().
		Int64("lead_id", lead.ID).
		Str("path", path).
		Str("draft_id", draftID).
		Int("images", lead.ImageCount).
		Int64("image_bytes", lead.ImageBytes).
		Msg("lead submitted")

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, lead); err != nil {
			pkglogger.GetLogger().Error().Err(err).Int64("lead_id", lead.ID).Msg("lead notification failed")
		}
	}

	return &domain.LeadSubmitResponse{
		LeadID:     lead.ID,
		ImageCount: lead.ImageCount,
		ImageBytes: lead.ImageBytes,
		Images:     lead.Images,
	}, nil
}

// removeUploaded deletes images of a submission that was not saved. Files it
// cannot delete are logged with their key for manual cleanup.
func (s *LeadService) removeUploaded(uploaded []*storage.UploadResult) {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()
	for _, result := range uploaded {
		if err := s.media.Remove(ctx, result); err != nil {
			pkglogger.GetLogger().Warn().
				Err(err).
				Str("storage", result.Storage).
				Str("key", result.Key).
				Msg("orphaned lead image left in storage")
		}
	}
}

// checkOrphans rejects images whose row does not exist in the form
func checkOrphans(form *domain.LeadForm, images []StagedImage) error {
	for _, img := range images {
		if img.Key.Row >= form.Rows(img.Key.Entity) {
			return fmt.Errorf("%w: %s", common.ErrOrphanedImage, img.Key.FieldName())
		}
	}
	return nil
}

func acceptedSlots(accepted map[budget.SlotKey]*budget.AcceptedFile) []budget.Slot {
	slots := make([]budget.Slot, 0, len(accepted))
	for key, f := range accepted {
		slots = append(slots, budget.Slot{Key: key, Present: true, Size: f.Size})
	}
	return slots
}

func sortImages(images []StagedImage) {
	sort.Slice(images, func(i, j int) bool {
		a, b := images[i].Key, images[j].Key
		if a.Entity != b.Entity {
			return a.Entity < b.Entity
		}
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		return a.Position < b.Position
	})
}
