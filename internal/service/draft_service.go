package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modulbox/leadform-backend/internal/budget"
	"github.com/modulbox/leadform-backend/internal/common"
	"github.com/modulbox/leadform-backend/internal/domain"
	"github.com/modulbox/leadform-backend/internal/repository"
	pkglogger "github.com/modulbox/leadform-backend/pkg/logger"
	"github.com/modulbox/leadform-backend/pkg/storage"
	"gorm.io/gorm"
)

// StagingStore keeps slot bytes between upload and submission
type StagingStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string, size int64) (*storage.UploadResult, error)
	ReadAll(key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	DeletePrefix(prefix string) error
}

// StagedImage is a slot's current image, read back for submission
type StagedImage struct {
	Key         budget.SlotKey
	FileName    string
	ContentType string
	Data        []byte
}

const sweepBatch = 100

// DraftService manages wizard drafts and their attachment slots
type DraftService struct {
	repo       repository.DraftRepository
	staging    StagingStore
	compressor *budget.Compressor
	queue      *DraftQueue
	ttl        time.Duration
	now        func() time.Time
}

// NewDraftService creates a new DraftService
func NewDraftService(repo repository.DraftRepository, staging StagingStore, compressor *budget.Compressor, queue *DraftQueue, ttl time.Duration) *DraftService {
	if queue == nil {
		queue = NewDraftQueue()
	}
	return &DraftService{
		repo:       repo,
		staging:    staging,
		compressor: compressor,
		queue:      queue,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Create starts a new draft
func (s *DraftService) Create(ctx context.Context, clientIP string) (*domain.DraftResponse, error) {
	draft := &domain.Draft{
		ID:       uuid.New().String(),
		Status:   domain.DraftOpen,
		ClientIP: clientIP,
	}
	if err := s.repo.Create(draft); err != nil {
		return nil, fmt.Errorf("failed to create draft: %w", err)
	}

	return &domain.DraftResponse{
		ID:     draft.ID,
		Status: draft.Status,
		Slots:  []domain.DraftSlot{},
		Budget: domain.NewBudgetResponse(budget.Snapshot{}),
	}, nil
}

// Get returns a draft with its populated slots and budget
func (s *DraftService) Get(ctx context.Context, id string) (*domain.DraftResponse, error) {
	draft, err := s.find(id)
	if err != nil {
		return nil, err
	}
	slots, err := s.repo.ListSlots(id)
	if err != nil {
		return nil, err
	}
	if slots == nil {
		slots = []domain.DraftSlot{}
	}

	return &domain.DraftResponse{
		ID:     draft.ID,
		Status: draft.Status,
		Slots:  slots,
		Budget: domain.NewBudgetResponse(budget.ComputeBudget(domain.BudgetSlots(slots))),
	}, nil
}

// Budget recomputes the draft's budget from its slots
func (s *DraftService) Budget(ctx context.Context, id string) (*domain.BudgetResponse, error) {
	if _, err := s.find(id); err != nil {
		return nil, err
	}
	snap, err := s.snapshot(id, nil)
	if err != nil {
		return nil, err
	}
	resp := domain.NewBudgetResponse(snap)
	return &resp, nil
}

// AttachImage runs file through the compressor and stores the result in key.
// Replacing an image frees its bytes before the aggregate check.
func (s *DraftService) AttachImage(ctx context.Context, id string, key budget.SlotKey, file budget.IncomingFile) (*domain.SlotUploadResponse, error) {
	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidSlot, err)
	}

	var resp *domain.SlotUploadResponse
	err := s.queue.Do(ctx, id, func(ctx context.Context) error {
		if _, err := s.findOpen(id); err != nil {
			return err
		}

		current, err := s.snapshot(id, &key)
		if err != nil {
			return err
		}

		accepted, err := s.compressor.ProcessIncomingImage(ctx, file, current)
		if err != nil {
			recordRejected(err)
			return err
		}
		recordAccepted(accepted)

		stagingKey := stagingKeyFor(id, key, accepted.Name)
		if _, err := s.staging.Upload(ctx, stagingKey, bytes.NewReader(accepted.Data), accepted.ContentType, accepted.Size); err != nil {
			return fmt.Errorf("failed to stage image: %w", err)
		}

		row := &domain.DraftSlot{
			DraftID:      id,
			Entity:       string(key.Entity),
			RowIndex:     key.Row,
			Position:     key.Position,
			FileName:     accepted.Name,
			ContentType:  accepted.ContentType,
			Size:         accepted.Size,
			OriginalSize: accepted.OriginalSize,
			Reencoded:    accepted.Reencoded,
			Width:        accepted.Width,
			Height:       accepted.Height,
			StagingKey:   stagingKey,
		}
		previous, err := s.repo.UpsertSlot(row)
		if err != nil {
			_ = s.staging.Delete(ctx, stagingKey)
			return fmt.Errorf("failed to save slot: %w", err)
		}
		if previous != nil && previous.StagingKey != stagingKey {
			s.discard(ctx, previous.StagingKey)
		}
		s.touch(id)

		snap, err := s.snapshot(id, nil)
		if err != nil {
			return err
		}
		resp = &domain.SlotUploadResponse{
			Slot:   *row,
			Policy: accepted.Policy,
			Stages: accepted.Stages,
			Budget: domain.NewBudgetResponse(snap),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ClearSlot empties one slot. Clearing an empty slot is not an error.
func (s *DraftService) ClearSlot(ctx context.Context, id string, key budget.SlotKey) (*domain.BudgetResponse, error) {
	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidSlot, err)
	}
	return s.mutate(ctx, id, func(ctx context.Context) error {
		removed, err := s.repo.DeleteSlot(id, key)
		if err != nil {
			return err
		}
		if removed != nil {
			s.discard(ctx, removed.StagingKey)
		}
		return nil
	})
}

// RemoveRow clears every slot of one entity row
func (s *DraftService) RemoveRow(ctx context.Context, id string, entity budget.Entity, row int) (*domain.BudgetResponse, error) {
	if err := (budget.SlotKey{Entity: entity, Row: row}).Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidSlot, err)
	}
	return s.mutate(ctx, id, func(ctx context.Context) error {
		removed, err := s.repo.DeleteRow(id, entity, row)
		if err != nil {
			return err
		}
		for i := range removed {
			s.discard(ctx, removed[i].StagingKey)
		}
		return nil
	})
}

// Finalize runs submit against the draft's staged images inside the draft's
// queue. When submit succeeds the draft is marked submitted and its staged
// files are removed.
func (s *DraftService) Finalize(ctx context.Context, id string, submit func(ctx context.Context, images []StagedImage) (int64, error)) error {
	return s.queue.Do(ctx, id, func(ctx context.Context) error {
		if _, err := s.findOpen(id); err != nil {
			return err
		}

		slots, err := s.repo.ListSlots(id)
		if err != nil {
			return err
		}
		images := make([]StagedImage, 0, len(slots))
		for i := range slots {
			data, err := s.staging.ReadAll(slots[i].StagingKey)
			if err != nil {
				return fmt.Errorf("failed to read staged image %s: %w", slots[i].Key(), err)
			}
			images = append(images, StagedImage{
				Key:         slots[i].Key(),
				FileName:    slots[i].FileName,
				ContentType: slots[i].ContentType,
				Data:        data,
			})
		}

		leadID, err := submit(ctx, images)
		if err != nil {
			return err
		}

		if err := s.repo.MarkSubmitted(id, leadID); err != nil {
			return fmt.Errorf("failed to mark draft submitted: %w", err)
		}
		if err := s.staging.DeletePrefix(stagingPrefix(id)); err != nil {
			l := pkglogger.WithDraftID(id)
			l.Warn().Err(err).Msg("failed to remove staged files")
		}
		return nil
	})
}

// SweepExpired deletes drafts idle for longer than the TTL and their staged files
func (s *DraftService) SweepExpired(ctx context.Context) (int, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	before := s.now().Add(-s.ttl)

	removed := 0
	for {
		drafts, err := s.repo.ListExpired(before, sweepBatch)
		if err != nil {
			return removed, err
		}
		for i := range drafts {
			id := drafts[i].ID
			swept := false
			err := s.queue.Do(ctx, id, func(ctx context.Context) error {
				// re-check: the draft may have been touched after listing
				draft, err := s.repo.FindByID(id)
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil
				}
				if err != nil {
					return err
				}
				if !draft.UpdatedAt.Before(before) {
					return nil
				}
				if err := s.staging.DeletePrefix(stagingPrefix(id)); err != nil {
					return err
				}
				swept = true
				return s.repo.Delete(id)
			})
			if err != nil {
				return removed, fmt.Errorf("failed to sweep draft %s: %w", id, err)
			}
			if swept {
				removed++
			}
		}
		if len(drafts) < sweepBatch {
			return removed, nil
		}
	}
}

// StartSweeper runs SweepExpired every interval until ctx is done
func (s *DraftService) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 || s.ttl <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := s.SweepExpired(ctx)
				if err != nil {
					pkglogger.GetLogger().Error().Err(err).Msg("draft sweep failed")
					continue
				}
				if n > 0 {
					pkglogger.GetLogger().Info().Int("removed", n).Msg("expired drafts swept")
				}
			}
		}
	}()
}

func (s *DraftService) mutate(ctx context.Context, id string, fn func(ctx context.Context) error) (*domain.BudgetResponse, error) {
	var resp domain.BudgetResponse
	err := s.queue.Do(ctx, id, func(ctx context.Context) error {
		if _, err := s.findOpen(id); err != nil {
			return err
		}
		if err := fn(ctx); err != nil {
			return err
		}
		s.touch(id)

		snap, err := s.snapshot(id, nil)
		if err != nil {
			return err
		}
		resp = domain.NewBudgetResponse(snap)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// snapshot recomputes the budget from stored slots, leaving out skip
func (s *DraftService) snapshot(id string, skip *budget.SlotKey) (budget.Snapshot, error) {
	rows, err := s.repo.ListSlots(id)
	if err != nil {
		return budget.Snapshot{}, fmt.Errorf("failed to list slots: %w", err)
	}
	slots := domain.BudgetSlots(rows)
	if skip != nil {
		for i := range slots {
			if slots[i].Key == *skip {
				slots[i].Present = false
			}
		}
	}
	return budget.ComputeBudget(slots), nil
}

func (s *DraftService) find(id string) (*domain.Draft, error) {
	draft, err := s.repo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrDraftNotFound
	}
	if err != nil {
		return nil, err
	}
	return draft, nil
}

func (s *DraftService) findOpen(id string) (*domain.Draft, error) {
	draft, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if !draft.IsOpen() || s.expired(draft) {
		return nil, common.ErrDraftClosed
	}
	return draft, nil
}

func (s *DraftService) expired(d *domain.Draft) bool {
	return s.ttl > 0 && s.now().Sub(d.UpdatedAt) > s.ttl
}

func (s *DraftService) touch(id string) {
	if err := s.repo.Touch(id); err != nil {
		l := pkglogger.WithDraftID(id)
		l.Warn().Err(err).Msg("failed to touch draft")
	}
}

func (s *DraftService) discard(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.staging.Delete(ctx, key); err != nil {
		pkglogger.GetLogger().Warn().Err(err).Str("key", key).Msg("failed to remove staged image")
	}
}

func stagingPrefix(draftID string) string {
	return "drafts/" + draftID
}

func stagingKeyFor(draftID string, key budget.SlotKey, name string) string {
	ext := strings.ToLower(path.Ext(name))
	if ext == "" {
		ext = ".bin"
	}
	return fmt.Sprintf("%s/%s-%d-%d-%s%s", stagingPrefix(draftID), key.Entity, key.Row, key.Position, uuid.New().String()[:8], ext)
}
