package repository

import (
	"errors"
	"time"

	"github.com/modulbox/leadform-backend/internal/budget"
	"github.com/modulbox/leadform-backend/internal/domain"
	"gorm.io/gorm"
)

// DraftRepository draft and slot data access interface
type DraftRepository interface {
	Create(draft *domain.Draft) error
	FindByID(id string) (*domain.Draft, error)
	ListSlots(draftID string) ([]domain.DraftSlot, error)
	// UpsertSlot stores slot and returns the row it replaced, if any
	UpsertSlot(slot *domain.DraftSlot) (*domain.DraftSlot, error)
	// DeleteSlot removes one slot and returns the deleted row, nil when the slot was empty
	DeleteSlot(draftID string, key budget.SlotKey) (*domain.DraftSlot, error)
	// DeleteRow removes every slot of one entity row and returns the deleted rows
	DeleteRow(draftID string, entity budget.Entity, row int) ([]domain.DraftSlot, error)
	// Touch bumps updated_at so active drafts are not swept
	Touch(draftID string) error
	MarkSubmitted(draftID string, leadID int64) error
	ListExpired(before time.Time, limit int) ([]domain.Draft, error)
	Delete(draftID string) error
}

type draftRepository struct {
	db *gorm.DB
}

// NewDraftRepository creates a new DraftRepository
func NewDraftRepository(db *gorm.DB) DraftRepository {
	return &draftRepository{db: db}
}

func (r *draftRepository) Create(draft *domain.Draft) error {
	return r.db.Create(draft).Error
}

func (r *draftRepository) FindByID(id string) (*domain.Draft, error) {
	var draft domain.Draft
	if err := r.db.Where("id = ?", id).First(&draft).Error; err != nil {
		return nil, err
	}
	return &draft, nil
}

func (r *draftRepository) ListSlots(draftID string) ([]domain.DraftSlot, error) {
	var slots []domain.DraftSlot
	err := r.db.Where("draft_id = ?", draftID).
		Order("entity ASC, row_index ASC, position ASC").
		Find(&slots).Error
	return slots, err
}

func (r *draftRepository) UpsertSlot(slot *domain.DraftSlot) (*domain.DraftSlot, error) {
	var previous *domain.DraftSlot
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var existing domain.DraftSlot
		err := tx.Where("draft_id = ? AND entity = ? AND row_index = ? AND position = ?",
			slot.DraftID, slot.Entity, slot.RowIndex, slot.Position).
			First(&existing).Error
		switch {
		case err == nil:
			prev := existing
			previous = &prev
			slot.ID = existing.ID
			return tx.Save(slot).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(slot).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return previous, nil
}

func (r *draftRepository) DeleteSlot(draftID string, key budget.SlotKey) (*domain.DraftSlot, error) {
	var existing domain.DraftSlot
	err := r.db.Where("draft_id = ? AND entity = ? AND row_index = ? AND position = ?",
		draftID, string(key.Entity), key.Row, key.Position).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.db.Delete(&domain.DraftSlot{}, existing.ID).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

func (r *draftRepository) DeleteRow(draftID string, entity budget.Entity, row int) ([]domain.DraftSlot, error) {
	var rows []domain.DraftSlot
	err := r.db.Transaction(func(tx *gorm.DB) error {
		q := tx.Where("draft_id = ? AND entity = ? AND row_index = ?", draftID, string(entity), row)
		if err := q.Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Where("draft_id = ? AND entity = ? AND row_index = ?", draftID, string(entity), row).
			Delete(&domain.DraftSlot{}).Error
	})
	return rows, err
}

func (r *draftRepository) Touch(draftID string) error {
	return r.db.Model(&domain.Draft{}).
		Where("id = ?", draftID).
		Update("updated_at", time.Now()).Error
}

func (r *draftRepository) MarkSubmitted(draftID string, leadID int64) error {
	now := time.Now()
	return r.db.Model(&domain.Draft{}).
		Where("id = ?", draftID).
		Updates(map[string]interface{}{
			"status":       domain.DraftSubmitted,
			"lead_id":      leadID,
			"submitted_at": now,
		}).Error
}

func (r *draftRepository) ListExpired(before time.Time, limit int) ([]domain.Draft, error) {
	var drafts []domain.Draft
	err := r.db.Where("updated_at < ?", before).
		Order("updated_at ASC").
		Limit(limit).
		Find(&drafts).Error
	return drafts, err
}

func (r *draftRepository) Delete(draftID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("draft_id = ?", draftID).Delete(&domain.DraftSlot{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", draftID).Delete(&domain.Draft{}).Error
	})
}
