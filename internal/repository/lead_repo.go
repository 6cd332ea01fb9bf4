package repository

import (
	"github.com/modulbox/leadform-backend/internal/domain"
	"gorm.io/gorm"
)

// LeadRepository lead data access interface
type LeadRepository interface {
	// Create appends the lead row together with its images
	Create(lead *domain.Lead) error
	FindByID(id int64) (*domain.Lead, error)
	List(offset, limit int) ([]domain.Lead, int64, error)
}

type leadRepository struct {
	db *gorm.DB
}

// NewLeadRepository creates a new LeadRepository
func NewLeadRepository(db *gorm.DB) LeadRepository {
	return &leadRepository{db: db}
}

func (r *leadRepository) Create(lead *domain.Lead) error {
	return r.db.Create(lead).Error
}

func (r *leadRepository) FindByID(id int64) (*domain.Lead, error) {
	var lead domain.Lead
	if err := r.db.Preload("Images").Where("id = ?", id).First(&lead).Error; err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *leadRepository) List(offset, limit int) ([]domain.Lead, int64, error) {
	var total int64
	if err := r.db.Model(&domain.Lead{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var leads []domain.Lead
	err := r.db.Order("id DESC").Offset(offset).Limit(limit).Find(&leads).Error
	if err != nil {
		return nil, 0, err
	}
	return leads, total, nil
}
