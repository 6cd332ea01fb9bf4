package domain

import (
	"time"

	"github.com/modulbox/leadform-backend/internal/budget"
)

// Wizard steps
const (
	StepCompany   = "company"
	StepPortfolio = "portfolio"
	StepPricing   = "pricing"
)

// Steps lists the wizard steps in order
var Steps = []string{StepCompany, StepPortfolio, StepPricing}

// CompanyStep is the first wizard step
type CompanyStep struct {
	CompanyName string `json:"company_name" validate:"required,max=200"`
	ContactName string `json:"contact_name" validate:"required,max=100"`
	Email       string `json:"email" validate:"required,email,max=200"`
	Phone       string `json:"phone" validate:"required,min=5,max=40"`
	Website     string `json:"website,omitempty" validate:"omitempty,url,max=300"`
	Country     string `json:"country" validate:"required,max=100"`
	City        string `json:"city" validate:"required,max=100"`
	Message     string `json:"message,omitempty" validate:"max=2000"`
}

// ModelRow is one container-home model offered by the company
type ModelRow struct {
	Name        string  `json:"name" validate:"required,max=150"`
	SizeLabel   string  `json:"size_label" validate:"required,max=50"`
	AreaSqm     float64 `json:"area_sqm" validate:"gt=0,lte=10000"`
	Bedrooms    int     `json:"bedrooms" validate:"gte=0,lte=50"`
	Description string  `json:"description,omitempty" validate:"max=2000"`
}

// ProjectRow is one completed project
type ProjectRow struct {
	Title    string `json:"title" validate:"required,max=150"`
	Location string `json:"location" validate:"required,max=150"`
	Year     int    `json:"year" validate:"gte=1950,lte=2100"`
}

// ClientRow is one reference client
type ClientRow struct {
	Name    string `json:"name" validate:"required,max=150"`
	Website string `json:"website,omitempty" validate:"omitempty,url,max=300"`
}

// PortfolioStep is the second wizard step
type PortfolioStep struct {
	Models   []ModelRow   `json:"models" validate:"dive"`
	Projects []ProjectRow `json:"projects" validate:"dive"`
	Clients  []ClientRow  `json:"clients" validate:"dive"`
}

// PricingStep is the third wizard step
type PricingStep struct {
	Currency             string  `json:"currency" validate:"required,len=3,uppercase"`
	PriceFrom            float64 `json:"price_from" validate:"gte=0"`
	PriceTo              float64 `json:"price_to" validate:"gtefield=PriceFrom"`
	LeadTimeWeeks        int     `json:"lead_time_weeks" validate:"gte=1,lte=104"`
	DeliveryIncluded     bool    `json:"delivery_included"`
	InstallationIncluded bool    `json:"installation_included"`
}

// LeadForm is the complete wizard payload
type LeadForm struct {
	Company   CompanyStep   `json:"company"`
	Portfolio PortfolioStep `json:"portfolio"`
	Pricing   PricingStep   `json:"pricing"`
}

// Rows returns how many rows the form has for an entity
func (f *LeadForm) Rows(e budget.Entity) int {
	switch e {
	case budget.EntityLogo:
		return 1
	case budget.EntityModel:
		return len(f.Portfolio.Models)
	case budget.EntityProject:
		return len(f.Portfolio.Projects)
	case budget.EntityClient:
		return len(f.Portfolio.Clients)
	}
	return 0
}

// Lead is a submitted lead row (intake_leads table)
type Lead struct {
	ID          int64       `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	DraftID     string      `gorm:"column:draft_id;size:36;index" json:"draft_id,omitempty"`
	CompanyName string      `gorm:"column:company_name;size:200;index" json:"company_name"`
	ContactName string      `gorm:"column:contact_name;size:100" json:"contact_name"`
	Email       string      `gorm:"column:email;size:200;index" json:"email"`
	Phone       string      `gorm:"column:phone;size:40" json:"phone"`
	Country     string      `gorm:"column:country;size:100" json:"country"`
	City        string      `gorm:"column:city;size:100" json:"city"`
	Currency    string      `gorm:"column:currency;size:3" json:"currency"`
	PriceFrom   float64     `gorm:"column:price_from" json:"price_from"`
	PriceTo     float64     `gorm:"column:price_to" json:"price_to"`
	ModelCount  int         `gorm:"column:model_count" json:"model_count"`
	ImageCount  int         `gorm:"column:image_count" json:"image_count"`
	ImageBytes  int64       `gorm:"column:image_bytes" json:"image_bytes"`
	FormJSON    string      `gorm:"column:form_json;type:text" json:"-"`
	ClientIP    string      `gorm:"column:client_ip;size:64" json:"-"`
	CreatedAt   time.Time   `gorm:"column:created_at;index" json:"created_at"`
	Images      []LeadImage `gorm:"foreignKey:LeadID" json:"images,omitempty"`
}

// TableName returns the table name for Lead
func (Lead) TableName() string {
	return "intake_leads"
}

// LeadImage is one uploaded image of a lead (intake_lead_images table)
type LeadImage struct {
	ID          int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	LeadID      int64  `gorm:"column:lead_id;index" json:"-"`
	Field       string `gorm:"column:field;size:64" json:"field"`
	Storage     string `gorm:"column:storage;size:20" json:"storage"`
	Key         string `gorm:"column:storage_key;size:255" json:"key"`
	URL         string `gorm:"column:url;size:500" json:"url"`
	ContentType string `gorm:"column:content_type;size:50" json:"content_type"`
	Size        int64  `gorm:"column:size" json:"size"`
}

// TableName returns the table name for LeadImage
func (LeadImage) TableName() string {
	return "intake_lead_images"
}

// LeadSubmitResponse is returned after a successful submission
type LeadSubmitResponse struct {
	LeadID     int64       `json:"lead_id"`
	ImageCount int         `json:"image_count"`
	ImageBytes int64       `json:"image_bytes"`
	Images     []LeadImage `json:"images"`
}

// StepValidationResponse is returned by step validation
type StepValidationResponse struct {
	Step   string            `json:"step"`
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors,omitempty"`
}

// LeadListResponse is the admin list view
type LeadListResponse struct {
	Items []Lead `json:"items"`
	Total int64  `json:"total"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
}
