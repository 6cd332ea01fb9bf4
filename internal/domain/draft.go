package domain

import (
	"time"

	"github.com/modulbox/leadform-backend/internal/budget"
)

// Draft statuses
const (
	DraftOpen      = "open"
	DraftSubmitted = "submitted"
)

// Draft is one wizard session (intake_drafts table)
type Draft struct {
	ID          string     `gorm:"column:id;primaryKey;size:36" json:"id"`
	Status      string     `gorm:"column:status;size:20;default:open;index" json:"status"`
	ClientIP    string     `gorm:"column:client_ip;size:64" json:"-"`
	LeadID      *int64     `gorm:"column:lead_id" json:"lead_id,omitempty"`
	CreatedAt   time.Time  `gorm:"column:created_at;index" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at" json:"updated_at"`
	SubmittedAt *time.Time `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
}

// TableName returns the table name for Draft
func (Draft) TableName() string {
	return "intake_drafts"
}

// IsOpen reports whether the draft still accepts changes
func (d *Draft) IsOpen() bool {
	return d.Status == DraftOpen
}

// DraftSlot is a populated attachment slot of a draft (intake_draft_slots table).
// Empty slots have no row.
type DraftSlot struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	DraftID      string    `gorm:"column:draft_id;size:36;uniqueIndex:ux_draft_slot" json:"-"`
	Entity       string    `gorm:"column:entity;size:20;uniqueIndex:ux_draft_slot" json:"entity"`
	RowIndex     int       `gorm:"column:row_index;uniqueIndex:ux_draft_slot" json:"row"`
	Position     int       `gorm:"column:position;uniqueIndex:ux_draft_slot" json:"position"`
	FileName     string    `gorm:"column:file_name;size:255" json:"file_name"`
	ContentType  string    `gorm:"column:content_type;size:50" json:"content_type"`
	Size         int64     `gorm:"column:size" json:"size"`
	OriginalSize int64     `gorm:"column:original_size" json:"original_size"`
	Reencoded    bool      `gorm:"column:reencoded" json:"reencoded"`
	Width        int       `gorm:"column:width" json:"width,omitempty"`
	Height       int       `gorm:"column:height" json:"height,omitempty"`
	StagingKey   string    `gorm:"column:staging_key;size:255" json:"-"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName returns the table name for DraftSlot
func (DraftSlot) TableName() string {
	return "intake_draft_slots"
}

// Key returns the budget slot key of this row
func (s *DraftSlot) Key() budget.SlotKey {
	return budget.SlotKey{Entity: budget.Entity(s.Entity), Row: s.RowIndex, Position: s.Position}
}

// BudgetSlots converts stored slot rows to budget slots
func BudgetSlots(rows []DraftSlot) []budget.Slot {
	slots := make([]budget.Slot, 0, len(rows))
	for i := range rows {
		slots = append(slots, budget.Slot{Key: rows[i].Key(), Present: true, Size: rows[i].Size})
	}
	return slots
}

// BudgetResponse is the budget view returned after every slot change
type BudgetResponse struct {
	TotalBytes     int64         `json:"total_bytes"`
	Count          int           `json:"count"`
	RemainingBytes int64         `json:"remaining_bytes"`
	Tier           budget.Tier   `json:"tier,omitempty"`
	Limits         budget.Limits `json:"limits"`
}

// NewBudgetResponse derives the response from a snapshot
func NewBudgetResponse(snap budget.Snapshot) BudgetResponse {
	return BudgetResponse{
		TotalBytes:     snap.TotalBytes,
		Count:          snap.Count,
		RemainingBytes: snap.Remaining(),
		Tier:           budget.Classify(snap.TotalBytes),
		Limits:         budget.DefaultLimits(),
	}
}

// DraftResponse is returned when a draft is created or read
type DraftResponse struct {
	ID     string         `json:"id"`
	Status string         `json:"status"`
	Slots  []DraftSlot    `json:"slots"`
	Budget BudgetResponse `json:"budget"`
}

// SlotUploadResponse is returned after an image is accepted into a slot
type SlotUploadResponse struct {
	Slot   DraftSlot      `json:"slot"`
	Policy budget.Policy  `json:"policy"`
	Stages []budget.Stage `json:"stages"`
	Budget BudgetResponse `json:"budget"`
}
