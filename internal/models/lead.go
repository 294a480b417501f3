package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Lead struct {
	ID      string `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name    string `gorm:"type:varchar(255);not null" json:"name"`
	Email   string `gorm:"type:varchar(255);not null;index" json:"email"`
	Phone   string `gorm:"type:varchar(50)" json:"phone,omitempty"`
	Message string `gorm:"type:text" json:"message,omitempty"`

	Status LeadStatus `gorm:"type:varchar(20);not null;default:'new';index" json:"status"`
	Source LeadSource `gorm:"type:varchar(30);not null;default:'website'" json:"source"`

	PropertyID *string `gorm:"type:varchar(36);index" json:"property_id,omitempty"`
	AgentID    *string `gorm:"type:varchar(36);index" json:"agent_id,omitempty"`

	BudgetMin *int64 `gorm:"type:bigint" json:"budget_min,omitempty"`
	BudgetMax *int64 `gorm:"type:bigint" json:"budget_max,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index:idx_leads_created_at,sort:desc" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Lead) TableName() string {
	return "leads"
}

func (l *Lead) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// LeadStatus is a pipeline stage. Transitions are unrestricted: any status
// may move to any other, including re-opening a won lead.
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusViewing   LeadStatus = "viewing"
	LeadStatusOffer     LeadStatus = "offer"
	LeadStatusWon       LeadStatus = "won"
	LeadStatusLost      LeadStatus = "lost"
)

func (s LeadStatus) Valid() bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified,
		LeadStatusViewing, LeadStatusOffer, LeadStatusWon, LeadStatusLost:
		return true
	}
	return false
}

// IsOpen reports whether the lead still counts as active pipeline.
func (s LeadStatus) IsOpen() bool {
	return s != LeadStatusWon && s != LeadStatusLost
}

type LeadSource string

const (
	LeadSourceWebsite      LeadSource = "website"
	LeadSourcePropertyPage LeadSource = "property_page"
	LeadSourceReferral     LeadSource = "referral"
	LeadSourcePortal       LeadSource = "portal"
	LeadSourceManual       LeadSource = "manual"
)

// LeadActivity is an append-only audit entry describing something that
// happened to a lead. Displayed chronologically, never replayed.
type LeadActivity struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	LeadID      string    `gorm:"type:varchar(36);not null;index:idx_lead_activity_lead" json:"lead_id"`
	Type        string    `gorm:"type:varchar(30);not null" json:"type"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Actor       string    `gorm:"type:varchar(255)" json:"actor,omitempty"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
}

func (LeadActivity) TableName() string {
	return "lead_activity"
}

// Activity type constants
const (
	ActivityTypeCreated      = "created"
	ActivityTypeStatusChange = "status_change"
	ActivityTypeNote         = "note"
	ActivityTypeViewing      = "viewing"
)
